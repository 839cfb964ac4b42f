package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"circl/models"

	"go.uber.org/zap"
)

const maxNetworkBytes = 2 << 20

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RemoteSource reads a user's network from the Circl API's my-network endpoint.
type RemoteSource struct {
	client  HTTPDoer
	baseURL string
	token   string
	logger  *zap.Logger
}

// NewRemoteSource builds a source against baseURL. token is sent as "Authorization: Token <token>".
func NewRemoteSource(baseURL, token string, client HTTPDoer, logger *zap.Logger) *RemoteSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteSource{
		client:  client,
		baseURL: baseURL,
		token:   token,
		logger:  logger.Named("network.remote"),
	}
}

func (s *RemoteSource) endpoint(path string) (*url.URL, error) {
	base, err := url.Parse(s.baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid network api url %q", s.baseURL)
	}
	return base.ResolveReference(&url.URL{Path: path}), nil
}

func (s *RemoteSource) authorize(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Token "+s.token)
	}
}

type friendRequest struct {
	UserID        int64  `json:"user_id"`
	ReceiverEmail string `json:"receiver_email"`
}

// AddMember sends a connection request from ownerID to the member's email. The
// member shows up in Members once the server lists it.
func (s *RemoteSource) AddMember(ctx context.Context, ownerID int64, member models.NetworkMember) error {
	email := strings.TrimSpace(member.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidMember)
	}
	u, err := s.endpoint("users/send_friend_request/")
	if err != nil {
		return err
	}
	payload, err := json.Marshal(friendRequest{UserID: ownerID, ReceiverEmail: email})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	s.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("friend request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxNetworkBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("friend request returned status %d", resp.StatusCode)
	}
	s.logger.Debug("friend request sent", zap.Int64("owner", ownerID), zap.String("email", email))
	return nil
}

func (s *RemoteSource) Members(ctx context.Context, ownerID int64) ([]models.NetworkMember, error) {
	u, err := s.endpoint("my-network/")
	if err != nil {
		return nil, err
	}
	u.RawQuery = url.Values{"user_id": {strconv.FormatInt(ownerID, 10)}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxNetworkBytes))
	if err != nil {
		return nil, fmt.Errorf("read network response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("network api returned status %d", resp.StatusCode)
	}

	members, err := ParseMembers(body)
	if err != nil {
		s.logger.Warn("unrecognized network payload", zap.Int64("owner", ownerID), zap.Int("bytes", len(body)))
		return nil, err
	}
	return members, nil
}

// ParseMembers accepts the payload shapes the my-network endpoint has used: a bare
// array, an object keyed by "network", "users" or "friends", a {"success": true,
// "data": [...]} envelope, or any object holding an array of objects with an email.
func ParseMembers(data []byte) ([]models.NetworkMember, error) {
	var root interface{}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode network payload: %w", err)
	}

	switch v := root.(type) {
	case []interface{}:
		return membersFrom(v), nil
	case map[string]interface{}:
		for _, key := range []string{"network", "users", "friends"} {
			if arr, ok := v[key].([]interface{}); ok {
				return membersFrom(arr), nil
			}
		}
		if ok, _ := v["success"].(bool); ok {
			if arr, ok := v["data"].([]interface{}); ok {
				return membersFrom(arr), nil
			}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			arr, ok := v[k].([]interface{})
			if !ok || len(arr) == 0 {
				continue
			}
			if first, ok := arr[0].(map[string]interface{}); ok {
				if _, hasEmail := first["email"]; hasEmail {
					return membersFrom(arr), nil
				}
			}
		}
	}
	return nil, ErrUnknownFormat
}

func membersFrom(items []interface{}) []models.NetworkMember {
	out := make([]models.NetworkMember, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		m := models.NetworkMember{Email: stringField(obj, "email")}
		for _, key := range []string{"user_id", "id", "userId"} {
			if id, ok := intField(obj, key); ok {
				m.UserID = id
				break
			}
		}
		if m.UserID == 0 && m.Email == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

func stringField(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return s
}

func intField(obj map[string]interface{}, key string) (int64, bool) {
	switch v := obj[key].(type) {
	case float64:
		return int64(v), v != 0
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return id, err == nil && id != 0
	}
	return 0, false
}

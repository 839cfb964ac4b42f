package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"circl/models"
	"circl/utils"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "session:"

func sessionKey(deviceID string) string {
	return sessionKeyPrefix + deviceID
}

// RedisStore keeps each device session in one hash.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, deviceID string) (models.Session, error) {
	fields, err := s.client.HGetAll(ctx, sessionKey(deviceID)).Result()
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to load session for %s: %w", deviceID, err)
	}
	return sessionFromFields(deviceID, fields), nil
}

func (s *RedisStore) SaveLogin(ctx context.Context, deviceID string, userID int64, title string) error {
	err := s.client.HSet(ctx, sessionKey(deviceID),
		models.SessionKeyLoggedIn, "true",
		models.SessionKeyUserID, strconv.FormatInt(userID, 10),
		models.SessionKeyUserTitle, title,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to save session for %s: %w", deviceID, err)
	}
	return nil
}

func (s *RedisStore) ClearUser(ctx context.Context, deviceID string) error {
	key := sessionKey(deviceID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, key, models.SessionKeyUserID)
		pipe.HSet(ctx, key, models.SessionKeyLoggedIn, "false")
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear session for %s: %w", deviceID, err)
	}
	return nil
}

func (s *RedisStore) SetTitle(ctx context.Context, deviceID string, title string) error {
	if err := s.client.HSet(ctx, sessionKey(deviceID), models.SessionKeyUserTitle, title).Err(); err != nil {
		return fmt.Errorf("failed to set title for %s: %w", deviceID, err)
	}
	return nil
}

func (s *RedisStore) RevokeToken(ctx context.Context, tokenHash string, ttl time.Duration) error {
	return utils.RevokeToken(ctx, s.client, tokenHash, ttl)
}

func (s *RedisStore) IsTokenRevoked(ctx context.Context, tokenHash string) (bool, error) {
	return utils.IsTokenRevoked(ctx, s.client, tokenHash)
}

// sessionFromFields tolerates missing or unparsable fields; they read as unset.
func sessionFromFields(deviceID string, fields map[string]string) models.Session {
	sess := models.Session{DeviceID: deviceID}
	if v, ok := fields[models.SessionKeyLoggedIn]; ok {
		sess.IsLoggedIn, _ = strconv.ParseBool(v)
	}
	if v, ok := fields[models.SessionKeyUserID]; ok {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			sess.UserID = &id
		}
	}
	sess.UserTitle = fields[models.SessionKeyUserTitle]
	return sess
}

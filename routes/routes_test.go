package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"circl/handlers"
	"circl/models"
	"circl/services/discovery"
	"circl/services/network"
	"circl/services/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type staticSource struct {
	mu      sync.Mutex
	members map[int64][]models.NetworkMember
}

func (s *staticSource) Members(_ context.Context, owner int64) ([]models.NetworkMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.NetworkMember(nil), s.members[owner]...), nil
}

func (s *staticSource) AddMember(_ context.Context, owner int64, m models.NetworkMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[owner] = append(s.members[owner], m)
	return nil
}

func (s *staticSource) RemoveMember(_ context.Context, owner, memberID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []models.NetworkMember
	for _, m := range s.members[owner] {
		if m.UserID != memberID {
			kept = append(kept, m)
		}
	}
	s.members[owner] = kept
	return nil
}

type testServer struct {
	router   *gin.Engine
	upstream *httptest.Server
	lastURL  chan string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{lastURL: make(chan string, 16)}
	ts.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case ts.lastURL <- r.URL.String():
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"places": [{"displayName": {"text": "Angel Hub"}, "formattedAddress": "1 Congress Ave", "rating": 4.5}]}`))
	}))

	fetcher := discovery.NewHTTPFetcher(discovery.FetcherConfig{
		BaseURL: ts.upstream.URL + "/api/",
		Client:  ts.upstream.Client(),
	}, nil)
	board := discovery.NewBoard()
	svc := discovery.NewDefaultDiscoveryService(fetcher, board, nil)

	cache := network.NewCache(&staticSource{members: map[int64][]models.NetworkMember{
		5: {{UserID: 8, Email: "eight@circl.app"}},
	}}, nil)
	gate := session.NewGate(session.NewMemoryStore(), session.GateConfig{
		LogoutDelay: 10 * time.Millisecond,
		OnSignedIn:  cache.RefreshAsync,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go board.Run(ctx)
	go cache.Run(ctx)
	t.Cleanup(func() {
		require.NoError(t, svc.Shutdown(context.Background()))
		require.NoError(t, cache.Shutdown(context.Background()))
		cancel()
		<-board.Stopped()
		<-cache.Stopped()
		ts.upstream.Close()
	})

	ts.router = gin.New()
	RegisterRoutes(ts.router, handlers.NewHandlerBundle(
		handlers.NewDiscoveryHandler(svc),
		handlers.NewSessionHandler(gate),
		handlers.NewNetworkHandler(cache),
	))
	return ts
}

func (ts *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

const investorBody = `{"locationPref": "Austin", "investorType": "angel", "fundingStage": "seed", "industry": "fintech"}`

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]interface{}](t, w)["status"])
}

func TestListDomains(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodGet, "/api/discovery/domains", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct{ Domains []string }](t, w)
	assert.Len(t, body.Domains, 14)
}

func TestSubmitAndWait(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodPost, "/api/discovery/investor/views/investors?wait=true", investorBody, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	entry := decode[discovery.Entry](t, w)
	assert.Equal(t, discovery.StatusReady, entry.Status)
	require.Len(t, entry.Resources, 1)
	assert.Equal(t, "Angel Hub", entry.Resources[0].DisplayName.Text)
	assert.Equal(t, "Austin", entry.Location)

	want := models.InvestorQuizAnswers{LocationPref: "Austin", InvestorType: "angel", FundingStage: "seed", Industry: "fintech"}
	assert.Equal(t, want.Keyword(), entry.Keyword)
	assert.Contains(t, <-ts.lastURL, "/api/legal-resources/?keyword=")

	w = ts.do(http.MethodGet, "/api/discovery/views/investors", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entry.Seq, decode[discovery.Entry](t, w).Seq)
}

func TestSubmitAccepted(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodPost, "/api/discovery/investor/views/investors", investorBody, "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	assert.Eventually(t, func() bool {
		w := ts.do(http.MethodGet, "/api/discovery/views/investors", "", "")
		return w.Code == http.StatusOK && decode[discovery.Entry](t, w).Status == discovery.StatusReady
	}, time.Second, 10*time.Millisecond)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPost, "/api/discovery/astrology/views/x", `{}`, "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/discovery/investor/views/x", `{"industry": 3}`, "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/discovery/views/never", "", "").Code)
}

func TestAppear(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodPost, "/api/discovery/legal/views/lawyers/appear", `{"legalNeeds": "contracts", "locationPref": "Denver"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	entry := decode[discovery.Entry](t, w)
	assert.Equal(t, "lawyers", entry.View)
	assert.Equal(t, "Denver", entry.Location)

	assert.Eventually(t, func() bool {
		w := ts.do(http.MethodGet, "/api/discovery/views/lawyers", "", "")
		return decode[discovery.Entry](t, w).Status == discovery.StatusReady
	}, time.Second, 10*time.Millisecond)
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodPost, "/api/discovery/investor/search", investorBody, "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[discovery.Result](t, w)
	assert.Len(t, res.Resources, 1)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/discovery/views/investors", "", "").Code)
}

func TestSessionFlow(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/session/phone-1/launch", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "logged_out", decode[map[string]string](t, w)["root"])

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/session/phone-1/login", `{}`, "").Code)

	w = ts.do(http.MethodPost, "/api/session/phone-1/login", `{"userId": 5, "userTitle": "Founder"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[models.LoginResponse](t, w)
	assert.Equal(t, models.RootLoggedIn, login.Root)
	require.NotEmpty(t, login.Token)

	// login refreshes the user's network in the background
	assert.Eventually(t, func() bool {
		w := ts.do(http.MethodGet, "/api/network/5/members/8", "", "")
		m := decode[models.MembershipResponse](t, w)
		return m.InNetwork && m.State == string(network.StateReady)
	}, time.Second, 10*time.Millisecond)

	w = ts.do(http.MethodPut, "/api/session/phone-1/title", `{"userTitle": "CEO"}`, login.Token)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodPost, "/api/session/phone-1/logout", "", "").Code)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodPost, "/api/session/phone-2/logout", "", login.Token).Code)

	w = ts.do(http.MethodPost, "/api/session/phone-1/logout?wait=true", "", login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "logged_out", decode[map[string]string](t, w)["root"])

	w = ts.do(http.MethodGet, "/api/session/phone-1/root", "", "")
	assert.Equal(t, "logged_out", decode[map[string]string](t, w)["root"])

	// the token died with the session
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodPut, "/api/session/phone-1/title", `{"userTitle": "x"}`, login.Token).Code)
}

// login signs userID in on device and returns the session token.
func (ts *testServer) login(t *testing.T, device string, userID int64) string {
	t.Helper()
	w := ts.do(http.MethodPost, "/api/session/"+device+"/login", fmt.Sprintf(`{"userId": %d}`, userID), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.LoginResponse](t, w).Token
}

func TestNetworkWritesRequireOwnerToken(t *testing.T) {
	ts := newTestServer(t)
	other := ts.login(t, "phone-7", 7)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodPost, "/api/network/5/members", `{"userId": 9}`, "").Code)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodPost, "/api/network/5/members", `{"userId": 9}`, other).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodDelete, "/api/network/5/members/8", "", "").Code)
	assert.Equal(t, http.StatusForbidden, ts.do(http.MethodDelete, "/api/network/5/members/8", "", other).Code)

	w := ts.do(http.MethodGet, "/api/network/5/members/9", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[models.MembershipResponse](t, w).InNetwork)
}

func TestNetworkEndpoints(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/network/abc/members/1", "", "").Code)

	w := ts.do(http.MethodGet, "/api/network/5/members/8", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	m := decode[models.MembershipResponse](t, w)
	assert.False(t, m.InNetwork)
	assert.Equal(t, string(network.StateEmpty), m.State)

	w = ts.do(http.MethodPost, "/api/network/5/refresh?wait=true", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(network.StateReady), decode[map[string]interface{}](t, w)["state"])

	w = ts.do(http.MethodGet, "/api/network/5/emails/EIGHT@circl.app", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]interface{}](t, w)["inNetwork"])

	owner5 := ts.login(t, "phone-5", 5)
	owner6 := ts.login(t, "phone-6", 6)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/network/5/members", `{}`, owner5).Code)
	w = ts.do(http.MethodPost, "/api/network/6/members", `{"userId": 9, "email": "nine@circl.app"}`, owner6)
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(http.MethodGet, "/api/network/6/members/9", "", "")
	assert.True(t, decode[models.MembershipResponse](t, w).InNetwork)

	w = ts.do(http.MethodDelete, "/api/network/5/members/8", "", owner5)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(http.MethodGet, "/api/network/5/members", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Members []models.NetworkMember `json:"members"`
		State   string                 `json:"state"`
	}](t, w)
	assert.Empty(t, list.Members)
	assert.Equal(t, string(network.StateReady), list.State)
}

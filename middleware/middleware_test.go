package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"circl/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGetClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:5000", "203.0.113.7"},
		{"forwarded garbage skipped", map[string]string{"X-Forwarded-For": "unknown, 198.51.100.4"}, "10.0.0.2:5000", "198.51.100.4"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.9 "}, "10.0.0.2:5000", "198.51.100.9"},
		{"remote addr", nil, "192.0.2.1:443", "192.0.2.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, getClientIP(c))
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// other clients have their own budget
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.11:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	var gotLogger bool
	r.GET("/", func(c *gin.Context) {
		_, gotLogger = c.Get("logger")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, gotLogger)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestSessionAuthMiddleware(t *testing.T) {
	r := gin.New()
	revoked := revokedSet{}
	r.POST("/session/:device/logout", SessionAuthMiddleware(revoked), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetInt64("userID")})
	})

	token, err := utils.GenerateSessionToken("dev-1", 77, time.Hour)
	require.NoError(t, err)

	send := func(path, auth string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, send("/session/dev-1/logout", "").Code)
	assert.Equal(t, http.StatusUnauthorized, send("/session/dev-1/logout", "Bearer junk").Code)
	assert.Equal(t, http.StatusForbidden, send("/session/dev-2/logout", "Bearer "+token).Code)

	w := send("/session/dev-1/logout", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userID": 77}`, w.Body.String())

	revoked[utils.HashToken(token)] = true
	assert.Equal(t, http.StatusUnauthorized, send("/session/dev-1/logout", "Bearer "+token).Code)
}

func TestOwnerAuthMiddleware(t *testing.T) {
	r := gin.New()
	revoked := revokedSet{}
	r.POST("/network/:owner/members", OwnerAuthMiddleware(revoked), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	token, err := utils.GenerateSessionToken("dev-1", 77, time.Hour)
	require.NoError(t, err)

	send := func(path, auth string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, send("/network/77/members", ""))
	assert.Equal(t, http.StatusForbidden, send("/network/78/members", "Bearer "+token))
	assert.Equal(t, http.StatusCreated, send("/network/77/members", "Bearer "+token))

	revoked[utils.HashToken(token)] = true
	assert.Equal(t, http.StatusUnauthorized, send("/network/77/members", "Bearer "+token))
}

type revokedSet map[string]bool

func (r revokedSet) TokenRevoked(_ context.Context, hash string) (bool, error) {
	return r[hash], nil
}

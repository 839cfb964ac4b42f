package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"circl/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RevocationChecker reports whether a token hash has been revoked.
type RevocationChecker interface {
	TokenRevoked(ctx context.Context, tokenHash string) (bool, error)
}

// authenticate validates the Bearer session token and rejects revoked tokens. It
// aborts the request and returns false on failure.
func authenticate(c *gin.Context, revoked RevocationChecker) (*utils.SessionClaims, string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
		return nil, "", false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	// Validate the token signature and expiration.
	claims, err := utils.ValidateSessionToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return nil, "", false
	}

	tokenHash := utils.HashToken(tokenString)
	if revoked != nil {
		isRevoked, err := revoked.TokenRevoked(c.Request.Context(), tokenHash)
		if err != nil {
			zap.L().Error("token revocation lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Session store unavailable"})
			return nil, "", false
		}
		if isRevoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			return nil, "", false
		}
	}
	return claims, tokenHash, true
}

func setSession(c *gin.Context, claims *utils.SessionClaims, tokenHash string) {
	c.Set("sessionClaims", claims)
	c.Set("userID", claims.UserID)
	c.Set("tokenHash", tokenHash)
}

// SessionAuthMiddleware requires a session token issued for the device in the ":device"
// path parameter. The token's claims are stored under "sessionClaims". revoked may be nil.
func SessionAuthMiddleware(revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, tokenHash, ok := authenticate(c, revoked)
		if !ok {
			return
		}
		if claims.Subject != c.Param("device") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Token was issued for another device"})
			return
		}
		setSession(c, claims, tokenHash)
		c.Next()
	}
}

// OwnerAuthMiddleware requires a session token whose user is the ":owner" path parameter.
func OwnerAuthMiddleware(revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, tokenHash, ok := authenticate(c, revoked)
		if !ok {
			return
		}
		if strconv.FormatInt(claims.UserID, 10) != c.Param("owner") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Token belongs to another user"})
			return
		}
		setSession(c, claims, tokenHash)
		c.Next()
	}
}

package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"circl/config"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

// fallbackSecret signs tokens when JWT_SECRET is unset. config.Load refuses an
// empty secret in production, so only development and tests reach it.
const fallbackSecret = "circl-dev-secret"

func secretKey() []byte {
	if s := config.AppConfig.JWTSecret; s != "" {
		return []byte(s)
	}
	return []byte(fallbackSecret)
}

// SessionClaims binds a token to one device session.
type SessionClaims struct {
	UserID int64 `json:"uid"`
	jwt.StandardClaims
}

// GenerateSessionToken creates a signed token for deviceID that expires after duration.
func GenerateSessionToken(deviceID string, userID int64, duration time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Subject:   deviceID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(duration).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// HashToken computes a SHA-256 hash of the token string.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidateSessionToken parses and validates a token string and returns its claims.
func ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

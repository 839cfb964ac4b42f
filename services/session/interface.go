package session

import (
	"context"
	"time"

	"circl/models"
)

// Store persists the per-device session flags.
type Store interface {
	// Load returns the stored session. A device with nothing stored reads as logged out.
	Load(ctx context.Context, deviceID string) (models.Session, error)
	// SaveLogin sets isLoggedIn, user_id and userTitle together.
	SaveLogin(ctx context.Context, deviceID string, userID int64, title string) error
	// ClearUser removes user_id and sets isLoggedIn to false.
	ClearUser(ctx context.Context, deviceID string) error
	// SetTitle updates userTitle only.
	SetTitle(ctx context.Context, deviceID string, title string) error
	// RevokeToken records a token hash as unusable for ttl.
	RevokeToken(ctx context.Context, tokenHash string, ttl time.Duration) error
	// IsTokenRevoked reports whether a token hash was revoked.
	IsTokenRevoked(ctx context.Context, tokenHash string) (bool, error)
}

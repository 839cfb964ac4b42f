package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RevokedTokenPrefix prefixes the Redis keys of revoked session token hashes.
const RevokedTokenPrefix = "revokedToken:"

// RevokeToken marks tokenHash as revoked until ttl elapses. A non-positive ttl is a no-op,
// the token has already expired.
func RevokeToken(ctx context.Context, client *redis.Client, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := client.Set(ctx, RevokedTokenPrefix+tokenHash, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether tokenHash was revoked and has not yet expired.
func IsTokenRevoked(ctx context.Context, client *redis.Client, tokenHash string) (bool, error) {
	n, err := client.Exists(ctx, RevokedTokenPrefix+tokenHash).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

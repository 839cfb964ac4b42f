package connectionRepo

import (
	"context"
	"errors"

	"circl/models"
)

var (
	// ErrConnectionNotFound is returned when removing a connection that does not exist.
	ErrConnectionNotFound = errors.New("connection not found")
	// ErrInvalidConnection is returned when a connection has no member id.
	ErrInvalidConnection = errors.New("connection requires a member id")
)

// ConnectionRepository defines methods for network connection data access.
type ConnectionRepository interface {
	// ListByOwner returns every connection owned by ownerID.
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Connection, error)
	// Add inserts a connection keyed by (owner, member), or refreshes its email if it
	// already exists. MemberID must be positive.
	Add(ctx context.Context, conn models.Connection) error
	// Remove deletes the connection between owner and member.
	Remove(ctx context.Context, ownerID, memberID int64) error
}

package network

import (
	"context"
	"errors"

	"circl/models"
)

// State tells callers how far a user's membership set has loaded.
type State string

const (
	// StateEmpty: no refresh has completed and none is running.
	StateEmpty State = "empty"
	// StateLoading: the first refresh is running; reads may miss members.
	StateLoading State = "loading"
	// StateReady: at least one refresh completed.
	StateReady State = "ready"
)

var (
	// ErrCacheStopped is returned by cache operations after its run loop exits.
	ErrCacheStopped = errors.New("network cache stopped")
	// ErrMemberNotFound is returned when removing a member the source does not hold.
	ErrMemberNotFound = errors.New("member not in network")
	// ErrInvalidMember is returned when a source cannot store a member as given.
	ErrInvalidMember = errors.New("invalid network member")
	// ErrUnknownFormat is returned when a network payload carries no member list.
	ErrUnknownFormat = errors.New("unrecognized network payload")
)

// Source loads the connections of one user.
type Source interface {
	Members(ctx context.Context, ownerID int64) ([]models.NetworkMember, error)
}

// Writer is implemented by sources that can persist a new connection.
type Writer interface {
	AddMember(ctx context.Context, ownerID int64, member models.NetworkMember) error
}

// Remover is implemented by sources that can delete a connection.
type Remover interface {
	RemoveMember(ctx context.Context, ownerID, memberID int64) error
}

package discovery

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownDomain is returned when no quiz is registered under a domain name.
	ErrUnknownDomain = errors.New("unknown quiz domain")
	// ErrBoardStopped is returned by board operations after its run loop exits.
	ErrBoardStopped = errors.New("result board stopped")
	// ErrServiceStopped is returned when a fetch is requested after Shutdown.
	ErrServiceStopped = errors.New("discovery service stopped")
	// ErrViewNotFound is returned when a view has never been claimed or published.
	ErrViewNotFound = errors.New("view not found")
)

// FailureKind classifies why a fetch degraded to an empty result.
type FailureKind string

const (
	FailureNone           FailureKind = ""
	FailureMalformedInput FailureKind = "malformed_input"
	FailureTransport      FailureKind = "transport"
	FailureStatus         FailureKind = "status"
	FailureDecode         FailureKind = "decode"
)

// FetchError carries the failure kind alongside the underlying cause.
type FetchError struct {
	Kind FailureKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func newFetchError(kind FailureKind, err error) *FetchError {
	return &FetchError{Kind: kind, Err: err}
}

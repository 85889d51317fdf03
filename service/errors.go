package service

import (
	"errors"
	"fmt"
)

// Precondition failures abort a run before any row is processed.
var (
	ErrDocumentUnreadable   = errors.New("document unreadable")
	ErrInvalidRoster        = errors.New("invalid roster")
	ErrInvalidReport        = errors.New("invalid report")
	ErrContainerUnavailable = errors.New("period container unavailable")
)

// Navigation and lookup errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrNotAContainer   = errors.New("item is not a container")
	ErrInvalidPageSize = errors.New("invalid page size")
)

// RemoteError wraps a failed remote store call with its retryability.
type RemoteError struct {
	Op        string
	Status    int
	Retryable bool
	Err       error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a remote failure worth retrying.
func IsTransient(err error) bool {
	var rerr *RemoteError
	return errors.As(err, &rerr) && rerr.Retryable
}

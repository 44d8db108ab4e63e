package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict: resource already exists")
	ErrInternal         = errors.New("internal server error")
	ErrRateLimited      = errors.New("too many requests")
	ErrDuplicateEntry   = errors.New("duplicate entry")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrNoProvider       = errors.New("no provider available")
	ErrAllocationSpent  = errors.New("campaign allocation exhausted")
	ErrTerminalState    = errors.New("record is in a terminal state")
)

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As unwraps into a typed error, mirroring errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// MessageOrDefault returns err.Error() or a fallback message if err is nil.
func MessageOrDefault(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}

package store

import (
	"errors"
	"fmt"
)

// Sentinel errors for store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound indicates the room does not exist or the id is not a valid room id.
	ErrNotFound = errors.New("room not found")

	// ErrUnavailable indicates the underlying storage failed. It is never swallowed.
	ErrUnavailable = errors.New("store unavailable")
)

// Unavailable wraps a backend fault so that errors.Is(err, ErrUnavailable) holds
// while keeping the original error in the chain.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// NotFound returns ErrNotFound annotated with the room id.
func NotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

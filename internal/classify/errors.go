package classify

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/raphaelgruber/chatroom-go/internal/llm"
)

var (
	// ErrEmptyText is returned before any provider call when the text is blank.
	ErrEmptyText = errors.New("classify: empty text")

	// ErrDisabled indicates no classification provider is configured.
	ErrDisabled = errors.New("classify: no provider configured")
)

// defaultErrorMessage is used when a failed response carries no message.
const defaultErrorMessage = "Something went wrong"

// Error is a provider failure. Status is the HTTP status when one was received.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("classification failed (status %d): %s", e.Status, msg)
	}
	return "classification failed: " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err points at credentials, billing or quota rather than
// a transient fault. Such failures will not fix themselves.
func IsFatal(err error) bool {
	if errors.Is(err, llm.ErrFatalAPI) {
		return true
	}
	var ce *Error
	if errors.As(err, &ce) {
		switch ce.Status {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusPaymentRequired, http.StatusTooManyRequests:
			return true
		}
	}
	return false
}

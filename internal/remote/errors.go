package remote

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	// KindUnavailable: the request never got an answer.
	KindUnavailable = Kind("unavailable")
	// KindRejected: the service answered with an error or an unusable body.
	KindRejected = Kind("rejected")
	// KindUnauthorized: no session, or the service refused the token.
	KindUnauthorized = Kind("unauthorized")
)

// Error is every failure of the score service client. Message is meant for
// the player.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the player-facing message of err.
func Message(err error) string {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsKind reports whether err is a client Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Kind == kind
}

func statusMessage(op string, status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request data"
	case http.StatusUnauthorized:
		return "unauthorized, please log in again"
	case http.StatusForbidden:
		return "not allowed"
	case http.StatusNotFound:
		return "not found"
	case http.StatusInternalServerError:
		return "internal server error"
	default:
		return fmt.Sprintf("%s failed (%d)", op, status)
	}
}

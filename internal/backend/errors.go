package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches any *Error with a 404 status.
	ErrNotFound = errors.New("backend: not found")
	// ErrUnauthorized matches any *Error with a 401 status.
	ErrUnauthorized = errors.New("backend: unauthorized")
)

// Error is the remote error shape passed through unchanged.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
}

// Is lets errors.Is match status-derived sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// Message extracts the user-facing text from err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return err.Error()
}

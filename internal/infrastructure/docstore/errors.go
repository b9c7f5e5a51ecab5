package docstore

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for the two remote outcomes the migration engine
// recovers from locally. Everything else propagates.
var (
	// ErrConflict marks a create call that hit an already-existing resource
	ErrConflict = errors.New("resource already exists")

	// ErrNotFound marks a call that targeted a missing resource
	ErrNotFound = errors.New("resource not found")
)

// APIError is a non-2xx response from the document store
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Error returns a string representation of the API error
func (e *APIError) Error() string {
	return fmt.Sprintf("document store: %s (status %d)", e.Message, e.StatusCode)
}

// Unwrap maps the remote failure onto the engine's sentinel errors.
// A 409, or any message mentioning "already exists", is a conflict;
// a 404 is not-found.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusConflict:
		return ErrConflict
	case strings.Contains(strings.ToLower(e.Message), "already exists"):
		return ErrConflict
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// IsConflict reports whether err is an already-exists outcome
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNotFound reports whether err is a missing-resource outcome
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

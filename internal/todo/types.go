// Package todo holds the list and todo records kept in a browser session and
// the operations the web handlers apply to them.
package todo

import (
	"errors"
	"time"
)

const (
	MinNameLength = 1
	MaxNameLength = 100
)

// ErrNotFound is returned when a list or todo id does not resolve.
var ErrNotFound = errors.New("not found")

type List struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Todos     []Todo    `json:"todos"`
	CreatedAt time.Time `json:"created_at"`
}

type Todo struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

type ErrorKind string

const (
	InvalidLength ErrorKind = "invalid_length"
	DuplicateName ErrorKind = "duplicate_name"
)

// ValidationError is the only failure a name check produces. Message is
// user-facing and rendered next to the form that was submitted.
type ValidationError struct {
	Kind    ErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a *ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Package session keeps per-browser todo state behind a signed cookie and a
// pluggable Store.
package session

import (
	"time"

	"github.com/victorarias/todos/internal/todo"
)

// Data is what gets serialized into the store for one browser session.
type Data struct {
	Lists  []todo.List `json:"lists"`
	Notice Notice      `json:"notice"`
}

// Notice is a one-shot message for the next rendered page.
type Notice struct {
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (n Notice) Empty() bool {
	return n.Success == "" && n.Error == ""
}

// Session is owned by a single request for its duration.
type Session struct {
	token     string
	data      Data
	persisted bool
	updatedAt time.Time
	dirty     bool
}

func newSession(token string) *Session {
	return &Session{token: token, data: Data{Lists: []todo.List{}}}
}

func (s *Session) Token() string {
	return s.token
}

// Lists returns the session's lists. Elements may be mutated in place, but
// callers must follow up with SetLists so the change is saved.
func (s *Session) Lists() []todo.List {
	return s.data.Lists
}

func (s *Session) SetLists(lists []todo.List) {
	if lists == nil {
		lists = []todo.List{}
	}
	s.data.Lists = lists
	s.dirty = true
}

func (s *Session) SetSuccess(msg string) {
	s.data.Notice = Notice{Success: msg}
	s.dirty = true
}

func (s *Session) SetError(msg string) {
	s.data.Notice = Notice{Error: msg}
	s.dirty = true
}

// TakeNotice returns the pending notice and clears it.
func (s *Session) TakeNotice() Notice {
	n := s.data.Notice
	if !n.Empty() {
		s.data.Notice = Notice{}
		s.dirty = true
	}
	return n
}

func (s *Session) Modified() bool {
	return s.dirty
}

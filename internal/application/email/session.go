package email

import (
	"sync"

	"mailsort/internal/domain/email"
)

// SessionState is a point-in-time copy of what a collaborator renders.
type SessionState struct {
	Busy     bool
	Category email.Category
	Known    bool
	Error    string
}

// Session holds the busy/result/error state of one UI session.
// It is safe to read with Snapshot while a classification runs.
type Session struct {
	mu       sync.Mutex
	state    SessionState
	onChange func(busy bool)
}

// NewSession creates an idle session. onBusyChange, if non-nil, is called after every
// busy transition, outside the session lock.
func NewSession(onBusyChange func(busy bool)) *Session {
	return &Session{onChange: onBusyChange}
}

func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) begin() {
	s.mu.Lock()
	s.state = SessionState{Busy: true}
	s.mu.Unlock()
	s.notify(true)
}

func (s *Session) finish() {
	s.mu.Lock()
	s.state.Busy = false
	s.mu.Unlock()
	s.notify(false)
}

func (s *Session) succeed(category email.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Category = category
	s.state.Known = category.IsKnown()
	s.state.Error = ""
}

func (s *Session) fail(err *email.ClassificationError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Category = ""
	s.state.Known = false
	s.state.Error = err.Message
}

func (s *Session) notify(busy bool) {
	if s.onChange != nil {
		s.onChange(busy)
	}
}

package model

import (
	"slices"
	"strings"
	"time"
)

// Session is the state of one assistant surface. Transitions return a new
// value and never write through to the receiver's turn slice.
type Session struct {
	ID                string    `json:"id"`
	Turns             []Turn    `json:"turns"`
	Pending           bool      `json:"pending"`
	AutoStartConsumed bool      `json:"auto_start_consumed"`
	Open              bool      `json:"open"`
	Epoch             int       `json:"epoch"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func NewSession(id string, now time.Time) Session {
	return Session{
		ID:        id,
		Turns:     []Turn{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy that shares no backing array with s.
func (s Session) Clone() Session {
	s.Turns = slices.Clone(s.Turns)
	if s.Turns == nil {
		s.Turns = []Turn{}
	}
	return s
}

// WithOpen marks the surface open. The bool reports whether this was a
// closed-to-open transition.
func (s Session) WithOpen(now time.Time) (Session, bool) {
	if s.Open {
		return s, false
	}
	next := s.Clone()
	next.Open = true
	next.UpdatedAt = now
	return next, true
}

// WithClosed resets the surface: turns cleared, seed re-armed, pending
// dropped. Epoch moves so completions started before the close can be told
// apart from later ones.
func (s Session) WithClosed(now time.Time) Session {
	return Session{
		ID:        s.ID,
		Turns:     []Turn{},
		Epoch:     s.Epoch + 1,
		CreatedAt: s.CreatedAt,
		UpdatedAt: now,
	}
}

// WithSeedConsumed records that the initial question has been auto-sent.
func (s Session) WithSeedConsumed() Session {
	next := s.Clone()
	next.AutoStartConsumed = true
	return next
}

// BeginSubmit appends the trimmed question as a user turn and marks the
// session pending. It returns the history to forward; ok is false (and the
// session unchanged) for blank input or while a request is in flight.
func (s Session) BeginSubmit(question string, now time.Time) (next Session, history []Turn, ok bool) {
	content := strings.TrimSpace(question)
	if content == "" || s.Pending {
		return s, nil, false
	}

	next = s.Clone()
	next.Turns = append(next.Turns, Turn{Role: RoleUser, Content: content})
	next.Pending = true
	next.UpdatedAt = now

	return next, slices.Clone(next.Turns), true
}

// FinishSubmit appends the (sanitized) assistant reply and clears pending.
func (s Session) FinishSubmit(content string, now time.Time) Session {
	next := s.Clone()
	next.Turns = append(next.Turns, Turn{Role: RoleAssistant, Content: content})
	next.Pending = false
	next.UpdatedAt = now
	return next
}

// AbortSubmit clears pending without touching turns.
func (s Session) AbortSubmit(now time.Time) Session {
	next := s.Clone()
	next.Pending = false
	next.UpdatedAt = now
	return next
}

package service

import (
	"context"
	"strings"
	"time"

	"startupsaathi-backend/internal/model"
)

// Outcome describes what a submit or open did to the session.
type Outcome string

const (
	// OutcomeIdle: nothing was sent (plain open, re-open, close).
	OutcomeIdle Outcome = "idle"
	// OutcomeAnswered: user and assistant turns were appended.
	OutcomeAnswered Outcome = "answered"
	// OutcomeEmptyInput: blank question, session unchanged.
	OutcomeEmptyInput Outcome = "empty_input"
	// OutcomeInFlight: a request was already pending, session unchanged.
	OutcomeInFlight Outcome = "in_flight"
	// OutcomeFailed: the user turn stays, no assistant turn, Err is set.
	OutcomeFailed Outcome = "failed"
	// OutcomeDiscarded: the session was closed while the request ran.
	OutcomeDiscarded Outcome = "discarded"
)

// Result is the session after an operation. Err is only set for
// OutcomeFailed and is meant for a user-visible notification.
type Result struct {
	Session model.Session
	Outcome Outcome
	Err     error
}

// Assistant is the conversation pipeline over a session value. It holds no
// session state of its own.
type Assistant struct {
	completer model.Completer
	now       func() time.Time
}

func NewAssistant(completer model.Completer) *Assistant {
	return &Assistant{
		completer: completer,
		now:       time.Now,
	}
}

// Submit sends question with the session's history and appends the
// sanitized reply.
func (a *Assistant) Submit(ctx context.Context, session model.Session, question string) Result {
	next, history, ok := session.BeginSubmit(question, a.now())
	if !ok {
		return Result{Session: session, Outcome: rejection(question)}
	}
	return a.settle(next, a.reply(ctx, history))
}

// Open marks the surface open. On a closed-to-open transition with an
// unconsumed, non-blank seed it submits the seed once.
func (a *Assistant) Open(ctx context.Context, session model.Session, initialQuestion string) Result {
	next, autoStart := openWithSeed(session, initialQuestion, a.now())
	if !autoStart {
		return Result{Session: next, Outcome: OutcomeIdle}
	}
	return a.Submit(ctx, next, initialQuestion)
}

// Close resets the session for the next open.
func (a *Assistant) Close(session model.Session) model.Session {
	return session.WithClosed(a.now())
}

type completion struct {
	text string
	err  error
}

func (a *Assistant) reply(ctx context.Context, history []model.Turn) completion {
	raw, err := a.completer.Complete(ctx, history)
	if err != nil {
		return completion{err: err}
	}
	return completion{text: Sanitize(raw)}
}

func (a *Assistant) settle(pending model.Session, c completion) Result {
	if c.err != nil {
		return Result{Session: pending.AbortSubmit(a.now()), Outcome: OutcomeFailed, Err: c.err}
	}
	return Result{Session: pending.FinishSubmit(c.text, a.now()), Outcome: OutcomeAnswered}
}

func openWithSeed(session model.Session, initialQuestion string, now time.Time) (model.Session, bool) {
	next, opened := session.WithOpen(now)
	if !opened || next.AutoStartConsumed || strings.TrimSpace(initialQuestion) == "" {
		return next, false
	}
	return next.WithSeedConsumed(), true
}

func rejection(question string) Outcome {
	if strings.TrimSpace(question) == "" {
		return OutcomeEmptyInput
	}
	return OutcomeInFlight
}

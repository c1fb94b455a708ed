package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"startupsaathi-backend/internal/config"
	"startupsaathi-backend/internal/model"
	"startupsaathi-backend/internal/storage"
	"startupsaathi-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrSessionClosed = errors.New("session is closed")
	ErrEmptyPrompt   = errors.New("missing prompt")
	ErrInvalidRole   = errors.New("invalid message role")
)

// AssistantService keeps open assistant surfaces by ID. Read-modify-write of
// a session happens under mu; the lock is not held across completion calls,
// the session's Pending flag guards those.
type AssistantService struct {
	assistant *Assistant
	storage   storage.SessionStore
	config    *config.SessionConfig
	mu        sync.Mutex
}

func NewAssistantService(completer model.Completer, store storage.SessionStore, cfg *config.SessionConfig) *AssistantService {
	return &AssistantService{
		assistant: NewAssistant(completer),
		storage:   store,
		config:    cfg,
	}
}

func sessionLog(sessionID string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{"session_id": sessionID})
}

// OpenSession creates a session and opens it, auto-sending initialQuestion
// when given.
func (s *AssistantService) OpenSession(ctx context.Context, initialQuestion string) (Result, error) {
	session := model.NewSession(uuid.NewString(), s.assistant.now())

	s.mu.Lock()
	err := s.storage.Create(session)
	s.mu.Unlock()
	if err != nil {
		return Result{}, fmt.Errorf("failed to create session: %w", err)
	}

	sessionLog(session.ID).Info("assistant session created")
	return s.Open(ctx, session.ID, initialQuestion)
}

// Open opens an existing session. Opening one that is already open is a
// re-render and never auto-sends.
func (s *AssistantService) Open(ctx context.Context, sessionID, initialQuestion string) (Result, error) {
	s.mu.Lock()
	session, err := s.storage.Get(sessionID)
	if err != nil {
		s.mu.Unlock()
		return Result{}, err
	}

	now := s.assistant.now()
	next, autoStart := openWithSeed(session, initialQuestion, now)
	if !autoStart {
		err = s.storage.Update(next)
		s.mu.Unlock()
		if err != nil {
			return Result{}, err
		}
		return Result{Session: next, Outcome: OutcomeIdle}, nil
	}

	pending, history, ok := next.BeginSubmit(initialQuestion, now)
	if !ok {
		// seed was non-blank and a freshly opened session is never pending
		err = s.storage.Update(next)
		s.mu.Unlock()
		return Result{Session: next, Outcome: rejection(initialQuestion)}, err
	}
	err = s.storage.Update(pending)
	s.mu.Unlock()
	if err != nil {
		return Result{}, err
	}

	sessionLog(sessionID).Info("auto-sending initial question")
	return s.finish(ctx, pending, history)
}

// Submit appends question and waits for the assistant reply. Blank input and
// duplicates while a request is pending leave the session unchanged.
func (s *AssistantService) Submit(ctx context.Context, sessionID, question string) (Result, error) {
	s.mu.Lock()
	session, err := s.storage.Get(sessionID)
	if err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	if !session.Open {
		s.mu.Unlock()
		return Result{Session: session}, ErrSessionClosed
	}

	pending, history, ok := session.BeginSubmit(question, s.assistant.now())
	if !ok {
		s.mu.Unlock()
		outcome := rejection(question)
		if outcome == OutcomeInFlight {
			sessionLog(sessionID).Debug("submit ignored, request in flight")
		}
		return Result{Session: session, Outcome: outcome}, nil
	}
	err = s.storage.Update(pending)
	s.mu.Unlock()
	if err != nil {
		return Result{}, err
	}

	return s.finish(ctx, pending, history)
}

// finish runs the completion outside the lock and applies it, unless the
// session was closed or destroyed in the meantime.
func (s *AssistantService) finish(ctx context.Context, pending model.Session, history []model.Turn) (Result, error) {
	log := sessionLog(pending.ID)
	started := time.Now()
	c := s.assistant.reply(ctx, history)

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.storage.Get(pending.ID)
	if err != nil {
		log.Warn("session destroyed before completion arrived")
		return Result{}, err
	}
	if current.Epoch != pending.Epoch {
		log.Info("session closed while request was in flight, dropping completion")
		return Result{Session: current, Outcome: OutcomeDiscarded}, nil
	}

	result := s.assistant.settle(current, c)
	if err := s.storage.Update(result.Session); err != nil {
		return Result{}, err
	}

	if result.Err != nil {
		log.WithField("error", result.Err).Warn("completion failed")
	} else {
		log.WithField("duration", time.Since(started)).Infof("answered, %d turns", len(result.Session.Turns))
	}
	return result, nil
}

// Close resets the session; an in-flight completion is left to finish and
// then dropped.
func (s *AssistantService) Close(sessionID string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.storage.Get(sessionID)
	if err != nil {
		return model.Session{}, err
	}

	closed := s.assistant.Close(session)
	if err := s.storage.Update(closed); err != nil {
		return model.Session{}, err
	}
	return closed, nil
}

// Destroy removes the session entirely (surface unmounted).
func (s *AssistantService) Destroy(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(sessionID); err != nil {
		return err
	}
	sessionLog(sessionID).Info("assistant session destroyed")
	return nil
}

func (s *AssistantService) Get(sessionID string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storage.Get(sessionID)
}

func (s *AssistantService) List() ([]model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.storage.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Ask is the stateless completion: turns (or a bare prompt as one user turn)
// in, sanitized text out.
func (s *AssistantService) Ask(ctx context.Context, prompt string, turns []model.Turn) (string, error) {
	history, err := askHistory(prompt, turns)
	if err != nil {
		return "", err
	}

	c := s.assistant.reply(ctx, history)
	if c.err != nil {
		return "", c.err
	}
	return c.text, nil
}

func askHistory(prompt string, turns []model.Turn) ([]model.Turn, error) {
	if len(turns) == 0 {
		prompt = strings.TrimSpace(prompt)
		if prompt == "" {
			return nil, ErrEmptyPrompt
		}
		return []model.Turn{{Role: model.RoleUser, Content: prompt}}, nil
	}

	hasQuestion := false
	history := make([]model.Turn, 0, len(turns))
	for _, t := range turns {
		if !t.Role.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRole, t.Role)
		}
		if t.Role == model.RoleUser && strings.TrimSpace(t.Content) != "" {
			hasQuestion = true
		}
		history = append(history, t)
	}
	if !hasQuestion {
		return nil, ErrEmptyPrompt
	}
	return history, nil
}

// Run reaps idle sessions every CleanupInterval until ctx is done.
func (s *AssistantService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reapExpired(time.Now())
		}
	}
}

// reapExpired deletes sessions idle longer than TTL. Pending sessions are
// kept; their completion will touch UpdatedAt.
func (s *AssistantService) reapExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.storage.List()
	if err != nil {
		logger.Errorf("Failed to list sessions for cleanup: %v", err)
		return 0
	}

	cutoff := now.Add(-s.config.TTL)
	reaped := 0
	for _, session := range sessions {
		if session.Pending || !session.UpdatedAt.Before(cutoff) {
			continue
		}
		if err := s.storage.Delete(session.ID); err != nil {
			logger.Errorf("Failed to delete expired session %s: %v", session.ID, err)
			continue
		}
		reaped++
		sessionLog(session.ID).Info("cleaned up expired session")
	}
	return reaped
}

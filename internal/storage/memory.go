package storage

import (
	"sort"
	"sync"

	"startupsaathi-backend/internal/model"
)

type MemoryStorage struct {
	sessions map[string]model.Session
	mu       sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[string]model.Session),
	}
}

func (m *MemoryStorage) Create(session model.Session) error {
	if session.ID == "" {
		return ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; exists {
		return ErrSessionExists
	}

	m.sessions[session.ID] = session.Clone()
	return nil
}

func (m *MemoryStorage) Get(sessionID string) (model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return model.Session{}, ErrSessionNotFound
	}

	return session.Clone(), nil
}

func (m *MemoryStorage) Update(session model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; !exists {
		return ErrSessionNotFound
	}

	m.sessions[session.ID] = session.Clone()
	return nil
}

func (m *MemoryStorage) Delete(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[sessionID]; !exists {
		return ErrSessionNotFound
	}

	delete(m.sessions, sessionID)
	return nil
}

// List returns all sessions, most recently updated first.
func (m *MemoryStorage) List() ([]model.Session, error) {
	m.mu.RLock()
	sessions := make([]model.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	return sessions, nil
}

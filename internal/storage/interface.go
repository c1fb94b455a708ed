package storage

import (
	"startupsaathi-backend/internal/model"
)

// SessionStore holds live assistant sessions. Implementations hand out
// copies; callers write changes back with Update.
type SessionStore interface {
	Create(session model.Session) error
	Get(sessionID string) (model.Session, error)
	Update(session model.Session) error
	Delete(sessionID string) error
	List() ([]model.Session, error)
}

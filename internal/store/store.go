// Package store persists OAuth session records behind a small contract so the
// backing engine (relational table, in-memory map) stays interchangeable.
package store

import (
	"errors"

	"github.com/tickettractor/backend/internal/models"
)

// ErrNotFound is returned when no session exists for the given id.
var ErrNotFound = errors.New("session not found")

// SessionStore is the persistence contract for OAuth sessions. All methods
// are safe for concurrent use; Update performs a single-record
// read-modify-write atomically so concurrent token refreshes cannot
// interleave.
type SessionStore interface {
	Create(session *models.Session) error
	Get(sessionID string) (*models.Session, error)
	// Update loads the session, applies fn, and persists the result in one
	// atomic step. fn returning an error aborts without writing.
	Update(sessionID string, fn func(*models.Session) error) error
	Delete(sessionID string) error
	// DeleteCreatedBefore removes sessions created before cutoff (unix
	// seconds) and returns the number deleted.
	DeleteCreatedBefore(cutoff int64) (int64, error)
	Close() error
}

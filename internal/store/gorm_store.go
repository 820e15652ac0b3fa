package store

import (
	"errors"
	"sync"

	"github.com/tickettractor/backend/internal/models"
	"gorm.io/gorm"
)

// GormStore persists sessions in the sessions table. Update serializes
// read-modify-write cycles behind a store-level mutex plus a transaction, so
// concurrent refreshes of the same session cannot interleave. A row lock
// (SELECT FOR UPDATE) is not an option with the sqlite driver.
type GormStore struct {
	mu sync.Mutex
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(session *models.Session) error {
	return s.db.Create(session).Error
}

func (s *GormStore) Get(sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.db.Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *GormStore) Update(sessionID string, fn func(*models.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Transaction(func(tx *gorm.DB) error {
		var session models.Session
		err := tx.Where("session_id = ?", sessionID).
			First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := fn(&session); err != nil {
			return err
		}
		return tx.Save(&session).Error
	})
}

func (s *GormStore) Delete(sessionID string) error {
	return s.db.Where("session_id = ?", sessionID).Delete(&models.Session{}).Error
}

func (s *GormStore) DeleteCreatedBefore(cutoff int64) (int64, error) {
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

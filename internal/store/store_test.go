package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tickettractor/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "sessions.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Session{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewGormStore(db)
}

func testSession(id string, createdAt int64) *models.Session {
	return &models.Session{
		SessionID:    id,
		AccessToken:  "access-" + id,
		RefreshToken: "refresh-" + id,
		CloudID:      "cloud-1",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		CreatedAt:    createdAt,
		AccountID:    "acc-1",
		DisplayName:  "Jane Doe",
		Email:        "jane@example.com",
	}
}

func runStoreSuite(t *testing.T, s SessionStore) {
	now := time.Now().Unix()

	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, expected ErrNotFound", err)
	}

	if err := s.Create(testSession("s1", now)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := s.Get("s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.AccessToken != "access-s1" || got.CloudID != "cloud-1" {
		t.Errorf("Get() = %+v", got)
	}

	// Mutating the returned copy must not touch the stored record.
	got.AccessToken = "mutated"
	again, err := s.Get("s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.AccessToken != "access-s1" {
		t.Errorf("stored session mutated through Get result")
	}

	if err := s.Update("s1", func(session *models.Session) error {
		session.AccessToken = "rotated"
		session.ExpiresAt = now + 7200
		return nil
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	updated, err := s.Get("s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if updated.AccessToken != "rotated" || updated.ExpiresAt != now+7200 {
		t.Errorf("update not persisted: %+v", updated)
	}

	// fn returning an error aborts without writing.
	updateErr := errors.New("refresh failed")
	if err := s.Update("s1", func(session *models.Session) error {
		session.AccessToken = "should-not-stick"
		return updateErr
	}); !errors.Is(err, updateErr) {
		t.Errorf("Update() error = %v, expected refresh failed", err)
	}
	aborted, _ := s.Get("s1")
	if aborted.AccessToken != "rotated" {
		t.Errorf("aborted update wrote anyway: %q", aborted.AccessToken)
	}

	if err := s.Update("missing", func(*models.Session) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, expected ErrNotFound", err)
	}

	if err := s.Delete("s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get("s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, expected ErrNotFound", err)
	}

	// Deleting an absent session is a no-op.
	if err := s.Delete("s1"); err != nil {
		t.Errorf("Delete() on absent session error = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemoryStore())
}

func TestGormStore(t *testing.T) {
	runStoreSuite(t, newTestGormStore(t))
}

func TestDeleteCreatedBefore(t *testing.T) {
	now := time.Now().Unix()
	for name, s := range map[string]SessionStore{
		"memory": NewMemoryStore(),
		"gorm":   newTestGormStore(t),
	} {
		t.Run(name, func(t *testing.T) {
			s.Create(testSession("old-1", now-7200))
			s.Create(testSession("old-2", now-3600))
			s.Create(testSession("fresh", now))

			deleted, err := s.DeleteCreatedBefore(now - 60)
			if err != nil {
				t.Fatalf("DeleteCreatedBefore() error = %v", err)
			}
			if deleted != 2 {
				t.Errorf("deleted = %d, expected 2", deleted)
			}
			if _, err := s.Get("fresh"); err != nil {
				t.Errorf("fresh session removed: %v", err)
			}
			if _, err := s.Get("old-1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("old session survived cleanup")
			}
		})
	}
}

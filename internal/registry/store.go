package registry

import (
	"github.com/vendo-org/vendo/internal/db"
	"github.com/vendo-org/vendo/internal/model"
)

// Store persists the session arena so a restart resumes countdowns from the
// last persisted remaining duration instead of resetting them.
type Store interface {
	Save(s *model.Session) error
	Delete(token string) error
	FlushRemaining(remaining map[string]int64) error
	ListActive() ([]model.Session, error)
}

// DBStore backs the registry with the gorm layer.
type DBStore struct{}

func (DBStore) Save(s *model.Session) error                       { return db.UpsertSession(s) }
func (DBStore) Delete(token string) error                         { return db.DeleteSession(token) }
func (DBStore) FlushRemaining(remaining map[string]int64) error   { return db.FlushRemaining(remaining) }
func (DBStore) ListActive() ([]model.Session, error)              { return db.ListActiveSessions() }

// NopStore keeps everything in memory only; used in tests.
type NopStore struct{}

func (NopStore) Save(*model.Session) error                 { return nil }
func (NopStore) Delete(string) error                       { return nil }
func (NopStore) FlushRemaining(map[string]int64) error     { return nil }
func (NopStore) ListActive() ([]model.Session, error)      { return nil, nil }

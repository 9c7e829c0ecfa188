package db

import (
	"github.com/pkg/errors"
	"github.com/vendo-org/vendo/internal/model"
	"gorm.io/gorm/clause"
)

func UpsertSession(s *model.Session) error {
	return errors.WithStack(db.Clauses(clause.OnConflict{UpdateAll: true}).Create(s).Error)
}

func DeleteSession(token string) error {
	return errors.WithStack(db.Where("token = ?", token).Delete(&model.Session{}).Error)
}

// ListActiveSessions returns every session with time left, used to rebuild
// the registry after a restart.
func ListActiveSessions() ([]model.Session, error) {
	var sessions []model.Session
	err := db.Where("remaining_seconds > ?", 0).Find(&sessions).Error
	return sessions, errors.WithStack(err)
}

// FlushRemaining persists the countdown for the given tokens in one
// transaction so a restart resumes from the last persisted values.
func FlushRemaining(remaining map[string]int64) error {
	if len(remaining) == 0 {
		return nil
	}
	tx := db.Begin()
	for token, secs := range remaining {
		if err := tx.Model(&model.Session{}).Where("token = ?", token).
			Update("remaining_seconds", secs).Error; err != nil {
			tx.Rollback()
			return errors.Wrap(err, "failed flush remaining seconds")
		}
	}
	return errors.WithStack(tx.Commit().Error)
}

package license

import (
	"github.com/pkg/errors"
	"github.com/vendo-org/vendo/internal/db"
	"github.com/vendo-org/vendo/internal/model"
	"gorm.io/gorm"
)

// Store persists the license record. Load returns (nil, nil) when no record
// exists yet (first boot).
type Store interface {
	Load() (*model.LicenseState, error)
	Save(st *model.LicenseState) error
}

type DBStore struct{}

func (DBStore) Load() (*model.LicenseState, error) {
	st, err := db.GetLicenseState()
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return st, err
}

func (DBStore) Save(st *model.LicenseState) error {
	return db.SaveLicenseState(st)
}

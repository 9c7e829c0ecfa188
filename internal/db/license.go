package db

import (
	"github.com/pkg/errors"
	"github.com/vendo-org/vendo/internal/model"
	"gorm.io/gorm/clause"
)

func GetLicenseState() (*model.LicenseState, error) {
	var st model.LicenseState
	if err := db.First(&st).Error; err != nil {
		return nil, errors.Wrap(err, "failed find license state")
	}
	return &st, nil
}

func SaveLicenseState(st *model.LicenseState) error {
	return errors.WithStack(db.Clauses(clause.OnConflict{UpdateAll: true}).Create(st).Error)
}

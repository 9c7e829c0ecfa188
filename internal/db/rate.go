package db

import (
	"github.com/pkg/errors"
	"github.com/vendo-org/vendo/internal/model"
)

func CreateRate(r *model.Rate) error {
	return errors.WithStack(db.Create(r).Error)
}

func GetRate(id uint) (*model.Rate, error) {
	var r model.Rate
	if err := db.First(&r, id).Error; err != nil {
		return nil, errors.Wrap(err, "failed find rate")
	}
	return &r, nil
}

func DeleteRate(id uint) error {
	return errors.WithStack(db.Delete(&model.Rate{}, id).Error)
}

func ListRatesByDevice(deviceID string) ([]model.Rate, error) {
	var rates []model.Rate
	err := db.Where("device_id = ?", deviceID).Find(&rates).Error
	return rates, errors.WithStack(err)
}

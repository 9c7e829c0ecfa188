package db

import (
	"github.com/pkg/errors"
	"github.com/vendo-org/vendo/internal/model"
	"gorm.io/gorm/clause"
)

func GetDevice(id string) (*model.Device, error) {
	d := model.Device{ID: id}
	if err := db.Where(&d).First(&d).Error; err != nil {
		return nil, errors.Wrap(err, "failed find device")
	}
	return &d, nil
}

func UpsertDevice(d *model.Device) error {
	return errors.WithStack(db.Clauses(clause.OnConflict{UpdateAll: true}).Create(d).Error)
}

func TouchDevice(id string, lastSeen int64) error {
	return errors.WithStack(db.Clauses(clause.OnConflict{
		DoUpdates: clause.AssignmentColumns([]string{"last_seen", "status"}),
	}).Create(&model.Device{ID: id, LastSeen: lastSeen, Status: model.DeviceOnline}).Error)
}

func ListDevices() ([]model.Device, error) {
	var devices []model.Device
	err := db.Find(&devices).Error
	return devices, errors.WithStack(err)
}

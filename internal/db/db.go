package db

import (
	"github.com/vendo-org/vendo/internal/model"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var db *gorm.DB

func Init(d *gorm.DB) {
	db = d
	err := AutoMigrate(
		new(model.Session),
		new(model.Rate),
		new(model.Device),
		new(model.Sale),
		new(model.LicenseState),
	)
	if err != nil {
		log.Fatalf("failed migrate database: %s", err.Error())
	}
}

func AutoMigrate(dst ...interface{}) error {
	return db.AutoMigrate(dst...)
}

func Close() {
	log.Info("closing db")
	sqlDB, err := db.DB()
	if err != nil {
		log.Errorf("failed to get db: %s", err.Error())
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Errorf("failed to close db: %s", err.Error())
	}
}

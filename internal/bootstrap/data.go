package bootstrap

import (
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/vendo-org/vendo/internal/conf"
	"github.com/vendo-org/vendo/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB() {
	dbFile := conf.Conf.Database.DBFile
	if err := os.MkdirAll(filepath.Dir(dbFile), 0o755); err != nil {
		log.Fatalf("failed create data dir: %s", err.Error())
	}
	gormLogger := logger.Default.LogMode(logger.Silent)
	d, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{Logger: gormLogger})
	if err != nil {
		log.Fatalf("failed open database: %s", err.Error())
	}
	db.Init(d)
	log.Infof("database ready at %s", dbFile)
}

package infra

import (
	"github.com/HavvokLab/autarco/model"
	"github.com/HavvokLab/autarco/setting"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewGormDB opens the sqlite credential store and migrates its tables.
func NewGormDB(paths ...string) (*gorm.DB, error) {
	path := setting.DatabasePath
	if len(paths) > 0 && paths[0] != "" {
		path = paths[0]
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&model.AutarcoCredential{}); err != nil {
		return nil, err
	}

	return db, nil
}

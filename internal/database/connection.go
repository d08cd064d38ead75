package database

import (
	"os"
	"path/filepath"

	"github.com/proctrack/proctrack/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultDBName = "proctrack.db"
	defaultDBDir  = ".config/proctrack"
)

type DB struct {
	*gorm.DB
}

func GetDefaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", wrap(err, "failed to get home directory")
	}

	dbDir := filepath.Join(homeDir, defaultDBDir)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", wrap(err, "failed to create database directory")
	}

	return filepath.Join(dbDir, defaultDBName), nil
}

func Connect(dbPath string) (*DB, error) {
	if dbPath == "" {
		var err error
		dbPath, err = GetDefaultDBPath()
		if err != nil {
			return nil, err
		}
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, wrap(err, "failed to create database directory")
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, wrap(err, "failed to open database")
	}

	return &DB{db}, nil
}

func (db *DB) Initialize() error {
	err := db.AutoMigrate(&models.Process{}, &models.RunningTime{}, &models.ErrorLog{})
	if err != nil {
		return wrap(err, "failed to initialize database schema")
	}

	return nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return wrap(err, "failed to get underlying sql.DB")
	}
	return sqlDB.Close()
}

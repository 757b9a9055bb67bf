// Package db contains things related to the relational store
package db

import (
	"fmt"
	"privportal/privacy-api/config"
	"privportal/privacy-api/model"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func New(cfg *config.Config) (*gorm.DB, error) {
	var dial gorm.Dialector

	switch cfg.DB.Driver {
	case "postgres":
		dial = postgres.Open(cfg.DB.DSN)
	default:
		// SQLite won't enforce the cascade deletes unless foreign keys are
		// switched on for every pooled connection
		dsn := cfg.DB.DSN
		if !strings.Contains(dsn, "_foreign_keys") {
			if strings.Contains(dsn, "?") {
				dsn += "&_foreign_keys=on"
			} else {
				dsn += "?_foreign_keys=on"
			}
		}

		dial = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dial)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %v database, %w", cfg.DB.Driver, err)
	}

	err = db.AutoMigrate(model.User{}, model.UserPreferences{}, model.UserCards{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}

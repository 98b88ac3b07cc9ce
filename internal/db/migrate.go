package db

import (
	"updown/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Asset{},
		&models.Prediction{},
		&models.Profile{},
		&models.LeaderboardEntry{},
		&models.ScoreHistory{},
		&models.RolloverState{},
		&models.Badge{},
	)
}

package models

import "time"

// Profile carries the per-user running totals. The only writers are the
// evaluator (per settled prediction) and the monthly rollover (reset);
// both mutate it through single conditional updates.
type Profile struct {
	UserID string `gorm:"primaryKey;type:varchar(64)"`

	MonthlyScore       int `gorm:"not null;default:0;index"`
	MonthlyPredictions int `gorm:"not null;default:0"`
	MonthlyCorrect     int `gorm:"not null;default:0"`

	LifetimeScore       int `gorm:"not null;default:0"`
	LifetimePredictions int `gorm:"not null;default:0"`

	LastMonthRank *int `gorm:""`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Profile) TableName() string {
	return "profiles"
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// Badge is an immutable award record. Period is empty for lifetime
// milestone badges and "YYYY-MM" for rank badges.
type Badge struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID string `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_badges_user_type_period"`
	Type   string `gorm:"type:varchar(40);not null;uniqueIndex:idx_badges_user_type_period"`
	Period string `gorm:"type:varchar(7);not null;default:'';uniqueIndex:idx_badges_user_type_period"`

	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	AwardedAt time.Time      `gorm:"type:timestamptz;autoCreateTime"`
}

func (Badge) TableName() string {
	return "badges"
}

package models

import "time"

const (
	AssetClassCrypto = "crypto"
	AssetClassStock  = "stock"
	AssetClassForex  = "forex"
)

// Asset is a bettable instrument. Rows are created by seed/admin tooling
// and treated as read-only by the engine.
type Asset struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Symbol    string    `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Class     string    `gorm:"type:varchar(10);not null;index"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Asset) TableName() string {
	return "assets"
}

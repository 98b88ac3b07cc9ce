package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DirectionUp   = "up"
	DirectionDown = "down"

	// StatusEvaluating is the transient claim taken by the evaluator so
	// two concurrent runs cannot settle the same prediction twice.
	StatusActive     = "active"
	StatusEvaluating = "evaluating"
	StatusEvaluated  = "evaluated"

	ResultPending   = "pending"
	ResultCorrect   = "correct"
	ResultIncorrect = "incorrect"
)

// Prediction is one directional bet inside a slot. Created once, settled
// terminally by the evaluator, never deleted. The composite unique index
// enforces at most one open bet per user per asset per slot.
type Prediction struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	UserID        string `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_predictions_user_slot"`
	AssetSymbol   string `gorm:"type:varchar(20);not null;index;uniqueIndex:idx_predictions_user_slot"`
	Direction     string `gorm:"type:varchar(4);not null"`
	DurationClass string `gorm:"type:varchar(10);not null;uniqueIndex:idx_predictions_user_slot"`
	SlotIndex     int    `gorm:"not null;uniqueIndex:idx_predictions_user_slot"`

	SlotStart time.Time `gorm:"type:timestamptz;not null;index;uniqueIndex:idx_predictions_user_slot"`
	SlotEnd   time.Time `gorm:"type:timestamptz;not null"`
	ExpiresAt time.Time `gorm:"type:timestamptz;not null;index"`

	Status        string           `gorm:"type:varchar(10);not null;default:active;index"`
	Result        string           `gorm:"type:varchar(10);not null;default:pending"`
	PointsAwarded *int             `gorm:""`
	PriceAtStart  decimal.Decimal  `gorm:"type:numeric(30,10);not null"`
	PriceAtEnd    *decimal.Decimal `gorm:"type:numeric(30,10)"`

	EvaluatedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;autoCreateTime"`
}

func (Prediction) TableName() string {
	return "predictions"
}

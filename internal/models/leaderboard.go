package models

import "time"

// LeaderboardEntry is one immutable archived row per ranked user per month.
// Period is "YYYY-MM" in the reference timezone.
type LeaderboardEntry struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	Period string `gorm:"type:varchar(7);not null;index;uniqueIndex:idx_leaderboard_period_user"`
	UserID string `gorm:"type:varchar(64);not null;uniqueIndex:idx_leaderboard_period_user"`

	Rank        int `gorm:"not null"`
	Score       int `gorm:"not null"`
	Predictions int `gorm:"not null"`
	Correct     int `gorm:"not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (LeaderboardEntry) TableName() string {
	return "monthly_leaderboard"
}

// ScoreHistory archives every user's monthly totals at rollover, ranked or
// not. Rank is nil for users who did not make the leaderboard.
type ScoreHistory struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	Period string `gorm:"type:varchar(7);not null;index;uniqueIndex:idx_score_history_period_user"`
	UserID string `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_score_history_period_user"`

	Score       int  `gorm:"not null"`
	Predictions int  `gorm:"not null"`
	Correct     int  `gorm:"not null"`
	Rank        *int `gorm:""`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (ScoreHistory) TableName() string {
	return "monthly_score_history"
}

// RolloverState records each successfully completed monthly rollover, so a
// missed cron tick is caught up on the next check and a double fire finds
// the period already done.
type RolloverState struct {
	Period      string    `gorm:"primaryKey;type:varchar(7)"`
	RankedUsers int       `gorm:"not null"`
	CompletedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (RolloverState) TableName() string {
	return "rollover_state"
}

package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"updown/internal/models"
)

// ListPredictionsParams filters the per-user prediction listing.
type ListPredictionsParams struct {
	Status        *string
	DurationClass *string
	AssetSymbol   *string
	Limit         int
	Offset        int
}

// RankingRow is one aggregated line of the live current-period ranking.
type RankingRow struct {
	UserID      string
	Score       int
	Predictions int
	Correct     int
}

// SentimentCount is the up/down vote distribution inside one slot.
type SentimentCount struct {
	Up   int64
	Down int64
}

type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Assets (seeded, read-only to the engine).
	UpsertAsset(ctx context.Context, item *models.Asset) error
	GetAssetBySymbol(ctx context.Context, symbol string) (*models.Asset, error)
	ListActiveAssets(ctx context.Context) ([]models.Asset, error)

	// Predictions.
	CreatePredictionTx(ctx context.Context, tx *gorm.DB, item *models.Prediction) error
	GetPredictionByID(ctx context.Context, id uint64) (*models.Prediction, error)
	ListUserPredictions(ctx context.Context, userID string, params ListPredictionsParams) ([]models.Prediction, error)
	ListExpiredActive(ctx context.Context, before time.Time, limit int) ([]models.Prediction, error)
	ClaimPrediction(ctx context.Context, id uint64) (bool, error)
	ReleasePrediction(ctx context.Context, id uint64) error
	SettlePredictionTx(ctx context.Context, tx *gorm.DB, id uint64, result string, points int, priceAtEnd decimal.Decimal, evaluatedAt time.Time) error
	CountDirections(ctx context.Context, assetSymbol, durationClass string, slotStart time.Time) (SentimentCount, error)
	AggregatePeriodRanking(ctx context.Context, from, to time.Time, limit int) ([]RankingRow, error)

	// Profiles.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	EnsureProfileTx(ctx context.Context, tx *gorm.DB, userID string) error
	IncrementLifetimePredictionsTx(ctx context.Context, tx *gorm.DB, userID string) error
	ApplyScoreTx(ctx context.Context, tx *gorm.DB, userID string, points int, correct bool) error
	ListProfilesWithMonthlyScore(ctx context.Context) ([]models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	RankProfilesByMonthlyScore(ctx context.Context, limit int) ([]models.Profile, error)
	ResetMonthlyCountersTx(ctx context.Context, tx *gorm.DB) error
	SetLastMonthRankTx(ctx context.Context, tx *gorm.DB, userID string, rank int) error

	// Monthly archive.
	InsertLeaderboardEntriesTx(ctx context.Context, tx *gorm.DB, items []models.LeaderboardEntry) error
	InsertScoreHistoryTx(ctx context.Context, tx *gorm.DB, items []models.ScoreHistory) error
	ListLeaderboard(ctx context.Context, period string, limit int) ([]models.LeaderboardEntry, error)
	ListScoreHistory(ctx context.Context, userID string, limit int) ([]models.ScoreHistory, error)

	// Rollover bookkeeping.
	GetRolloverState(ctx context.Context, period string) (*models.RolloverState, error)
	LatestRolloverState(ctx context.Context) (*models.RolloverState, error)
	SaveRolloverStateTx(ctx context.Context, tx *gorm.DB, state *models.RolloverState) error

	// Badges.
	InsertBadge(ctx context.Context, item *models.Badge) (bool, error)
	ListBadges(ctx context.Context, userID string) ([]models.Badge, error)
}

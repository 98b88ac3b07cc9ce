package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"updown/internal/models"
	"updown/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- assets -----------------------------------------------------------------

func (s *Store) UpsertAsset(ctx context.Context, item *models.Asset) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Symbol) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"class",
			"active",
		}),
	}).Create(item).Error
}

func (s *Store) GetAssetBySymbol(ctx context.Context, symbol string) (*models.Asset, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, nil
	}
	var item models.Asset
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListActiveAssets(ctx context.Context) ([]models.Asset, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Asset
	if err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("symbol asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- predictions ------------------------------------------------------------

func (s *Store) CreatePredictionTx(ctx context.Context, tx *gorm.DB, item *models.Prediction) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(item).Error
}

func (s *Store) GetPredictionByID(ctx context.Context, id uint64) (*models.Prediction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Prediction
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListUserPredictions(ctx context.Context, userID string, params repository.ListPredictionsParams) ([]models.Prediction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Prediction{}).Where("user_id = ?", userID)
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.DurationClass != nil && strings.TrimSpace(*params.DurationClass) != "" {
		query = query.Where("duration_class = ?", strings.TrimSpace(*params.DurationClass))
	}
	if params.AssetSymbol != nil && strings.TrimSpace(*params.AssetSymbol) != "" {
		query = query.Where("asset_symbol = ?", strings.ToUpper(strings.TrimSpace(*params.AssetSymbol)))
	}
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.Prediction
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListExpiredActive(ctx context.Context, before time.Time, limit int) ([]models.Prediction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 500)
	var items []models.Prediction
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusActive).
		Where("expires_at < ?", before).
		Order("expires_at asc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ClaimPrediction flips active -> evaluating. The conditional update is the
// claim: a second evaluator run matches zero rows and skips the item.
func (s *Store) ClaimPrediction(ctx context.Context, id uint64) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Prediction{}).
		Where("id = ?", id).
		Where("status = ?", models.StatusActive).
		Update("status", models.StatusEvaluating)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) ReleasePrediction(ctx context.Context, id uint64) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Prediction{}).
		Where("id = ?", id).
		Where("status = ?", models.StatusEvaluating).
		Update("status", models.StatusActive).Error
}

func (s *Store) SettlePredictionTx(ctx context.Context, tx *gorm.DB, id uint64, result string, points int, priceAtEnd decimal.Decimal, evaluatedAt time.Time) error {
	if tx == nil {
		return nil
	}
	res := tx.WithContext(ctx).
		Model(&models.Prediction{}).
		Where("id = ?", id).
		Where("status = ?", models.StatusEvaluating).
		Updates(map[string]any{
			"status":         models.StatusEvaluated,
			"result":         result,
			"points_awarded": points,
			"price_at_end":   priceAtEnd,
			"evaluated_at":   evaluatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) CountDirections(ctx context.Context, assetSymbol, durationClass string, slotStart time.Time) (repository.SentimentCount, error) {
	var out repository.SentimentCount
	if s == nil || s.db == nil {
		return out, nil
	}
	type row struct {
		Direction string
		N         int64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&models.Prediction{}).
		Select("direction, count(*) AS n").
		Where("asset_symbol = ?", strings.ToUpper(strings.TrimSpace(assetSymbol))).
		Where("duration_class = ?", durationClass).
		Where("slot_start = ?", slotStart).
		Group("direction").
		Scan(&rows).Error
	if err != nil {
		return out, err
	}
	for _, r := range rows {
		switch r.Direction {
		case models.DirectionUp:
			out.Up = r.N
		case models.DirectionDown:
			out.Down = r.N
		}
	}
	return out, nil
}

func (s *Store) AggregatePeriodRanking(ctx context.Context, from, to time.Time, limit int) ([]repository.RankingRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 100)
	var rows []repository.RankingRow
	err := s.db.WithContext(ctx).
		Model(&models.Prediction{}).
		Select(`
			user_id,
			COALESCE(SUM(CASE WHEN status = 'evaluated' THEN points_awarded ELSE 0 END), 0) AS score,
			COUNT(*) AS predictions,
			COALESCE(SUM(CASE WHEN result = 'correct' THEN 1 ELSE 0 END), 0) AS correct
		`).
		Where("slot_start >= ? AND slot_start < ?", from, to).
		Group("user_id").
		Order("score desc, user_id asc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// --- profiles ---------------------------------------------------------------

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) EnsureProfileTx(ctx context.Context, tx *gorm.DB, userID string) error {
	if tx == nil || strings.TrimSpace(userID) == "" {
		return nil
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&models.Profile{UserID: userID}).Error
}

func (s *Store) IncrementLifetimePredictionsTx(ctx context.Context, tx *gorm.DB, userID string) error {
	if tx == nil {
		return nil
	}
	return tx.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("lifetime_predictions", gorm.Expr("lifetime_predictions + 1")).Error
}

// ApplyScoreTx folds one settled prediction into the aggregate as a single
// update, so it cannot interleave with the rollover reset halfway.
func (s *Store) ApplyScoreTx(ctx context.Context, tx *gorm.DB, userID string, points int, correct bool) error {
	if tx == nil {
		return nil
	}
	correctInc := 0
	if correct {
		correctInc = 1
	}
	return tx.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"monthly_score":       gorm.Expr("monthly_score + ?", points),
			"monthly_predictions": gorm.Expr("monthly_predictions + 1"),
			"monthly_correct":     gorm.Expr("monthly_correct + ?", correctInc),
			"lifetime_score":      gorm.Expr("lifetime_score + ?", points),
		}).Error
}

func (s *Store) ListProfilesWithMonthlyScore(ctx context.Context) ([]models.Profile, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Profile
	if err := s.db.WithContext(ctx).
		Where("monthly_score > 0").
		Order("monthly_score desc, user_id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Profile
	if err := s.db.WithContext(ctx).Order("user_id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) RankProfilesByMonthlyScore(ctx context.Context, limit int) ([]models.Profile, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 100)
	var items []models.Profile
	if err := s.db.WithContext(ctx).
		Order("monthly_score desc, user_id asc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ResetMonthlyCountersTx zeroes the live month and clears last_month_rank;
// callers re-set the rank for users who made the new archive.
func (s *Store) ResetMonthlyCountersTx(ctx context.Context, tx *gorm.DB) error {
	if tx == nil {
		return nil
	}
	return tx.WithContext(ctx).
		Model(&models.Profile{}).
		Where("1 = 1").
		Updates(map[string]any{
			"monthly_score":       0,
			"monthly_predictions": 0,
			"monthly_correct":     0,
			"last_month_rank":     nil,
		}).Error
}

func (s *Store) SetLastMonthRankTx(ctx context.Context, tx *gorm.DB, userID string, rank int) error {
	if tx == nil {
		return nil
	}
	return tx.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("last_month_rank", rank).Error
}

// --- monthly archive --------------------------------------------------------

func (s *Store) InsertLeaderboardEntriesTx(ctx context.Context, tx *gorm.DB, items []models.LeaderboardEntry) error {
	if tx == nil || len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "period"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&items).Error
}

func (s *Store) InsertScoreHistoryTx(ctx context.Context, tx *gorm.DB, items []models.ScoreHistory) error {
	if tx == nil || len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "period"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&items).Error
}

func (s *Store) ListLeaderboard(ctx context.Context, period string, limit int) ([]models.LeaderboardEntry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 100)
	var items []models.LeaderboardEntry
	if err := s.db.WithContext(ctx).
		Where("period = ?", strings.TrimSpace(period)).
		Order("rank asc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListScoreHistory(ctx context.Context, userID string, limit int) ([]models.ScoreHistory, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 24)
	var items []models.ScoreHistory
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("period desc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- rollover state ---------------------------------------------------------

func (s *Store) GetRolloverState(ctx context.Context, period string) (*models.RolloverState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.RolloverState
	err := s.db.WithContext(ctx).Where("period = ?", period).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) LatestRolloverState(ctx context.Context) (*models.RolloverState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.RolloverState
	err := s.db.WithContext(ctx).Order("period desc").First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveRolloverStateTx(ctx context.Context, tx *gorm.DB, state *models.RolloverState) error {
	if tx == nil || state == nil {
		return nil
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "period"}},
		DoNothing: true,
	}).Create(state).Error
}

// --- badges -----------------------------------------------------------------

// InsertBadge reports whether the badge was newly awarded; an existing
// (user, type, period) row makes it a no-op.
func (s *Store) InsertBadge(ctx context.Context, item *models.Badge) (bool, error) {
	if s == nil || s.db == nil || item == nil {
		return false, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "type"}, {Name: "period"}},
		DoNothing: true,
	}).Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) ListBadges(ctx context.Context, userID string) ([]models.Badge, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Badge
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("awarded_at desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- helpers ----------------------------------------------------------------

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"updown/internal/models"
	"updown/internal/repository"
)

// fakeRepo is an in-memory Repository for exercising the services without
// a database. Transactions are flat: the tx handle is ignored and every
// write applies immediately, which is enough for single-threaded tests.
type fakeRepo struct {
	assets      map[string]*models.Asset
	predictions map[uint64]*models.Prediction
	profiles    map[string]*models.Profile
	leaderboard []models.LeaderboardEntry
	history     []models.ScoreHistory
	rollovers   map[string]*models.RolloverState
	badges      []models.Badge
	nextID      uint64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		assets:      map[string]*models.Asset{},
		predictions: map[uint64]*models.Prediction{},
		profiles:    map[string]*models.Profile{},
		rollovers:   map[string]*models.RolloverState{},
		nextID:      1,
	}
}

func (f *fakeRepo) addAsset(symbol, class string, active bool) {
	f.assets[symbol] = &models.Asset{Symbol: symbol, Name: symbol, Class: class, Active: active}
}

func (f *fakeRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (f *fakeRepo) UpsertAsset(ctx context.Context, item *models.Asset) error {
	f.assets[item.Symbol] = item
	return nil
}

func (f *fakeRepo) GetAssetBySymbol(ctx context.Context, symbol string) (*models.Asset, error) {
	a, ok := f.assets[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (f *fakeRepo) ListActiveAssets(ctx context.Context) ([]models.Asset, error) {
	var out []models.Asset
	for _, a := range f.assets {
		if a.Active {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreatePredictionTx(ctx context.Context, tx *gorm.DB, item *models.Prediction) error {
	for _, p := range f.predictions {
		if p.UserID == item.UserID && p.AssetSymbol == item.AssetSymbol &&
			p.DurationClass == item.DurationClass && p.SlotIndex == item.SlotIndex &&
			p.SlotStart.Equal(item.SlotStart) {
			return gorm.ErrDuplicatedKey
		}
	}
	item.ID = f.nextID
	f.nextID++
	copied := *item
	f.predictions[item.ID] = &copied
	return nil
}

func (f *fakeRepo) GetPredictionByID(ctx context.Context, id uint64) (*models.Prediction, error) {
	p, ok := f.predictions[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakeRepo) ListUserPredictions(ctx context.Context, userID string, params repository.ListPredictionsParams) ([]models.Prediction, error) {
	var out []models.Prediction
	for _, p := range f.predictions {
		if p.UserID != userID {
			continue
		}
		if params.Status != nil && p.Status != *params.Status {
			continue
		}
		if params.DurationClass != nil && p.DurationClass != *params.DurationClass {
			continue
		}
		if params.AssetSymbol != nil && p.AssetSymbol != *params.AssetSymbol {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRepo) ListExpiredActive(ctx context.Context, before time.Time, limit int) ([]models.Prediction, error) {
	var out []models.Prediction
	for _, p := range f.predictions {
		if p.Status == models.StatusActive && !p.ExpiresAt.After(before) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) ClaimPrediction(ctx context.Context, id uint64) (bool, error) {
	p, ok := f.predictions[id]
	if !ok || p.Status != models.StatusActive {
		return false, nil
	}
	p.Status = models.StatusEvaluating
	return true, nil
}

func (f *fakeRepo) ReleasePrediction(ctx context.Context, id uint64) error {
	if p, ok := f.predictions[id]; ok && p.Status == models.StatusEvaluating {
		p.Status = models.StatusActive
	}
	return nil
}

func (f *fakeRepo) SettlePredictionTx(ctx context.Context, tx *gorm.DB, id uint64, result string, points int, priceAtEnd decimal.Decimal, evaluatedAt time.Time) error {
	p, ok := f.predictions[id]
	if !ok || p.Status != models.StatusEvaluating {
		return gorm.ErrRecordNotFound
	}
	p.Status = models.StatusEvaluated
	p.Result = result
	p.PointsAwarded = &points
	p.PriceAtEnd = &priceAtEnd
	p.EvaluatedAt = &evaluatedAt
	return nil
}

func (f *fakeRepo) CountDirections(ctx context.Context, assetSymbol, durationClass string, slotStart time.Time) (repository.SentimentCount, error) {
	var count repository.SentimentCount
	for _, p := range f.predictions {
		if p.AssetSymbol != assetSymbol || p.DurationClass != durationClass || !p.SlotStart.Equal(slotStart) {
			continue
		}
		if p.Direction == models.DirectionUp {
			count.Up++
		} else {
			count.Down++
		}
	}
	return count, nil
}

func (f *fakeRepo) AggregatePeriodRanking(ctx context.Context, from, to time.Time, limit int) ([]repository.RankingRow, error) {
	byUser := map[string]*repository.RankingRow{}
	for _, p := range f.predictions {
		if p.Status != models.StatusEvaluated || p.SlotStart.Before(from) || !p.SlotStart.Before(to) {
			continue
		}
		row, ok := byUser[p.UserID]
		if !ok {
			row = &repository.RankingRow{UserID: p.UserID}
			byUser[p.UserID] = row
		}
		row.Predictions++
		if p.PointsAwarded != nil {
			row.Score += *p.PointsAwarded
		}
		if p.Result == models.ResultCorrect {
			row.Correct++
		}
	}
	var out []repository.RankingRow
	for _, r := range byUser {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakeRepo) EnsureProfileTx(ctx context.Context, tx *gorm.DB, userID string) error {
	if _, ok := f.profiles[userID]; !ok {
		f.profiles[userID] = &models.Profile{UserID: userID}
	}
	return nil
}

func (f *fakeRepo) IncrementLifetimePredictionsTx(ctx context.Context, tx *gorm.DB, userID string) error {
	f.profiles[userID].LifetimePredictions++
	return nil
}

func (f *fakeRepo) ApplyScoreTx(ctx context.Context, tx *gorm.DB, userID string, points int, correct bool) error {
	p := f.profiles[userID]
	p.MonthlyScore += points
	p.MonthlyPredictions++
	p.LifetimeScore += points
	if correct {
		p.MonthlyCorrect++
	}
	return nil
}

func (f *fakeRepo) ListProfilesWithMonthlyScore(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range f.profiles {
		if p.MonthlyScore > 0 {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MonthlyScore != out[j].MonthlyScore {
			return out[i].MonthlyScore > out[j].MonthlyScore
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (f *fakeRepo) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range f.profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeRepo) RankProfilesByMonthlyScore(ctx context.Context, limit int) ([]models.Profile, error) {
	out, _ := f.ListProfilesWithMonthlyScore(ctx)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) ResetMonthlyCountersTx(ctx context.Context, tx *gorm.DB) error {
	for _, p := range f.profiles {
		p.MonthlyScore = 0
		p.MonthlyPredictions = 0
		p.MonthlyCorrect = 0
		p.LastMonthRank = nil
	}
	return nil
}

func (f *fakeRepo) SetLastMonthRankTx(ctx context.Context, tx *gorm.DB, userID string, rank int) error {
	if p, ok := f.profiles[userID]; ok {
		r := rank
		p.LastMonthRank = &r
	}
	return nil
}

func (f *fakeRepo) InsertLeaderboardEntriesTx(ctx context.Context, tx *gorm.DB, items []models.LeaderboardEntry) error {
	f.leaderboard = append(f.leaderboard, items...)
	return nil
}

func (f *fakeRepo) InsertScoreHistoryTx(ctx context.Context, tx *gorm.DB, items []models.ScoreHistory) error {
	f.history = append(f.history, items...)
	return nil
}

func (f *fakeRepo) ListLeaderboard(ctx context.Context, period string, limit int) ([]models.LeaderboardEntry, error) {
	var out []models.LeaderboardEntry
	for _, e := range f.leaderboard {
		if e.Period == period {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) ListScoreHistory(ctx context.Context, userID string, limit int) ([]models.ScoreHistory, error) {
	var out []models.ScoreHistory
	for _, h := range f.history {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) GetRolloverState(ctx context.Context, period string) (*models.RolloverState, error) {
	s, ok := f.rollovers[period]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeRepo) LatestRolloverState(ctx context.Context) (*models.RolloverState, error) {
	var latest *models.RolloverState
	for _, s := range f.rollovers {
		if latest == nil || s.Period > latest.Period {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (f *fakeRepo) SaveRolloverStateTx(ctx context.Context, tx *gorm.DB, state *models.RolloverState) error {
	copied := *state
	f.rollovers[state.Period] = &copied
	return nil
}

func (f *fakeRepo) InsertBadge(ctx context.Context, item *models.Badge) (bool, error) {
	for _, b := range f.badges {
		if b.UserID == item.UserID && b.Type == item.Type && b.Period == item.Period {
			return false, nil
		}
	}
	f.badges = append(f.badges, *item)
	return true, nil
}

func (f *fakeRepo) ListBadges(ctx context.Context, userID string) ([]models.Badge, error) {
	var out []models.Badge
	for _, b := range f.badges {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

// fakeOracle returns fixed per-symbol prices, optionally failing live
// lookups to exercise the cached fallback path.
type fakeOracle struct {
	prices   map[string]decimal.Decimal
	liveDown bool
}

func (o *fakeOracle) LivePrice(ctx context.Context, asset models.Asset) (decimal.Decimal, error) {
	if o.liveDown {
		return decimal.Zero, context.DeadlineExceeded
	}
	return o.price(asset.Symbol)
}

func (o *fakeOracle) CachedPrice(ctx context.Context, asset models.Asset) (decimal.Decimal, error) {
	return o.price(asset.Symbol)
}

func (o *fakeOracle) price(symbol string) (decimal.Decimal, error) {
	p, ok := o.prices[symbol]
	if !ok {
		return decimal.Zero, context.DeadlineExceeded
	}
	return p, nil
}

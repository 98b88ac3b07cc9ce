package badge

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"updown/internal/models"
	"updown/internal/repository"
)

// Rank badge types for the monthly podium.
const (
	TypeMonthlyChampion = "monthly_champion"
	TypeMonthlySilver   = "monthly_silver"
	TypeMonthlyBronze   = "monthly_bronze"
)

// milestone is a lifetime-prediction-count threshold badge.
type milestone struct {
	count     int
	badgeType string
}

var milestones = []milestone{
	{1, "first_bet"},
	{10, "ten_bets"},
	{50, "fifty_bets"},
	{100, "hundred_bets"},
	{500, "five_hundred_bets"},
}

// Service awards badges. Every caller treats failures here as non-fatal:
// they are logged and never propagated into the settling path.
type Service struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

// CheckAndAward grants any lifetime milestone badges the user has newly
// crossed. Already-held badges are skipped by the storage uniqueness rule.
func (s *Service) CheckAndAward(ctx context.Context, userID string) ([]models.Badge, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	profile, err := s.Repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}

	var awarded []models.Badge
	for _, m := range milestones {
		if profile.LifetimePredictions < m.count {
			break
		}
		meta, _ := json.Marshal(map[string]any{"threshold": m.count})
		item := models.Badge{
			UserID:   userID,
			Type:     m.badgeType,
			Metadata: datatypes.JSON(meta),
		}
		created, err := s.Repo.InsertBadge(ctx, &item)
		if err != nil {
			return awarded, err
		}
		if created {
			awarded = append(awarded, item)
			if s.Logger != nil {
				s.Logger.Info("badge awarded",
					zap.String("user_id", userID),
					zap.String("type", m.badgeType),
				)
			}
		}
	}
	return awarded, nil
}

// AwardRankBadges grants podium badges for an archived period.
func (s *Service) AwardRankBadges(ctx context.Context, period string, entries []models.LeaderboardEntry) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	types := map[int]string{
		1: TypeMonthlyChampion,
		2: TypeMonthlySilver,
		3: TypeMonthlyBronze,
	}
	for _, entry := range entries {
		badgeType, ok := types[entry.Rank]
		if !ok {
			continue
		}
		meta, _ := json.Marshal(map[string]any{"rank": entry.Rank, "score": entry.Score})
		_, err := s.Repo.InsertBadge(ctx, &models.Badge{
			UserID:   entry.UserID,
			Type:     badgeType,
			Period:   period,
			Metadata: datatypes.JSON(meta),
		})
		if err != nil {
			return fmt.Errorf("award rank badge %s to %s: %w", badgeType, entry.UserID, err)
		}
	}
	return nil
}

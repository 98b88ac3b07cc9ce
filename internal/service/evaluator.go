package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"updown/internal/badge"
	"updown/internal/models"
	"updown/internal/oracle"
	"updown/internal/push"
	"updown/internal/repository"
	"updown/internal/scoring"
	"updown/internal/slot"
)

// EvaluatorService settles expired predictions. Each item is claimed with a
// conditional status update before processing, so overlapping runs never
// score the same bet twice, and each item's failure stays local to it.
type EvaluatorService struct {
	Repo   repository.Repository
	Oracle oracle.PriceOracle
	Badges *badge.Service
	Push   *push.Hub
	Logger *zap.Logger
	Batch  int

	Now func() time.Time
}

func (s *EvaluatorService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// EvaluateExpired settles every active prediction whose slot has closed.
// Returns how many were settled and how many were deferred or failed.
func (s *EvaluatorService) EvaluateExpired(ctx context.Context) (settled, deferred int, err error) {
	batch := s.Batch
	if batch <= 0 {
		batch = 500
	}
	items, err := s.Repo.ListExpiredActive(ctx, s.now().UTC(), batch)
	if err != nil {
		return 0, 0, err
	}

	for i := range items {
		if err := s.evaluateOne(ctx, &items[i]); err != nil {
			deferred++
			if s.Logger != nil {
				s.Logger.Warn("prediction evaluation deferred",
					zap.Uint64("id", items[i].ID),
					zap.String("user_id", items[i].UserID),
					zap.Error(err),
				)
			}
			continue
		}
		settled++
	}
	return settled, deferred, nil
}

func (s *EvaluatorService) evaluateOne(ctx context.Context, item *models.Prediction) error {
	claimed, err := s.Repo.ClaimPrediction(ctx, item.ID)
	if err != nil {
		return err
	}
	if !claimed {
		// Another evaluator run owns it.
		return nil
	}

	asset, err := s.Repo.GetAssetBySymbol(ctx, item.AssetSymbol)
	if err != nil {
		s.release(ctx, item.ID)
		return fmt.Errorf("asset lookup failed for %s: %w", item.AssetSymbol, err)
	}
	if asset == nil {
		s.release(ctx, item.ID)
		return fmt.Errorf("asset %s not found", item.AssetSymbol)
	}

	// A missing price is never scored as incorrect: release the claim and
	// let the next tick retry.
	priceAtEnd, err := oracle.Resolve(ctx, s.Oracle, *asset)
	if err != nil {
		s.release(ctx, item.ID)
		return ErrPriceUnavailable
	}

	correct := false
	cmp := priceAtEnd.Cmp(item.PriceAtStart)
	switch item.Direction {
	case models.DirectionUp:
		correct = cmp > 0
	case models.DirectionDown:
		correct = cmp < 0
	}
	// Equal prices fall through as incorrect for either direction.

	class, err := slot.ParseClass(item.DurationClass)
	if err != nil {
		s.release(ctx, item.ID)
		return err
	}
	var points int
	if correct {
		points, err = scoring.PointsForSlot(class, item.SlotIndex)
	} else {
		points, err = scoring.PenaltyForSlot(class, item.SlotIndex)
	}
	if err != nil {
		s.release(ctx, item.ID)
		return err
	}

	result := models.ResultIncorrect
	if correct {
		result = models.ResultCorrect
	}
	evaluatedAt := s.now().UTC()

	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.SettlePredictionTx(ctx, tx, item.ID, result, points, priceAtEnd, evaluatedAt); err != nil {
			return err
		}
		if err := s.Repo.EnsureProfileTx(ctx, tx, item.UserID); err != nil {
			return err
		}
		return s.Repo.ApplyScoreTx(ctx, tx, item.UserID, points, correct)
	})
	if err != nil {
		s.release(ctx, item.ID)
		return err
	}

	item.Status = models.StatusEvaluated
	item.Result = result
	item.PointsAwarded = &points
	item.PriceAtEnd = &priceAtEnd
	item.EvaluatedAt = &evaluatedAt

	// Collaborator calls are best-effort and never fail the settlement.
	if s.Badges != nil {
		if _, err := s.Badges.CheckAndAward(ctx, item.UserID); err != nil && s.Logger != nil {
			s.Logger.Warn("badge check failed", zap.String("user_id", item.UserID), zap.Error(err))
		}
	}
	if s.Push != nil {
		s.Push.BroadcastPredictionSettled(ctx, item.UserID, item.AssetSymbol, result, points)
	}
	return nil
}

func (s *EvaluatorService) release(ctx context.Context, id uint64) {
	if err := s.Repo.ReleasePrediction(ctx, id); err != nil && s.Logger != nil {
		s.Logger.Warn("claim release failed", zap.Uint64("id", id), zap.Error(err))
	}
}

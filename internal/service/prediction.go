package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"updown/internal/models"
	"updown/internal/oracle"
	"updown/internal/push"
	"updown/internal/repository"
	"updown/internal/slot"
)

// PredictionService owns bet creation and the read paths over a user's
// predictions.
type PredictionService struct {
	Repo   repository.Repository
	Oracle oracle.PriceOracle
	Push   *push.Hub
	Logger *zap.Logger
	Loc    *time.Location

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

type CreateInput struct {
	UserID        string
	Verified      bool
	AssetSymbol   string
	Direction     string
	DurationClass string
}

func (s *PredictionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *PredictionService) loc() *time.Location {
	if s.Loc != nil {
		return s.Loc
	}
	return time.UTC
}

// Create validates and persists a new bet on the slot containing "now".
// The prediction row and the lifetime counter bump commit in one
// transaction; a bet is never created without a recorded starting price.
func (s *PredictionService) Create(ctx context.Context, in CreateInput) (*models.Prediction, error) {
	direction := strings.ToLower(strings.TrimSpace(in.Direction))
	if direction != models.DirectionUp && direction != models.DirectionDown {
		return nil, fmt.Errorf("%w: direction must be up or down", ErrValidation)
	}
	class, err := slot.ParseClass(in.DurationClass)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if strings.TrimSpace(in.UserID) == "" {
		return nil, fmt.Errorf("%w: missing user", ErrValidation)
	}
	if !in.Verified {
		return nil, ErrVerificationRequired
	}

	asset, err := s.Repo.GetAssetBySymbol(ctx, in.AssetSymbol)
	if err != nil {
		return nil, err
	}
	if asset == nil || !asset.Active {
		return nil, ErrAssetUnavailable
	}

	now := s.now()
	current := slot.For(now, class, s.loc())
	if !slot.ValidForNewBet(class, current.Index, now, s.loc()) {
		return nil, ErrInvalidSlot
	}
	// Guards against clock skew between slot computation and persistence.
	if !current.Contains(now) {
		return nil, ErrNoActiveSlot
	}

	price, err := oracle.Resolve(ctx, s.Oracle, *asset)
	if err != nil {
		return nil, ErrPriceUnavailable
	}

	item := &models.Prediction{
		UserID:        in.UserID,
		AssetSymbol:   asset.Symbol,
		Direction:     direction,
		DurationClass: class.String(),
		SlotIndex:     current.Index,
		SlotStart:     current.Start.UTC(),
		SlotEnd:       current.End.UTC(),
		ExpiresAt:     current.End.UTC(),
		Status:        models.StatusActive,
		Result:        models.ResultPending,
		PriceAtStart:  price,
	}

	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.EnsureProfileTx(ctx, tx, in.UserID); err != nil {
			return err
		}
		if err := s.Repo.CreatePredictionTx(ctx, tx, item); err != nil {
			return err
		}
		return s.Repo.IncrementLifetimePredictionsTx(ctx, tx, in.UserID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicatePrediction
		}
		return nil, err
	}

	s.broadcastSentiment(ctx, asset.Symbol, class, item.SlotStart)

	return item, nil
}

// ListMine returns the caller's predictions, newest first.
func (s *PredictionService) ListMine(ctx context.Context, userID string, params repository.ListPredictionsParams) ([]models.Prediction, error) {
	return s.Repo.ListUserPredictions(ctx, userID, params)
}

// Sentiment returns the up/down distribution for an asset's current slot.
func (s *PredictionService) Sentiment(ctx context.Context, symbol string, class slot.Class) (repository.SentimentCount, slot.Slot, error) {
	current := slot.For(s.now(), class, s.loc())
	count, err := s.Repo.CountDirections(ctx, symbol, class.String(), current.Start.UTC())
	return count, current, err
}

func (s *PredictionService) broadcastSentiment(ctx context.Context, symbol string, class slot.Class, slotStart time.Time) {
	if s.Push == nil {
		return
	}
	count, err := s.Repo.CountDirections(ctx, symbol, class.String(), slotStart)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("sentiment count failed", zap.String("symbol", symbol), zap.Error(err))
		}
		return
	}
	s.Push.BroadcastSentimentUpdate(ctx, symbol, class, count.Up, count.Down)
}

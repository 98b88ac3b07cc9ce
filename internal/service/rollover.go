package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"updown/internal/badge"
	"updown/internal/models"
	"updown/internal/repository"
)

// RolloverService archives the monthly standings and resets the live
// counters. Instead of trusting a single cron tick, it is polled on a
// short interval and keyed off the persisted rollover_state table: a
// missed tick is caught up on the next poll and a double fire finds the
// period already recorded.
type RolloverService struct {
	Repo   repository.Repository
	Badges *badge.Service
	Logger *zap.Logger
	Loc    *time.Location

	Now func() time.Time
}

func (s *RolloverService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *RolloverService) loc() *time.Location {
	if s.Loc != nil {
		return s.Loc
	}
	return time.UTC
}

// PeriodKey formats the month containing t, in the reference timezone.
func (s *RolloverService) PeriodKey(t time.Time) string {
	return t.In(s.loc()).Format("2006-01")
}

// NextRollover returns the next monthly boundary after t.
func (s *RolloverService) NextRollover(t time.Time) time.Time {
	t = t.In(s.loc())
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, s.loc()).AddDate(0, 1, 0)
}

// RunIfDue archives every finished month that has no rollover record yet,
// oldest first, starting after the latest recorded period. An outage
// spanning whole months lands the accumulated scores in the oldest skipped
// period and records the rest as empty. Safe to call as often as desired.
func (s *RolloverService) RunIfDue(ctx context.Context) error {
	now := s.now().In(s.loc())
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc())

	cursor := current.AddDate(0, -1, 0)
	latest, err := s.Repo.LatestRolloverState(ctx)
	if err != nil {
		return err
	}
	if latest != nil {
		t, perr := time.ParseInLocation("2006-01", latest.Period, s.loc())
		if perr == nil {
			cursor = t.AddDate(0, 1, 0)
		}
	}

	for ; cursor.Before(current); cursor = cursor.AddDate(0, 1, 0) {
		period := cursor.Format("2006-01")
		state, err := s.Repo.GetRolloverState(ctx, period)
		if err != nil {
			return err
		}
		if state != nil {
			continue
		}
		if err := s.Rollover(ctx, period); err != nil {
			return err
		}
	}
	return nil
}

// Rollover archives one period: leaderboard rows for users who scored,
// score-history rows for everyone, rank badges for the podium, then an
// atomic counter reset.
func (s *RolloverService) Rollover(ctx context.Context, period string) error {
	ranked, err := s.Repo.ListProfilesWithMonthlyScore(ctx)
	if err != nil {
		return err
	}
	all, err := s.Repo.ListProfiles(ctx)
	if err != nil {
		return err
	}

	entries := make([]models.LeaderboardEntry, 0, len(ranked))
	for i, p := range ranked {
		entries = append(entries, models.LeaderboardEntry{
			Period:      period,
			UserID:      p.UserID,
			Rank:        i + 1,
			Score:       p.MonthlyScore,
			Predictions: p.MonthlyPredictions,
			Correct:     p.MonthlyCorrect,
		})
	}
	history := make([]models.ScoreHistory, 0, len(all))
	rankByUser := make(map[string]int, len(entries))
	for _, e := range entries {
		rankByUser[e.UserID] = e.Rank
	}
	for _, p := range all {
		h := models.ScoreHistory{
			Period:      period,
			UserID:      p.UserID,
			Score:       p.MonthlyScore,
			Predictions: p.MonthlyPredictions,
			Correct:     p.MonthlyCorrect,
		}
		if r, ok := rankByUser[p.UserID]; ok {
			rank := r
			h.Rank = &rank
		}
		history = append(history, h)
	}

	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.InsertLeaderboardEntriesTx(ctx, tx, entries); err != nil {
			return err
		}
		if err := s.Repo.InsertScoreHistoryTx(ctx, tx, history); err != nil {
			return err
		}
		// Reset first: it clears last_month_rank for everyone, then the
		// just-ranked users get their fresh rank.
		if err := s.Repo.ResetMonthlyCountersTx(ctx, tx); err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.Repo.SetLastMonthRankTx(ctx, tx, e.UserID, e.Rank); err != nil {
				return err
			}
		}
		return s.Repo.SaveRolloverStateTx(ctx, tx, &models.RolloverState{
			Period:      period,
			RankedUsers: len(entries),
			CompletedAt: s.now().UTC(),
		})
	})
	if err != nil {
		return err
	}

	if s.Badges != nil {
		if err := s.Badges.AwardRankBadges(ctx, period, entries); err != nil && s.Logger != nil {
			s.Logger.Warn("rank badge award failed", zap.String("period", period), zap.Error(err))
		}
	}

	if s.Logger != nil {
		s.Logger.Info("monthly rollover complete",
			zap.String("period", period),
			zap.Int("ranked", len(entries)),
			zap.Int("archived", len(history)),
		)
	}
	return nil
}

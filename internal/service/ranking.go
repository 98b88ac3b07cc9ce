package service

import (
	"context"
	"time"

	"updown/internal/repository"
)

// RankingEntry is one line of the live, non-archived standing for the
// month in progress.
type RankingEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	Score       int    `json:"score"`
	Predictions int    `json:"predictions"`
	Correct     int    `json:"correct"`
}

// RankingService computes the current month's standing on demand from raw
// predictions, independent of the rollover archive.
type RankingService struct {
	Repo repository.Repository
	Loc  *time.Location
	TopK int

	Now func() time.Time
}

func (s *RankingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *RankingService) loc() *time.Location {
	if s.Loc != nil {
		return s.Loc
	}
	return time.UTC
}

// CurrentPeriod aggregates predictions whose slot started this calendar
// month. When the window is empty (fresh deployment, first minutes of a
// month) it falls back to the profile aggregates so the board is never
// misleadingly blank.
func (s *RankingService) CurrentPeriod(ctx context.Context) ([]RankingEntry, error) {
	topK := s.TopK
	if topK <= 0 {
		topK = 100
	}
	now := s.now().In(s.loc())
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc())
	to := from.AddDate(0, 1, 0)

	rows, err := s.Repo.AggregatePeriodRanking(ctx, from.UTC(), to.UTC(), topK)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		out := make([]RankingEntry, 0, len(rows))
		for i, r := range rows {
			out = append(out, RankingEntry{
				Rank:        i + 1,
				UserID:      r.UserID,
				Score:       r.Score,
				Predictions: r.Predictions,
				Correct:     r.Correct,
			})
		}
		return out, nil
	}

	profiles, err := s.Repo.RankProfilesByMonthlyScore(ctx, topK)
	if err != nil {
		return nil, err
	}
	out := make([]RankingEntry, 0, len(profiles))
	for i, p := range profiles {
		out = append(out, RankingEntry{
			Rank:        i + 1,
			UserID:      p.UserID,
			Score:       p.MonthlyScore,
			Predictions: p.MonthlyPredictions,
			Correct:     p.MonthlyCorrect,
		})
	}
	return out, nil
}

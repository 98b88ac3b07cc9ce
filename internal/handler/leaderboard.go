package handler

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"updown/internal/auth"
	"updown/internal/repository"
	"updown/internal/service"
)

var periodPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

type LeaderboardHandler struct {
	Repo     repository.Repository
	Ranking  *service.RankingService
	Rollover *service.RolloverService
	TopK     int
	Now      func() time.Time
}

func (h *LeaderboardHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1")
	group.GET("/leaderboard", h.archived)
	group.GET("/leaderboard/current", h.current)
	group.GET("/leaderboard/countdown", h.countdown)
	group.GET("/history", h.history)
}

func (h *LeaderboardHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *LeaderboardHandler) topK() int {
	if h.TopK > 0 {
		return h.TopK
	}
	return 100
}

// archived serves a finished month. With no ?month= it returns the most
// recently rolled-over period.
func (h *LeaderboardHandler) archived(c *gin.Context) {
	period := strings.TrimSpace(c.Query("month"))
	if period == "" {
		state, err := h.Repo.LatestRolloverState(c.Request.Context())
		if err != nil {
			Error(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
		if state == nil {
			Ok(c, []any{}, map[string]any{"period": nil})
			return
		}
		period = state.Period
	} else if !periodPattern.MatchString(period) {
		Error(c, http.StatusBadRequest, "month must be YYYY-MM", nil)
		return
	}

	entries, err := h.Repo.ListLeaderboard(c.Request.Context(), period, h.topK())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, entries, map[string]any{"period": period, "count": len(entries)})
}

func (h *LeaderboardHandler) current(c *gin.Context) {
	entries, err := h.Ranking.CurrentPeriod(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, entries, map[string]any{
		"period": h.Rollover.PeriodKey(h.now()),
		"count":  len(entries),
	})
}

func (h *LeaderboardHandler) countdown(c *gin.Context) {
	now := h.now()
	next := h.Rollover.NextRollover(now)
	Ok(c, gin.H{
		"period":         h.Rollover.PeriodKey(now),
		"rollover_at":    next,
		"remaining_secs": int64(next.Sub(now).Seconds()),
	}, nil)
}

func (h *LeaderboardHandler) history(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing identity", nil)
		return
	}
	items, err := h.Repo.ListScoreHistory(c.Request.Context(), claims.UserID, parseIntQuery(c, "limit", 24))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"updown/internal/auth"
	"updown/internal/repository"
	"updown/internal/service"
	"updown/internal/slot"
)

type PredictionHandler struct {
	Service *service.PredictionService
	Repo    repository.Repository
	Logger  *zap.Logger
}

func (h *PredictionHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1")
	group.POST("/predictions", h.create)
	group.GET("/predictions", h.listMine)
	group.GET("/assets", h.listAssets)
	group.GET("/sentiment/:symbol/:class", h.sentiment)
	group.GET("/profile", h.profile)
	group.GET("/badges", h.listBadges)
}

type createPredictionRequest struct {
	AssetSymbol   string `json:"asset_symbol"`
	Direction     string `json:"direction"`
	DurationClass string `json:"duration_class"`
}

func (h *PredictionHandler) create(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing identity", nil)
		return
	}
	var req createPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}

	item, err := h.Service.Create(c.Request.Context(), service.CreateInput{
		UserID:        claims.UserID,
		Verified:      claims.Verified,
		AssetSymbol:   req.AssetSymbol,
		Direction:     req.Direction,
		DurationClass: req.DurationClass,
	})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, service.ErrVerificationRequired):
			status = http.StatusForbidden
		case errors.Is(err, service.ErrAssetUnavailable):
			status = http.StatusNotFound
		case errors.Is(err, service.ErrInvalidSlot), errors.Is(err, service.ErrNoActiveSlot):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, service.ErrDuplicatePrediction):
			status = http.StatusConflict
		case errors.Is(err, service.ErrPriceUnavailable):
			status = http.StatusServiceUnavailable
		default:
			if h.Logger != nil {
				h.Logger.Error("prediction create failed", zap.Error(err))
			}
		}
		Error(c, status, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

func (h *PredictionHandler) listMine(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing identity", nil)
		return
	}
	params := repository.ListPredictionsParams{
		Limit:  parseIntQuery(c, "limit", 100),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if v := strings.TrimSpace(c.Query("status")); v != "" {
		params.Status = &v
	}
	if v := strings.TrimSpace(c.Query("duration_class")); v != "" {
		params.DurationClass = &v
	}
	if v := strings.TrimSpace(c.Query("asset")); v != "" {
		params.AssetSymbol = &v
	}
	items, err := h.Service.ListMine(c.Request.Context(), claims.UserID, params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func (h *PredictionHandler) listAssets(c *gin.Context) {
	items, err := h.Repo.ListActiveAssets(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *PredictionHandler) sentiment(c *gin.Context) {
	class, err := slot.ParseClass(c.Param("class"))
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	count, current, err := h.Service.Sentiment(c.Request.Context(), symbol, class)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{
		"asset_symbol":   symbol,
		"duration_class": class.String(),
		"slot_index":     current.Index,
		"slot_start":     current.Start,
		"slot_end":       current.End,
		"up":             count.Up,
		"down":           count.Down,
	}, nil)
}

func (h *PredictionHandler) profile(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing identity", nil)
		return
	}
	profile, err := h.Repo.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if profile == nil {
		Error(c, http.StatusNotFound, "no profile yet", nil)
		return
	}
	Ok(c, profile, nil)
}

func (h *PredictionHandler) listBadges(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		Error(c, http.StatusUnauthorized, "missing identity", nil)
		return
	}
	items, err := h.Repo.ListBadges(c.Request.Context(), claims.UserID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"count": len(items)})
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

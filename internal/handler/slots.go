package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"updown/internal/scoring"
	"updown/internal/slot"
)

// SlotHandler exposes the slot schedule so clients can render bet windows
// without re-implementing the calendar math.
type SlotHandler struct {
	Loc *time.Location
	Now func() time.Time
}

func (h *SlotHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1")
	group.GET("/slots/:class", h.list)
	group.GET("/slots/:class/active", h.active)
}

func (h *SlotHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *SlotHandler) loc() *time.Location {
	if h.Loc != nil {
		return h.Loc
	}
	return time.UTC
}

type slotView struct {
	Index   int       `json:"index"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Points  int       `json:"points"`
	Penalty int       `json:"penalty"`
	Current bool      `json:"current"`
	Open    bool      `json:"open"`
}

func (h *SlotHandler) list(c *gin.Context) {
	class, err := slot.ParseClass(c.Param("class"))
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	now := h.now()
	current := slot.For(now, class, h.loc())
	all := slot.AllInPeriod(now, class, h.loc())

	views := make([]slotView, 0, len(all))
	for _, s := range all {
		points, _ := scoring.PointsForSlot(class, s.Index)
		penalty, _ := scoring.PenaltyForSlot(class, s.Index)
		views = append(views, slotView{
			Index:   s.Index,
			Start:   s.Start,
			End:     s.End,
			Points:  points,
			Penalty: penalty,
			Current: s.Index == current.Index,
			Open:    slot.ValidForNewBet(class, s.Index, now, h.loc()),
		})
	}
	Ok(c, views, map[string]any{
		"duration_class": class.String(),
		"period_start":   slot.PeriodStart(now, class, h.loc()),
		"period_end":     slot.PeriodEnd(now, class, h.loc()),
	})
}

func (h *SlotHandler) active(c *gin.Context) {
	class, err := slot.ParseClass(c.Param("class"))
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	now := h.now()
	current := slot.For(now, class, h.loc())
	points, _ := scoring.PointsForSlot(class, current.Index)
	penalty, _ := scoring.PenaltyForSlot(class, current.Index)
	Ok(c, slotView{
		Index:   current.Index,
		Start:   current.Start,
		End:     current.End,
		Points:  points,
		Penalty: penalty,
		Current: true,
		Open:    true,
	}, map[string]any{"duration_class": class.String()})
}

package push

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"updown/internal/slot"
)

// Hub fans out slot and sentiment updates to connected websocket clients.
// Broadcasts are fire-and-forget: a slow or dead client is dropped, and
// failures never propagate to the caller.
type Hub struct {
	Logger *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

type envelope struct {
	Type string    `json:"type"`
	Data any       `json:"data"`
	At   time.Time `json:"at"`
}

type slotUpdate struct {
	DurationClass string    `json:"duration_class"`
	SlotIndex     int       `json:"slot_index"`
	SlotStart     time.Time `json:"slot_start"`
	SlotEnd       time.Time `json:"slot_end"`
}

type settledUpdate struct {
	UserID      string `json:"user_id"`
	AssetSymbol string `json:"asset_symbol"`
	Result      string `json:"result"`
	Points      int    `json:"points"`
}

type sentimentUpdate struct {
	AssetSymbol   string `json:"asset_symbol"`
	DurationClass string `json:"duration_class"`
	Up            int64  `json:"up"`
	Down          int64  `json:"down"`
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		Logger: logger,
		conns:  map[*websocket.Conn]struct{}{},
	}
}

// Serve upgrades the request and keeps the connection registered until the
// client goes away. Inbound messages are drained and ignored.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("websocket accept failed", zap.Error(err))
		}
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	if h.Logger != nil {
		h.Logger.Info("push client connected", zap.Int("clients", n))
	}

	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

// BroadcastSlotUpdate announces the currently active slot for a class.
func (h *Hub) BroadcastSlotUpdate(ctx context.Context, class slot.Class, s slot.Slot) {
	h.broadcast(ctx, envelope{
		Type: "slot_update",
		Data: slotUpdate{
			DurationClass: class.String(),
			SlotIndex:     s.Index,
			SlotStart:     s.Start,
			SlotEnd:       s.End,
		},
		At: time.Now().UTC(),
	})
}

// BroadcastSentimentUpdate announces the vote distribution for an asset's
// current slot.
func (h *Hub) BroadcastSentimentUpdate(ctx context.Context, symbol string, class slot.Class, up, down int64) {
	h.broadcast(ctx, envelope{
		Type: "sentiment_update",
		Data: sentimentUpdate{
			AssetSymbol:   symbol,
			DurationClass: class.String(),
			Up:            up,
			Down:          down,
		},
		At: time.Now().UTC(),
	})
}

// BroadcastPredictionSettled tells clients a bet has been scored.
func (h *Hub) BroadcastPredictionSettled(ctx context.Context, userID, symbol, result string, points int) {
	h.broadcast(ctx, envelope{
		Type: "prediction_settled",
		Data: settledUpdate{
			UserID:      userID,
			AssetSymbol: symbol,
			Result:      result,
			Points:      points,
		},
		At: time.Now().UTC(),
	})
}

func (h *Hub) broadcast(ctx context.Context, env envelope) {
	if h == nil {
		return
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.Write(wctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			h.mu.Lock()
			delete(h.conns, conn)
			h.mu.Unlock()
			_ = conn.Close(websocket.StatusPolicyViolation, "write failed")
			if h.Logger != nil {
				h.Logger.Warn("push client dropped", zap.Error(err))
			}
		}
	}
}

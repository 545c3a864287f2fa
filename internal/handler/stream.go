package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/matthewbaird/portfolio/internal/apperr"
	"github.com/matthewbaird/portfolio/internal/logger"
	"github.com/matthewbaird/portfolio/internal/types"
)

// StreamMessage is the envelope for every server-to-client stream message.
type StreamMessage struct {
	Type string `json:"type"` // "dashboard", "error"
	Data any    `json:"data"`
}

// StreamError carries a failed refresh.
type StreamError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stream upgrades to WebSocket and pushes a fresh dashboard for the owner
// immediately and then on every tick, until the client goes away. A failed
// refresh is reported on the stream and does not close it.
func (h *DashboardHandler) Stream(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	owner := parseOwner(r)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Warn("stream: websocket accept", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	// Only server-to-client traffic is expected; CloseRead cancels ctx once
	// the peer closes.
	ctx := conn.CloseRead(r.Context())

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()
	for {
		if err := h.push(ctx, conn, owner); err != nil {
			if ctx.Err() == nil {
				log.Warn("stream: write error", zap.Error(err))
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *DashboardHandler) push(ctx context.Context, conn *websocket.Conn, owner types.Ref) error {
	stats, err := h.reports.Dashboard(ctx, owner, time.Time{})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		code := "INTERNAL_ERROR"
		if kind, ok := apperr.KindOf(err); ok {
			code = string(kind)
		} else if errors.Is(err, context.DeadlineExceeded) {
			code = string(apperr.Timeout)
		}
		logger.FromContext(ctx).Warn("stream: refresh failed", zap.String("owner", owner.String()), zap.Error(err))
		return wsjson.Write(ctx, conn, StreamMessage{
			Type: "error",
			Data: StreamError{Code: code, Message: err.Error()},
		})
	}
	return wsjson.Write(ctx, conn, StreamMessage{Type: "dashboard", Data: stats})
}

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/halcyonlabs/meetscribe/internal/ingest"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1024,
	// The bot runtime is not a browser; there is no origin to enforce.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleStream accepts one persistent WebSocket per active bot and consumes
// its turn events. Each event is processed independently: a malformed or
// failing event is logged and the read loop keeps going, so one bad turn
// never stalls the rest of the stream. Connections for different sessions
// run in their own handler goroutines and do not block each other.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("turn stream upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	defer func() {
		_ = conn.Close()
	}()
	slog.Info("turn stream connected", "remote", r.RemoteAddr)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("turn stream closed unexpectedly", "error", err, "remote", r.RemoteAddr)
			} else {
				slog.Info("turn stream closed", "remote", r.RemoteAddr)
			}
			return
		}
		var event ingest.TurnEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			slog.Warn("skipping malformed turn event", "error", err, "remote", r.RemoteAddr)
			continue
		}
		if err := s.gateway.HandleTurn(r.Context(), event); err != nil {
			slog.Warn("failed to ingest turn", "error", err, "bot_id", event.BotID)
		}
	}
}

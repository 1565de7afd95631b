package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"worldwidewaves/pkg/observer"
)

const (
	streamWriteWait = 10 * time.Second
	streamPingEvery = 30 * time.Second
)

// StreamHandler pushes an event's signals to WebSocket clients as they are
// published by the observer.
type StreamHandler struct {
	mgr      *observer.Manager
	upgrader websocket.Upgrader
}

// NewStreamHandler creates the WebSocket stream handler.
func NewStreamHandler(mgr *observer.Manager) *StreamHandler {
	return &StreamHandler{
		mgr: mgr,
		upgrader: websocket.Upgrader{
			// The daemon serves localhost tooling; cross-origin pages are fine.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handle serves GET /api/events/{id}/stream.
func (h *StreamHandler) Handle(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Stream: Upgrade failed", "event", eventID, "error", err)
		return
	}
	defer conn.Close()

	subID, signals := h.mgr.Subscribe()
	defer h.mgr.Unsubscribe(subID)

	slog.Debug("Stream: Client connected", "event", eventID, "subscriber", subID)

	// Reader goroutine: we never expect client messages, but reading is
	// what surfaces the close frame.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Send the current state first so clients do not wait for a tick.
	if sig, ok := h.mgr.Signals(eventID); ok {
		if err := h.write(conn, sig); err != nil {
			return
		}
	}

	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			slog.Debug("Stream: Client disconnected", "event", eventID, "subscriber", subID)
			return

		case sig, ok := <-signals:
			if !ok {
				return
			}
			if sig.EventID != eventID {
				continue
			}
			if err := h.write(conn, sig); err != nil {
				slog.Debug("Stream: Write failed", "event", eventID, "error", err)
				return
			}

		case <-ping.C:
			deadline := time.Now().Add(streamWriteWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) write(conn *websocket.Conn, sig observer.Signals) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(toSignalsResponse(sig, h.mgr.IsActive(sig.EventID)))
}

// Package api exposes the wave observation core over HTTP and WebSocket.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(addr string, events *EventsHandler, obs *ObservationHandler, pos *PositionHandler, stream *StreamHandler, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", events.HandleHealth)

	// 2. Catalog Endpoints
	mux.HandleFunc("GET /api/events", events.HandleList)
	mux.HandleFunc("GET /api/events/{id}", events.HandleGet)

	// 3. Observation Endpoints
	mux.HandleFunc("GET /api/events/{id}/schedule", obs.HandleSchedule)
	mux.HandleFunc("GET /api/events/{id}/observation", obs.HandleSignals)
	mux.HandleFunc("POST /api/events/{id}/observation/start", obs.HandleStart)
	mux.HandleFunc("POST /api/events/{id}/observation/stop", obs.HandleStop)
	mux.HandleFunc("GET /api/events/{id}/history", obs.HandleHistory)
	mux.HandleFunc("GET /api/events/{id}/hits", obs.HandleHits)

	// 4. Signal Stream
	mux.HandleFunc("GET /api/events/{id}/stream", stream.Handle)

	// 5. Position Gateway
	mux.HandleFunc("POST /api/position", pos.HandlePublish)
	mux.HandleFunc("GET /api/position", pos.HandleLast)

	// 6. Log Tail
	mux.HandleFunc("GET /api/log", handleLogTail)

	// 7. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"worldwidewaves/pkg/clock"
	"worldwidewaves/pkg/geo"
	"worldwidewaves/pkg/position"
)

// PositionHandler is the gateway feeding external position fixes into the
// hub and exposing the last known one.
type PositionHandler struct {
	hub *position.Hub
	clk clock.Clock
}

// NewPositionHandler creates the position gateway handler.
func NewPositionHandler(hub *position.Hub, clk clock.Clock) *PositionHandler {
	return &PositionHandler{hub: hub, clk: clk}
}

// PositionRequest is the POST /api/position body. Accuracy is optional and
// carried through without interpretation; time defaults to the server clock.
type PositionRequest struct {
	Lat      float64    `json:"lat"`
	Lon      float64    `json:"lon"`
	Accuracy float64    `json:"accuracy,omitempty"`
	Time     *time.Time `json:"time,omitempty"`
}

// HandlePublish serves POST /api/position.
func (h *PositionHandler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lon < -180 || req.Lon > 180 {
		writeError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}

	u := position.Update{
		Position: geo.Point{Lat: req.Lat, Lon: req.Lon},
		Accuracy: req.Accuracy,
		Time:     h.clk.Now(),
	}
	if req.Time != nil {
		u.Time = *req.Time
	}
	h.hub.Publish(u)

	writeJSON(w, http.StatusAccepted, map[string]any{"subscribers": h.hub.Subscribers()})
}

// HandleLast serves GET /api/position.
func (h *PositionHandler) HandleLast(w http.ResponseWriter, r *http.Request) {
	last, ok := h.hub.Last()
	if !ok {
		writeError(w, http.StatusNotFound, "no position received yet")
		return
	}
	writeJSON(w, http.StatusOK, last)
}

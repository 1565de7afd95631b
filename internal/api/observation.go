package api

import (
	"net/http"
	"strconv"
	"time"

	"worldwidewaves/pkg/observer"
	"worldwidewaves/pkg/schedule"
	"worldwidewaves/pkg/store"
)

// ObservationHandler serves observation lifecycle, signals and history.
type ObservationHandler struct {
	mgr     *observer.Manager
	journal *store.Store // nil when journaling is disabled
}

// NewObservationHandler creates the observation handler. journal may be nil.
func NewObservationHandler(mgr *observer.Manager, journal *store.Store) *ObservationHandler {
	return &ObservationHandler{mgr: mgr, journal: journal}
}

// SignalsResponse is the wire form of observer.Signals. The infinite and
// distant-future sentinels become null so clients need no magic numbers.
type SignalsResponse struct {
	EventID           string     `json:"eventId"`
	Status            string     `json:"status"`
	Progression       float64    `json:"progression"`
	IsInArea          bool       `json:"isInArea"`
	UserPositionRatio float64    `json:"userPositionRatio"`
	IsGoingToBeHit    bool       `json:"isGoingToBeHit"`
	HasBeenHit        bool       `json:"hasBeenHit"`
	TimeBeforeHitMs   *int64     `json:"timeBeforeHitMs"`
	HitDateTime       *time.Time `json:"hitDateTime"`
	Phase             string     `json:"phase"`
	ComputedAt        time.Time  `json:"computedAt"`
	Observed          bool       `json:"observed"`
}

func toSignalsResponse(sig observer.Signals, observed bool) SignalsResponse {
	resp := SignalsResponse{
		EventID:           sig.EventID,
		Status:            string(sig.Status),
		Progression:       sig.Progression,
		IsInArea:          sig.InArea,
		UserPositionRatio: sig.PositionRatio,
		IsGoingToBeHit:    sig.GoingToBeHit,
		HasBeenHit:        sig.HasBeenHit,
		Phase:             string(sig.Phase),
		ComputedAt:        sig.ComputedAt,
		Observed:          observed,
	}
	if sig.TimeBeforeHit != observer.InfiniteTimeBeforeHit {
		ms := sig.TimeBeforeHit.Milliseconds()
		resp.TimeBeforeHitMs = &ms
	}
	if !sig.HitTime.Equal(observer.DistantFuture) {
		t := sig.HitTime
		resp.HitDateTime = &t
	}
	return resp
}

// ScheduleResponse is the wire form of schedule.Schedule.
type ScheduleResponse struct {
	Phase      string     `json:"phase"`
	IntervalMs *int64     `json:"intervalMs"` // null means infinite
	Continuous bool       `json:"continuous"`
	NextAt     *time.Time `json:"nextAt,omitempty"`
	Reason     string     `json:"reason"`
}

// HandleStart serves POST /api/events/{id}/observation/start.
func (h *ObservationHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.mgr.Start(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": id, "observed": true})
}

// HandleStop serves POST /api/events/{id}/observation/stop. Stopping an
// event that is not observed succeeds.
func (h *ObservationHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.mgr.Stop(id)
	writeJSON(w, http.StatusOK, map[string]any{"event": id, "observed": false})
}

// HandleSignals serves GET /api/events/{id}/observation.
func (h *ObservationHandler) HandleSignals(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sig, ok := h.mgr.Signals(id)
	if !ok {
		writeError(w, http.StatusNotFound, "event has never been observed")
		return
	}
	writeJSON(w, http.StatusOK, toSignalsResponse(sig, h.mgr.IsActive(id)))
}

// HandleSchedule serves GET /api/events/{id}/schedule, the synchronous
// cadence diagnostic.
func (h *ObservationHandler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	plan, err := h.mgr.Schedule(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	resp := ScheduleResponse{
		Phase:      string(plan.Phase),
		Continuous: plan.Continuous,
		Reason:     plan.Reason,
	}
	if plan.Interval != schedule.Infinite {
		ms := plan.Interval.Milliseconds()
		resp.IntervalMs = &ms
	}
	if !plan.NextAt.IsZero() {
		t := plan.NextAt
		resp.NextAt = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleHistory serves GET /api/events/{id}/history.
func (h *ObservationHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	history := h.mgr.History(r.PathValue("id"))
	if history == nil {
		writeError(w, http.StatusNotFound, "no history for event")
		return
	}
	if limit := parseLimit(r, len(history)); limit < len(history) {
		history = history[len(history)-limit:]
	}
	writeJSON(w, http.StatusOK, history)
}

// HandleHits serves GET /api/events/{id}/hits from the journal.
func (h *ObservationHandler) HandleHits(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeError(w, http.StatusNotFound, "journal disabled")
		return
	}

	hits, err := h.journal.HitsForEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hits == nil {
		hits = []store.Hit{}
	}
	writeJSON(w, http.StatusOK, hits)
}

func parseLimit(r *http.Request, fallback int) int {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

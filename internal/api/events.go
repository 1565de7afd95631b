package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/twpayne/go-polyline"

	"worldwidewaves/pkg/catalog"
	"worldwidewaves/pkg/geo"
	"worldwidewaves/pkg/model"
	"worldwidewaves/pkg/observer"
	"worldwidewaves/pkg/wave"
)

// EventsHandler serves the event catalog.
type EventsHandler struct {
	cat *catalog.Catalog
	mgr *observer.Manager
}

// NewEventsHandler creates the catalog handler.
func NewEventsHandler(cat *catalog.Catalog, mgr *observer.Manager) *EventsHandler {
	return &EventsHandler{cat: cat, mgr: mgr}
}

// EventSummary is one catalog entry in the list response.
type EventSummary struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Status   model.Status `json:"status"`
	Start    time.Time    `json:"start"`
	End      time.Time    `json:"end"`
	BBox     []float64    `json:"bbox,omitempty"` // minLon, minLat, maxLon, maxLat
	Observed bool         `json:"observed"`
}

// EventDetail adds the wave definition and encoded geometry.
type EventDetail struct {
	EventSummary
	SpeedMS      float64    `json:"speed_ms"`
	DirectionDeg float64    `json:"direction_deg"`
	DurationS    float64    `json:"duration_s"`
	Rings        [][]string `json:"rings"` // Per polygon: encoded-polyline rings, outer first
	Front        string     `json:"front,omitempty"`
}

// HealthResponse reports liveness and the state of the loaded catalog.
type HealthResponse struct {
	Status          string    `json:"status"`
	Events          int       `json:"events"`
	ActiveObservers int       `json:"activeObservers"`
	CatalogLoadedAt time.Time `json:"catalogLoadedAt"`
}

// HandleHealth serves GET /health.
func (h *EventsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:          "ok",
		Events:          h.cat.Len(),
		ActiveObservers: len(h.mgr.Active()),
		CatalogLoadedAt: h.cat.LoadedAt(),
	})
}

// HandleList serves GET /api/events. With lat/lon query parameters the
// list is narrowed to events indexed near that position.
func (h *EventsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var events []*model.Event
	if p, ok := parseLatLon(r); ok {
		events = h.cat.EventsNear(p)
	} else {
		events = h.cat.Events()
	}

	out := make([]EventSummary, 0, len(events))
	for _, ev := range events {
		out = append(out, h.summary(ev))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet serves GET /api/events/{id}.
func (h *EventsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.cat.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown event")
		return
	}

	detail := EventDetail{
		EventSummary: h.summary(ev),
		SpeedMS:      ev.Wave.SpeedMS,
		DirectionDeg: ev.Wave.DirectionDeg,
		DurationS:    ev.Wave.Duration.Seconds(),
		Rings:        encodeAreas(ev.Areas),
	}

	// The current wavefront line, when the observer has a progression.
	if sig, found := h.mgr.Signals(ev.ID); found && sig.Progression > 0 {
		if a, b, err := wave.FrontLine(ev, sig.Progression/100); err == nil {
			detail.Front = encodeSegment(a, b)
		}
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *EventsHandler) summary(ev *model.Event) EventSummary {
	s := EventSummary{
		ID:       ev.ID,
		Name:     ev.Name,
		Status:   ev.Status,
		Start:    ev.Start,
		End:      ev.EndTime(),
		Observed: h.mgr.IsActive(ev.ID),
	}
	if bounds, err := ev.Bounds(); err == nil {
		s.BBox = []float64{bounds.MinLon, bounds.MinLat, bounds.MaxLon, bounds.MaxLat}
	} else {
		slog.Warn("API: Event has no usable bounds", "event", ev.ID, "error", err)
	}
	return s
}

func encodeAreas(areas []model.WaveArea) [][]string {
	var out [][]string
	for _, area := range areas {
		for _, poly := range area.Polygons {
			rings := make([]string, 0, len(poly.Rings))
			for _, ring := range poly.Rings {
				rings = append(rings, encodeRing(ring))
			}
			out = append(out, rings)
		}
	}
	return out
}

func encodeRing(ring geo.Ring) string {
	coords := make([][]float64, 0, len(ring))
	for _, p := range ring {
		coords = append(coords, []float64{p.Lat, p.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}

func encodeSegment(a, b geo.Point) string {
	return string(polyline.EncodeCoords([][]float64{{a.Lat, a.Lon}, {b.Lat, b.Lon}}))
}

func parseLatLon(r *http.Request) (geo.Point, bool) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		return geo.Point{}, false
	}
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lon, err2 := strconv.ParseFloat(lonStr, 64)
	if err1 != nil || err2 != nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lon: lon}, true
}

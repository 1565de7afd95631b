// Package wave computes wave progression, containment and hit prediction
// for observed events.
package wave

import (
	"log/slog"
	"sync"
	"time"

	"worldwidewaves/pkg/geo"
	"worldwidewaves/pkg/model"
)

// HistoryCapacity bounds the per-tracker snapshot history. Once full, the
// oldest snapshot is evicted first.
const HistoryCapacity = 100

// Snapshot is a point-in-time record of tracked state.
type Snapshot struct {
	Timestamp   time.Time  `json:"timestamp"`
	Progression float64    `json:"progression"`
	Position    *geo.Point `json:"position,omitempty"` // nil when no position was known yet
	InWaveArea  bool       `json:"in_wave_area"`
}

// Tracker computes progression and containment for one event and keeps a
// bounded history of recorded snapshots. Safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	history []Snapshot
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Progression converts elapsed wave time into a percentage. Done events pin
// to exactly 100, events that are not running to exactly 0. A non-positive
// wave duration is logged and reported as 0 instead of dividing by zero.
func (t *Tracker) Progression(ev *model.Event, now time.Time) float64 {
	if ev.IsDone() {
		return 100.0
	}
	if !ev.IsRunning() {
		return 0.0
	}

	total := ev.Wave.Duration
	if total <= 0 {
		slog.Warn("wave: event has non-positive wave duration", "event", ev.ID, "duration", total)
		return 0.0
	}

	elapsed := now.Sub(ev.Start)
	return clamp(float64(elapsed)/float64(total)*100.0, 0, 100)
}

// InArea reports whether pos falls inside any polygon of the area. An area
// without polygon data never matches, and internal geometry failures fail
// closed to false.
func (t *Tracker) InArea(pos geo.Point, area model.WaveArea) bool {
	if area.Empty() {
		return false
	}
	for _, poly := range area.Polygons {
		if geo.PointInRings(pos, poly.Rings) {
			return true
		}
	}
	return false
}

// InAnyArea reports whether pos falls inside any of the event's areas.
func (t *Tracker) InAnyArea(pos geo.Point, ev *model.Event) bool {
	for _, area := range ev.Areas {
		if t.InArea(pos, area) {
			return true
		}
	}
	return false
}

// RecordSnapshot computes progression and containment for the event and
// appends the result to the bounded history. The snapshot is returned so
// callers can reuse the computation.
func (t *Tracker) RecordSnapshot(ev *model.Event, pos *geo.Point, now time.Time) Snapshot {
	snap := Snapshot{
		Timestamp:   now,
		Progression: t.Progression(ev, now),
	}
	if pos != nil {
		p := *pos
		snap.Position = &p
		snap.InWaveArea = t.InAnyArea(p, ev)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = append(t.history, snap)
	if len(t.history) > HistoryCapacity {
		t.history = t.history[1:]
	}
	return snap
}

// History returns a copy of the recorded snapshots, oldest first. Mutating
// the returned slice never affects subsequent reads.
func (t *Tracker) History() []Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Snapshot, len(t.history))
	copy(out, t.history)
	for i := range out {
		if out[i].Position != nil {
			p := *out[i].Position
			out[i].Position = &p
		}
	}
	return out
}

// ClearHistory empties the buffer.
func (t *Tracker) ClearHistory() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

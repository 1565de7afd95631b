// Package model holds the wave event domain types shared across the system.
package model

import (
	"time"

	"worldwidewaves/pkg/geo"
)

// Status represents the lifecycle state of an event.
type Status string

const (
	// StatusScheduled indicates the event start is still far away.
	StatusScheduled Status = "scheduled"
	// StatusSoon indicates the event starts within the soon-window.
	StatusSoon Status = "soon"
	// StatusRunning indicates the wave is currently sweeping the area.
	StatusRunning Status = "running"
	// StatusDone indicates the wave has finished.
	StatusDone Status = "done"
)

// DefaultSoonWindow is how long before the start an event counts as "soon".
const DefaultSoonWindow = 30 * time.Minute

// Wave describes how the wavefront moves across the event area.
type Wave struct {
	SpeedMS      float64       `json:"speed_ms"`      // Propagation speed in meters per second
	DirectionDeg float64       `json:"direction_deg"` // Travel bearing in degrees (0 = north)
	Duration     time.Duration `json:"duration"`      // Approximate sweep duration
}

// Polygon is one closed area: an outer ring plus optional hole rings,
// evaluated together under the even-odd rule.
type Polygon struct {
	Rings []geo.Ring `json:"rings"`
}

// WaveArea is the region the wave can hit, made of one or more polygons.
type WaveArea struct {
	Polygons []Polygon `json:"polygons"`
}

// Empty reports whether the area carries no polygon data at all.
func (a WaveArea) Empty() bool {
	for _, p := range a.Polygons {
		for _, r := range p.Rings {
			if len(r) > 0 {
				return false
			}
		}
	}
	return true
}

// Rings flattens all rings of all polygons, for bounding box computation.
func (a WaveArea) Rings() []geo.Ring {
	var rings []geo.Ring
	for _, p := range a.Polygons {
		rings = append(rings, p.Rings...)
	}
	return rings
}

// Event is one orchestrated wave. Owned by the catalog; observers only read it.
type Event struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Start  time.Time  `json:"start"`
	End    time.Time  `json:"end,omitempty"` // Zero means derived from Start + Wave.Duration
	Wave   Wave       `json:"wave"`
	Areas  []WaveArea `json:"areas"`
	Status Status     `json:"status"`
}

// EndTime returns the explicit end when set, otherwise Start plus the wave
// duration.
func (e *Event) EndTime() time.Time {
	if !e.End.IsZero() {
		return e.End
	}
	return e.Start.Add(e.Wave.Duration)
}

// StatusAt derives the lifecycle status at the given instant.
func (e *Event) StatusAt(now time.Time, soonWindow time.Duration) Status {
	end := e.EndTime()
	switch {
	case !now.Before(end):
		return StatusDone
	case !now.Before(e.Start):
		return StatusRunning
	case !now.Before(e.Start.Add(-soonWindow)):
		return StatusSoon
	default:
		return StatusScheduled
	}
}

// IsRunning reports whether the event is currently running.
func (e *Event) IsRunning() bool {
	return e.Status == StatusRunning
}

// IsDone reports whether the event has finished.
func (e *Event) IsDone() bool {
	return e.Status == StatusDone
}

// Bounds returns the bounding box covering all wave areas.
func (e *Event) Bounds() (geo.BoundingBox, error) {
	var rings []geo.Ring
	for _, a := range e.Areas {
		rings = append(rings, a.Rings()...)
	}
	return geo.RingsBBox(rings)
}

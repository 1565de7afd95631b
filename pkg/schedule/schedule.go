package schedule

import (
	"fmt"
	"math"
	"time"

	"worldwidewaves/pkg/model"
	"worldwidewaves/pkg/wave"
)

// Phase classifies the scheduling urgency of an observed event.
type Phase string

const (
	// PhaseCritical polls fast enough to catch the instant of impact.
	PhaseCritical Phase = "critical"
	// PhasePassed means the wavefront is behind the user and polling stops.
	PhasePassed Phase = "passed"
	// PhaseDistant covers events more than an hour away.
	PhaseDistant Phase = "distant"
	// PhaseApproaching covers events a few minutes away.
	PhaseApproaching Phase = "approaching"
	// PhaseNear covers the final half minute before the start.
	PhaseNear Phase = "near"
	// PhaseActive covers a running event or the seconds right before it.
	PhaseActive Phase = "active"
	// PhaseInactive is the idle fallback for anything else.
	PhaseInactive Phase = "inactive"
)

// Infinite is the interval that terminates an observation flow.
const Infinite = time.Duration(math.MaxInt64)

const (
	hitCriticalWindow = time.Second
	hitBufferWindow   = 5 * time.Second

	distantThreshold     = 65 * time.Minute
	approachingThreshold = 5*time.Minute + 30*time.Second
	nearThreshold        = 35 * time.Second

	intervalCritical    = 50 * time.Millisecond
	intervalHitBuffer   = 200 * time.Millisecond
	intervalDistant     = time.Hour
	intervalApproaching = 5 * time.Minute
	intervalNear        = time.Second
	intervalActive      = 500 * time.Millisecond
	intervalInactive    = 30 * time.Second
)

// Decide picks the next polling interval and its phase.
//
// Hit timing is evaluated before event timing. The start time of an event
// says nothing about how close the wavefront is to the user, and checking
// it first would starve the fast polling needed around impact.
func Decide(timeBeforeEvent time.Duration, running bool, hit wave.Prediction) (time.Duration, Phase) {
	if hit.HitKnown {
		switch {
		case hit.TimeBeforeHit < 0:
			return Infinite, PhasePassed
		case hit.TimeBeforeHit < hitCriticalWindow:
			return intervalCritical, PhaseCritical
		case hit.TimeBeforeHit < hitBufferWindow:
			return intervalHitBuffer, PhaseCritical
		}
	}

	switch {
	case timeBeforeEvent > distantThreshold:
		return intervalDistant, PhaseDistant
	case timeBeforeEvent > approachingThreshold:
		return intervalApproaching, PhaseApproaching
	case timeBeforeEvent > nearThreshold:
		return intervalNear, PhaseNear
	case timeBeforeEvent > 0 || running:
		return intervalActive, PhaseActive
	default:
		return intervalInactive, PhaseInactive
	}
}

// ShouldObserveContinuously reports whether the event deserves a dedicated
// observation loop right now: it is running, or it starts within seconds.
func ShouldObserveContinuously(ev *model.Event, now time.Time) bool {
	switch ev.StatusAt(now, model.DefaultSoonWindow) {
	case model.StatusRunning:
		return true
	case model.StatusSoon:
		return ev.Start.Sub(now) <= nearThreshold
	default:
		return false
	}
}

// Schedule is a point-in-time diagnostic view of the observation cadence
// for one event. It is a pure query result and holds no live state.
type Schedule struct {
	Phase      Phase
	Interval   time.Duration
	Continuous bool
	NextAt     time.Time
	Reason     string
}

// Plan computes the Schedule for an event given the latest hit prediction.
func Plan(ev *model.Event, hit wave.Prediction, now time.Time) Schedule {
	status := ev.StatusAt(now, model.DefaultSoonWindow)
	beforeEvent := ev.Start.Sub(now)
	interval, phase := Decide(beforeEvent, status == model.StatusRunning, hit)

	s := Schedule{
		Phase:      phase,
		Interval:   interval,
		Continuous: ShouldObserveContinuously(ev, now),
		Reason:     describe(beforeEvent, status, hit, phase),
	}
	if s.Continuous && interval != Infinite {
		s.NextAt = now.Add(interval)
	}
	return s
}

func describe(beforeEvent time.Duration, status model.Status, hit wave.Prediction, phase Phase) string {
	switch phase {
	case PhasePassed:
		return "wavefront has passed the user"
	case PhaseCritical:
		return fmt.Sprintf("wavefront arrives in %s", hit.TimeBeforeHit.Round(10*time.Millisecond))
	case PhaseDistant, PhaseApproaching, PhaseNear:
		return fmt.Sprintf("event starts in %s", beforeEvent.Round(time.Second))
	case PhaseActive:
		if status == model.StatusRunning {
			return "event is running"
		}
		return fmt.Sprintf("event starts in %s", beforeEvent.Round(time.Second))
	default:
		return fmt.Sprintf("event is %s", status)
	}
}

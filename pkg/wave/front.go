package wave

import (
	"math"
	"time"

	"worldwidewaves/pkg/geo"
	"worldwidewaves/pkg/model"
)

// Prediction carries the hit-timing outputs derived from one position and
// one clock reading.
type Prediction struct {
	Ratio         float64       // fractional position along the travel axis, 0..1
	HitKnown      bool          // whether front timing is computable for this event
	HitTime       time.Time     // instant the front reaches the user's axis position
	TimeBeforeHit time.Duration // negative once the front has passed
}

// axis is the wave's travel axis across the event bounds, in local meters
// around the bounds center. proj runs along the travel direction, perp
// across it.
type axis struct {
	origin  geo.Point
	dirX    float64
	dirY    float64
	minProj float64
	maxProj float64
	minPerp float64
	maxPerp float64
}

func newAxis(ev *model.Event) (axis, error) {
	bounds, err := ev.Bounds()
	if err != nil {
		return axis{}, err
	}

	dirRad := ev.Wave.DirectionDeg * (math.Pi / 180.0)
	a := axis{
		origin: bounds.Center(),
		dirX:   math.Sin(dirRad),
		dirY:   math.Cos(dirRad),
	}

	for i, c := range bounds.Corners() {
		proj, perp := a.project(c)
		if i == 0 || proj < a.minProj {
			a.minProj = proj
		}
		if i == 0 || proj > a.maxProj {
			a.maxProj = proj
		}
		if i == 0 || perp < a.minPerp {
			a.minPerp = perp
		}
		if i == 0 || perp > a.maxPerp {
			a.maxPerp = perp
		}
	}
	return a, nil
}

func (a axis) project(p geo.Point) (proj, perp float64) {
	x, y := geo.LocalXY(p, a.origin)
	return x*a.dirX + y*a.dirY, -x*a.dirY + y*a.dirX
}

func (a axis) span() float64 {
	return a.maxProj - a.minProj
}

func (a axis) ratio(p geo.Point) float64 {
	span := a.span()
	if span <= 0 {
		return 0
	}
	proj, _ := a.project(p)
	return clamp((proj-a.minProj)/span, 0, 1)
}

// AxisRatio returns the user's fractional position along the wave's travel
// axis, clamped to [0,1]. Any geometry failure yields 0.
func AxisRatio(ev *model.Event, pos geo.Point) float64 {
	a, err := newAxis(ev)
	if err != nil {
		return 0
	}
	return a.ratio(pos)
}

// effectiveDuration is the sweep duration: the declared one when positive,
// otherwise derived from axis span and wave speed.
func effectiveDuration(ev *model.Event, span float64) (time.Duration, bool) {
	if ev.Wave.Duration > 0 {
		return ev.Wave.Duration, true
	}
	if ev.Wave.SpeedMS > 0 && span > 0 {
		return time.Duration(span / ev.Wave.SpeedMS * float64(time.Second)), true
	}
	return 0, false
}

// EffectiveDuration resolves the sweep duration for an event: the declared
// duration when positive, otherwise one derived from the area's extent along
// the travel axis and the wave speed. ok is false when neither is available.
func EffectiveDuration(ev *model.Event) (time.Duration, bool) {
	a, err := newAxis(ev)
	if err != nil {
		return 0, false
	}
	return effectiveDuration(ev, a.span())
}

// Predict computes the axis ratio and the hit clock for one position at one
// instant. When the timing is not computable HitKnown is false and callers
// fall back to sentinels.
func Predict(ev *model.Event, pos geo.Point, now time.Time) Prediction {
	a, err := newAxis(ev)
	if err != nil {
		return Prediction{}
	}

	ratio := a.ratio(pos)

	total, ok := effectiveDuration(ev, a.span())
	if !ok {
		return Prediction{Ratio: ratio}
	}

	hitTime := ev.Start.Add(time.Duration(ratio * float64(total)))
	return Prediction{
		Ratio:         ratio,
		HitKnown:      true,
		HitTime:       hitTime,
		TimeBeforeHit: hitTime.Sub(now),
	}
}

// FrontLine returns the wavefront segment across the event bounds at the
// given progression ratio (0 = trailing edge, 1 = leading edge). The segment
// runs perpendicular to the travel direction, clipped to the bounds extent.
func FrontLine(ev *model.Event, ratio float64) (geo.Point, geo.Point, error) {
	a, err := newAxis(ev)
	if err != nil {
		return geo.Point{}, geo.Point{}, err
	}
	ratio = clamp(ratio, 0, 1)
	proj := a.minProj + ratio*a.span()

	// Perpendicular unit vector is (-dirY, dirX).
	start := geo.FromLocalXY(proj*a.dirX-a.minPerp*a.dirY, proj*a.dirY+a.minPerp*a.dirX, a.origin)
	end := geo.FromLocalXY(proj*a.dirX-a.maxPerp*a.dirY, proj*a.dirY+a.maxPerp*a.dirX, a.origin)
	return start, end, nil
}

package observer

import (
	"math"
	"time"

	"worldwidewaves/pkg/geo"
	"worldwidewaves/pkg/model"
	"worldwidewaves/pkg/schedule"
)

// InfiniteTimeBeforeHit is the sentinel for an unknowable hit time.
const InfiniteTimeBeforeHit = time.Duration(math.MaxInt64)

// DistantFuture is the sentinel instant used when no hit time exists.
var DistantFuture = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// Signals is the derived state of one observed event, recomputed from a
// single consistent snapshot of event, position and clock on every tick
// or position update.
type Signals struct {
	EventID       string         `json:"eventId"`
	Status        model.Status   `json:"status"`
	Progression   float64        `json:"progression"`
	InArea        bool           `json:"isInArea"`
	PositionRatio float64        `json:"userPositionRatio"`
	GoingToBeHit  bool           `json:"isGoingToBeHit"`
	HasBeenHit    bool           `json:"hasBeenHit"`
	TimeBeforeHit time.Duration  `json:"timeBeforeHit"` // InfiniteTimeBeforeHit when unknown
	HitTime       time.Time      `json:"hitDateTime"`   // DistantFuture when unknown
	Phase         schedule.Phase `json:"phase"`
	ComputedAt    time.Time      `json:"computedAt"`
}

func defaultSignals(eventID string, status model.Status, now time.Time) Signals {
	return Signals{
		EventID:       eventID,
		Status:        status,
		TimeBeforeHit: InfiniteTimeBeforeHit,
		HitTime:       DistantFuture,
		Phase:         schedule.PhaseInactive,
		ComputedAt:    now,
	}
}

// Journal persists observation milestones. Implementations must be safe
// for concurrent use; errors are logged by the caller, never fatal.
type Journal interface {
	RecordHit(eventID string, pos geo.Point, at time.Time) error
	RecordObservation(sig Signals) error
}

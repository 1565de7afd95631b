package observer

import (
	"context"
	"log/slog"
	"time"

	"worldwidewaves/pkg/geo"
	"worldwidewaves/pkg/logging"
	"worldwidewaves/pkg/model"
	"worldwidewaves/pkg/schedule"
	"worldwidewaves/pkg/wave"
)

// observe is the per-event observation task. Every emission is computed
// from one consistent snapshot of event, position and clock; nothing is
// published after cancellation.
func (m *Manager) observe(ctx context.Context, obs *observation, eventID string, tracker *wave.Tracker) {
	defer func() {
		m.mu.Lock()
		if m.observations[eventID] == obs {
			delete(m.observations, eventID)
		}
		m.mu.Unlock()
		close(obs.done)
		slog.Info("Observer: Observation finished", "event", eventID)
	}()

	posID, posCh := m.src.Subscribe()
	defer m.src.Unsubscribe(posID)

	var hitLatched bool
	var prev Signals
	first := true

	// compute captures the position fix exactly once; the signal, the
	// history snapshot and any journaled hit all use that same fix.
	compute := func() (Signals, wave.Prediction, *geo.Point, *model.Event, bool) {
		ev, ok := m.cat.Get(eventID)
		if !ok {
			return Signals{}, wave.Prediction{}, nil, nil, false
		}
		now := m.clk.Now()

		sig := defaultSignals(eventID, ev.Status, now)
		sig.Progression = tracker.Progression(ev, now)

		var pred wave.Prediction
		var pos *geo.Point
		if fix, has := m.src.Last(); has {
			p := fix.Position
			pos = &p
			sig.InArea = tracker.InAnyArea(p, ev)
			sig.PositionRatio = wave.AxisRatio(ev, p)
			pred = wave.Predict(ev, p, now)
			if pred.HitKnown {
				sig.TimeBeforeHit = pred.TimeBeforeHit
				sig.HitTime = pred.HitTime
			}
		}
		return sig, pred, pos, ev, true
	}

	decide := func(sig Signals, pred wave.Prediction, ev *model.Event) (time.Duration, schedule.Phase) {
		return schedule.Decide(ev.Start.Sub(sig.ComputedAt), ev.Status == model.StatusRunning, pred)
	}

	emit := func(sig Signals, pred wave.Prediction, pos *geo.Point, ev *model.Event) bool {
		if !hitLatched && sig.InArea && pred.HitKnown && pred.TimeBeforeHit <= 0 {
			hitLatched = true
			slog.Info("Observer: Wavefront reached user", "event", eventID, "at", sig.ComputedAt)
			if m.journal != nil && pos != nil {
				if err := m.journal.RecordHit(eventID, *pos, sig.ComputedAt); err != nil {
					slog.Warn("Observer: Failed to journal hit", "event", eventID, "error", err)
				}
			}
		}
		sig.HasBeenHit = hitLatched
		sig.GoingToBeHit = !hitLatched && sig.InArea && pred.HitKnown && pred.TimeBeforeHit > 0
		_, sig.Phase = decide(sig, pred, ev)

		tracker.RecordSnapshot(ev, pos, sig.ComputedAt)

		logging.Trace("Observer: Signals emitted", "event", eventID,
			"phase", sig.Phase, "progression", sig.Progression, "inArea", sig.InArea)

		m.publish(sig)

		if m.journal != nil && (first || transitioned(prev, sig)) {
			if err := m.journal.RecordObservation(sig); err != nil {
				slog.Warn("Observer: Failed to journal observation", "event", eventID, "error", err)
			}
		}
		prev = sig
		first = false
		return ev.IsDone()
	}

	next := func(time.Time) (time.Duration, schedule.Phase) {
		sig, pred, _, ev, ok := compute()
		if !ok {
			return schedule.Infinite, schedule.PhaseInactive
		}
		return decide(sig, pred, ev)
	}

	// Flow goroutines forward ticks here; a stale tick is dropped rather
	// than queued so the loop never processes outdated cadence.
	startFlow := func() (context.CancelFunc, chan struct{}, chan struct{}) {
		ticks := make(chan struct{}, 1)
		fin := make(chan struct{})
		fctx, fcancel := context.WithCancel(ctx)
		go func() {
			defer close(fin)
			schedule.Flow(fctx, m.clk, next, func(time.Time, schedule.Phase) {
				select {
				case ticks <- struct{}{}:
				default:
				}
			})
		}()
		return fcancel, ticks, fin
	}

	sig, pred, pos, ev, ok := compute()
	if !ok {
		slog.Warn("Observer: Event disappeared from catalog", "event", eventID)
		return
	}
	if emit(sig, pred, pos, ev) {
		return
	}

	fcancel, ticks, flowFin := startFlow()
	defer func() { fcancel() }()

	// Safety net: wake exactly at the event's end so the final snapshot
	// is published even when ticks and position updates have dried up.
	endTimer := time.NewTimer(endWait(ev, m.clk.Now()))
	defer endTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-flowFin:
			// The flow ran out: the wavefront is behind the user.
			// Position updates and the end-of-event wakeup take over.
			flowFin = nil

		case <-ticks:
			sig, pred, pos, ev, ok := compute()
			if !ok || emit(sig, pred, pos, ev) {
				return
			}

		case _, chOpen := <-posCh:
			if !chOpen {
				posCh = nil
				continue
			}
			sig, pred, pos, ev, ok := compute()
			if !ok || emit(sig, pred, pos, ev) {
				return
			}
			// A user who outran the wavefront needs ticks again.
			if flowFin == nil {
				if interval, _ := decide(sig, pred, ev); interval != schedule.Infinite {
					fcancel()
					fcancel, ticks, flowFin = startFlow()
				}
			}

		case <-endTimer.C:
			sig, pred, pos, ev, ok := compute()
			if !ok || emit(sig, pred, pos, ev) {
				return
			}
			endTimer.Reset(endWait(ev, m.clk.Now()))
		}
	}
}

func endWait(ev *model.Event, now time.Time) time.Duration {
	d := ev.EndTime().Sub(now) + 50*time.Millisecond
	if d < 50*time.Millisecond {
		d = 50 * time.Millisecond
	}
	return d
}

func transitioned(prev, cur Signals) bool {
	return prev.Status != cur.Status ||
		prev.InArea != cur.InArea ||
		prev.GoingToBeHit != cur.GoingToBeHit ||
		prev.HasBeenHit != cur.HasBeenHit ||
		prev.Phase != cur.Phase
}

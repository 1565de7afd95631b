package schedule

import (
	"context"
	"log/slog"
	"time"

	"worldwidewaves/pkg/clock"
	"worldwidewaves/pkg/logging"
)

// Flow drives one event's observation loop. It calls next before every
// wait so the cadence tightens as the wavefront approaches, waits out the
// returned interval, then calls fn once. It returns when next yields
// Infinite (the wave is behind the user, a normal stop) or when ctx is
// cancelled.
func Flow(ctx context.Context, clk clock.Clock, next func(now time.Time) (time.Duration, Phase), fn func(now time.Time, phase Phase)) {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		interval, phase := next(clk.Now())
		if interval == Infinite {
			slog.Debug("observation flow finished", "phase", phase)
			return
		}

		logging.Trace("Flow: Tick scheduled", "phase", phase, "interval", interval)

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			fn(clk.Now(), phase)
		}
	}
}

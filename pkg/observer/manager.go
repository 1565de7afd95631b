package observer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"worldwidewaves/pkg/catalog"
	"worldwidewaves/pkg/clock"
	"worldwidewaves/pkg/config"
	"worldwidewaves/pkg/position"
	"worldwidewaves/pkg/schedule"
	"worldwidewaves/pkg/wave"
)

// Manager owns at most one observation task per event. It hands out the
// latest Signals, streams them to subscribers and keeps a per-event
// progression history.
type Manager struct {
	cat     *catalog.Catalog
	src     position.Source
	clk     clock.Clock
	journal Journal
	buffer  int

	mu           sync.Mutex
	observations map[string]*observation
	trackers     map[string]*wave.Tracker

	sigMu   sync.RWMutex
	signals map[string]Signals
	subs    map[uuid.UUID]chan Signals
}

type observation struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager wires the observer against its collaborators. journal may
// be nil when nothing should be persisted.
func NewManager(cat *catalog.Catalog, src position.Source, clk clock.Clock, journal Journal, cfg config.ObserverConfig) *Manager {
	buffer := cfg.SignalBuffer
	if buffer <= 0 {
		buffer = 16
	}
	return &Manager{
		cat:          cat,
		src:          src,
		clk:          clk,
		journal:      journal,
		buffer:       buffer,
		observations: make(map[string]*observation),
		trackers:     make(map[string]*wave.Tracker),
		signals:      make(map[string]Signals),
		subs:         make(map[uuid.UUID]chan Signals),
	}
}

// Start begins observing an event. Calling it for an event that is
// already observed is a no-op, never an error and never a second task.
func (m *Manager) Start(eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, running := m.observations[eventID]; running {
		slog.Debug("Observer: Already observing", "event", eventID)
		return nil
	}

	ev, ok := m.cat.Get(eventID)
	if !ok {
		return fmt.Errorf("unknown event %s", eventID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	obs := &observation{cancel: cancel, done: make(chan struct{})}
	tracker := wave.NewTracker()

	m.observations[eventID] = obs
	m.trackers[eventID] = tracker

	m.sigMu.Lock()
	m.signals[eventID] = defaultSignals(eventID, ev.Status, m.clk.Now())
	m.sigMu.Unlock()

	go m.observe(ctx, obs, eventID, tracker)
	slog.Info("Observer: Observation started", "event", eventID, "name", ev.Name)
	return nil
}

// Stop ends an event's observation and waits for its task to exit.
// Stopping an event that is not observed is a no-op.
func (m *Manager) Stop(eventID string) {
	m.mu.Lock()
	obs, ok := m.observations[eventID]
	if ok {
		delete(m.observations, eventID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	obs.cancel()
	<-obs.done
	slog.Info("Observer: Observation stopped", "event", eventID)
}

// StopAll stops every active observation.
func (m *Manager) StopAll() {
	for _, id := range m.Active() {
		m.Stop(id)
	}
}

// Active returns the ids of the currently observed events, sorted.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.observations))
	for id := range m.observations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsActive reports whether the event is currently observed.
func (m *Manager) IsActive(eventID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.observations[eventID]
	return ok
}

// SyncAuto starts observations for all events that should be watched
// continuously right now and returns the ids it started.
func (m *Manager) SyncAuto() []string {
	now := m.clk.Now()
	var started []string
	for _, ev := range m.cat.Events() {
		if ev.IsDone() || m.IsActive(ev.ID) {
			continue
		}
		if !schedule.ShouldObserveContinuously(ev, now) {
			continue
		}
		if err := m.Start(ev.ID); err != nil {
			slog.Warn("Observer: Auto start failed", "event", ev.ID, "error", err)
			continue
		}
		started = append(started, ev.ID)
	}
	return started
}

// Signals returns the latest derived state for an event. Before the
// first computation these are the documented defaults; after a stop the
// last published values remain readable.
func (m *Manager) Signals(eventID string) (Signals, bool) {
	m.sigMu.RLock()
	defer m.sigMu.RUnlock()
	sig, ok := m.signals[eventID]
	return sig, ok
}

// History returns a copy of the event's progression history.
func (m *Manager) History(eventID string) []wave.Snapshot {
	m.mu.Lock()
	tracker, ok := m.trackers[eventID]
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return tracker.History()
}

// Schedule answers the diagnostic schedule query for an event using the
// latest known position. It never mutates observation state.
func (m *Manager) Schedule(eventID string) (schedule.Schedule, error) {
	ev, ok := m.cat.Get(eventID)
	if !ok {
		return schedule.Schedule{}, fmt.Errorf("unknown event %s", eventID)
	}

	now := m.clk.Now()
	var pred wave.Prediction
	if fix, has := m.src.Last(); has {
		pred = wave.Predict(ev, fix.Position, now)
	}
	return schedule.Plan(ev, pred, now), nil
}

// Subscribe registers a consumer for the signal stream of all observed
// events. The channel is closed by Unsubscribe.
func (m *Manager) Subscribe() (uuid.UUID, <-chan Signals) {
	m.sigMu.Lock()
	defer m.sigMu.Unlock()

	id := uuid.New()
	ch := make(chan Signals, m.buffer)
	m.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a consumer and closes its channel.
func (m *Manager) Unsubscribe(id uuid.UUID) {
	m.sigMu.Lock()
	defer m.sigMu.Unlock()

	if ch, ok := m.subs[id]; ok {
		delete(m.subs, id)
		close(ch)
	}
}

func (m *Manager) publish(sig Signals) {
	m.sigMu.Lock()
	m.signals[sig.EventID] = sig

	for id, ch := range m.subs {
		select {
		case ch <- sig:
		default:
			// Full buffer: drop the oldest signal so the fresh one lands.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- sig:
			default:
				slog.Debug("Observer: Signal dropped", "subscriber", id)
			}
		}
	}
	m.sigMu.Unlock()
}

package position

import (
	"testing"
	"time"

	"worldwidewaves/pkg/clock"
	"worldwidewaves/pkg/config"
	"worldwidewaves/pkg/geo"
)

func walkerConfig() config.WalkerConfig {
	return config.WalkerConfig{
		StartLat:   48.8584,
		StartLon:   2.2945,
		SpeedKmh:   36.0, // 10 m/s keeps the numbers easy
		HeadingDeg: 90.0,
		Interval:   config.Duration(10 * time.Millisecond),
	}
}

func TestWalker_MovesEast(t *testing.T) {
	hub := NewHub(16)
	id, ch := hub.Subscribe()
	defer hub.Unsubscribe(id)

	w := NewWalker(walkerConfig(), hub, clock.System{})
	defer w.Close()

	first := <-ch // starting fix
	var last Update
	for i := 0; i < 3; i++ {
		select {
		case last = <-ch:
		case <-time.After(time.Second):
			t.Fatal("walker stopped publishing")
		}
	}

	if last.Position.Lon <= first.Position.Lon {
		t.Errorf("walker heading east should gain longitude: %v -> %v", first.Position, last.Position)
	}
	if diff := last.Position.Lat - first.Position.Lat; diff > 0.0001 || diff < -0.0001 {
		t.Errorf("walker heading east should hold latitude, drifted %v", diff)
	}

	// Three 10ms steps at 10 m/s is 0.3m; allow generous ticker jitter.
	dist := geo.Distance(first.Position, last.Position)
	if dist < 0.1 || dist > 5 {
		t.Errorf("walked %vm in 3 steps, want roughly 0.3m", dist)
	}
}

func TestWalker_Teleport(t *testing.T) {
	hub := NewHub(16)
	cfg := walkerConfig()
	cfg.Interval = config.Duration(time.Hour) // no ticks during the test
	w := NewWalker(cfg, hub, clock.System{})
	defer w.Close()

	target := geo.Point{Lat: 35.6586, Lon: 139.7454}
	w.Teleport(target)

	got := w.Position()
	if got != target {
		t.Errorf("Position() = %v, want %v", got, target)
	}

	last, ok := hub.Last()
	if !ok || geo.Distance(last.Position, target) > 20 {
		t.Errorf("teleport fix not published, last = %v", last.Position)
	}
}

func TestWalker_CloseStops(t *testing.T) {
	hub := NewHub(16)
	w := NewWalker(walkerConfig(), hub, clock.System{})

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	before, _ := hub.Last()
	time.Sleep(30 * time.Millisecond)
	after, _ := hub.Last()

	if before.Position != after.Position {
		t.Error("walker kept publishing after Close")
	}
}

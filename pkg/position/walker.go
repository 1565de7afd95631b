package position

import (
	"log/slog"
	"sync"
	"time"

	"worldwidewaves/pkg/clock"
	"worldwidewaves/pkg/config"
	"worldwidewaves/pkg/geo"
)

// Walker simulates a pedestrian moving at constant speed and heading,
// publishing a fix into a Hub on every tick. It is the deterministic
// stand-in for a real positioning device.
type Walker struct {
	hub *Hub
	clk clock.Clock

	mu      sync.Mutex
	pos     geo.Point
	heading float64
	speedMS float64

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewWalker starts the walking loop immediately.
func NewWalker(cfg config.WalkerConfig, hub *Hub, clk clock.Clock) *Walker {
	interval := cfg.Interval.Std()
	if interval <= 0 {
		interval = time.Second
	}

	w := &Walker{
		hub:      hub,
		clk:      clk,
		pos:      geo.Point{Lat: cfg.StartLat, Lon: cfg.StartLon},
		heading:  cfg.HeadingDeg,
		speedMS:  cfg.SpeedKmh / 3.6,
		interval: interval,
		stopCh:   make(chan struct{}),
	}

	// Publish the starting fix so consumers have one before the first tick.
	w.hub.Publish(Update{Position: w.pos, Time: w.clk.Now()})

	w.wg.Add(1)
	go w.loop()

	slog.Info("Walker started", "lat", cfg.StartLat, "lon", cfg.StartLon, "speed_kmh", cfg.SpeedKmh, "heading", cfg.HeadingDeg)
	return w
}

// Close stops the walking loop and waits for it to exit.
func (w *Walker) Close() error {
	close(w.stopCh)
	w.wg.Wait()
	return nil
}

// Teleport moves the walker instantly and publishes the new fix.
func (w *Walker) Teleport(p geo.Point) {
	w.mu.Lock()
	w.pos = p
	w.mu.Unlock()

	w.hub.Publish(Update{Position: p, Time: w.clk.Now()})
	slog.Info("Walker teleported", "lat", p.Lat, "lon", p.Lon)
}

// SetHeading changes the walking direction in degrees clockwise from north.
func (w *Walker) SetHeading(deg float64) {
	w.mu.Lock()
	w.heading = geo.NormalizeAngle(deg)
	w.mu.Unlock()
}

// Position returns the walker's current location.
func (w *Walker) Position() geo.Point {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pos
}

func (w *Walker) loop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.step()
		}
	}
}

func (w *Walker) step() {
	w.mu.Lock()
	dist := w.speedMS * w.interval.Seconds()
	w.pos = geo.DestinationPoint(w.pos, dist, w.heading)
	fix := Update{Position: w.pos, Time: w.clk.Now()}
	w.mu.Unlock()

	w.hub.Publish(fix)
}

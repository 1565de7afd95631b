package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"worldwidewaves/pkg/clock"
	"worldwidewaves/pkg/config"
	"worldwidewaves/pkg/geo"
	"worldwidewaves/pkg/model"
)

// Catalog holds the known wave events, keeps their statuses current and
// answers spatial queries. All reads return copies; the underlying area
// geometry is shared and treated as read-only after load.
type Catalog struct {
	clk  clock.Clock
	path string
	soon time.Duration
	res  int

	mu       sync.RWMutex
	events   map[string]*model.Event
	index    *spatialIndex
	mtime    time.Time
	loadedAt time.Time
}

// New loads the catalog from cfg.Path and builds the spatial index.
func New(cfg config.CatalogConfig, clk clock.Clock) (*Catalog, error) {
	soon := cfg.SoonWindow.Std()
	if soon <= 0 {
		soon = model.DefaultSoonWindow
	}

	c := &Catalog{
		clk:  clk,
		path: cfg.Path,
		soon: soon,
		res:  cfg.IndexResolution,
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the catalog file and swaps the event set atomically.
func (c *Catalog) Reload() error {
	events, err := loadFile(c.path)
	if err != nil {
		return err
	}

	info, err := os.Stat(c.path)
	if err != nil {
		return fmt.Errorf("failed to stat catalog: %w", err)
	}

	now := c.clk.Now()
	for _, ev := range events {
		ev.Status = ev.StatusAt(now, c.soon)
	}

	index := buildIndex(events, c.res)

	c.mu.Lock()
	c.events = events
	c.index = index
	c.mtime = info.ModTime()
	c.loadedAt = now
	c.mu.Unlock()
	return nil
}

// ReloadIfChanged reloads the catalog when the file has been modified
// since the last load. It reports whether a reload happened.
func (c *Catalog) ReloadIfChanged() (bool, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		return false, fmt.Errorf("failed to stat catalog: %w", err)
	}

	c.mu.RLock()
	changed := info.ModTime().After(c.mtime)
	c.mu.RUnlock()

	if !changed {
		return false, nil
	}
	slog.Info("Catalog: File changed, reloading", "path", c.path)
	return true, c.Reload()
}

// Get returns a copy of the event with its status derived at call time.
func (c *Catalog) Get(id string) (*model.Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ev, ok := c.events[id]
	if !ok {
		return nil, false
	}
	return c.freshCopy(ev), true
}

// Events returns copies of all events sorted by start time, statuses
// derived at call time.
func (c *Catalog) Events() []*model.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*model.Event, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, c.freshCopy(ev))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// EventsNear returns copies of the events indexed around p, closest
// area first. When the spatial lookup fails it degrades to scanning the
// whole catalog.
func (c *Catalog) EventsNear(p geo.Point) []*model.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids, ok := c.index.near(p, 1)
	if !ok {
		ids = make([]string, 0, len(c.events))
		for id := range c.events {
			ids = append(ids, id)
		}
	}

	out := make([]*model.Event, 0, len(ids))
	for _, id := range ids {
		if ev, found := c.events[id]; found {
			out = append(out, c.freshCopy(ev))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return centerDistance(out[i], p) < centerDistance(out[j], p)
	})
	return out
}

// RefreshStatuses re-derives every event's status, logs transitions and
// returns copies of the events that changed.
func (c *Catalog) RefreshStatuses() []*model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.Now()
	var changed []*model.Event
	for _, ev := range c.events {
		next := ev.StatusAt(now, c.soon)
		if next == ev.Status {
			continue
		}
		slog.Info("Catalog: Event status changed", "id", ev.ID, "name", ev.Name, "from", ev.Status, "to", next)
		ev.Status = next

		cp := *ev
		changed = append(changed, &cp)
	}
	return changed
}

// SoonWindow returns how long before its start an event counts as soon.
func (c *Catalog) SoonWindow() time.Duration {
	return c.soon
}

// Len returns the number of loaded events.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.events)
}

// LoadedAt returns when the catalog was last (re)loaded.
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

func (c *Catalog) freshCopy(ev *model.Event) *model.Event {
	cp := *ev
	cp.Status = ev.StatusAt(c.clk.Now(), c.soon)
	return &cp
}

func centerDistance(ev *model.Event, p geo.Point) float64 {
	bounds, err := ev.Bounds()
	if err != nil {
		return geo.EarthRadiusM // sort events without usable bounds last
	}
	return geo.Distance(bounds.Center(), p)
}

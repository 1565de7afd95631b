package api

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"worldwidewaves/pkg/catalog"
	"worldwidewaves/pkg/clock"
	"worldwidewaves/pkg/config"
	"worldwidewaves/pkg/observer"
	"worldwidewaves/pkg/position"
)

// testEnv wires the API against a sample catalog, a fake clock and a
// position hub, routed through the real server mux.
type testEnv struct {
	handler http.Handler
	cat     *catalog.Catalog
	mgr     *observer.Manager
	hub     *position.Hub
	clk     *clock.Fake
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	now := time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFake(now)

	path := filepath.Join(t.TempDir(), "events.geojson")
	if err := catalog.WriteSample(path, now); err != nil {
		t.Fatalf("failed to write sample catalog: %v", err)
	}

	cat, err := catalog.New(config.CatalogConfig{
		Path:            path,
		SoonWindow:      config.Duration(30 * time.Minute),
		IndexResolution: 6,
	}, clk)
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	hub := position.NewHub(4)
	mgr := observer.NewManager(cat, hub, clk, nil, config.ObserverConfig{})
	t.Cleanup(mgr.StopAll)

	srv := NewServer("localhost:0",
		NewEventsHandler(cat, mgr),
		NewObservationHandler(mgr, nil),
		NewPositionHandler(hub, clk),
		NewStreamHandler(mgr),
		func() {},
	)

	return &testEnv{handler: srv.Handler, cat: cat, mgr: mgr, hub: hub, clk: clk}
}

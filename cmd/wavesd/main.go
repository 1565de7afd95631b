// wavesd is the WorldWideWaves daemon: it hosts the event catalog, the
// position hub and the observation manager, and exposes them over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"worldwidewaves/internal/api"
	"worldwidewaves/pkg/catalog"
	"worldwidewaves/pkg/clock"
	"worldwidewaves/pkg/config"
	"worldwidewaves/pkg/logging"
	"worldwidewaves/pkg/observer"
	"worldwidewaves/pkg/position"
	"worldwidewaves/pkg/probe"
	"worldwidewaves/pkg/store"
)

var (
	configPath = flag.String("config", "configs/waves.yaml", "Path to config file")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	useWalker  = flag.Bool("walker", false, "Feed positions from the simulated walker instead of the API gateway")
)

func main() {
	// A .env next to the binary may carry deployment overrides.
	_ = godotenv.Load()
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := run(context.Background(), *configPath, *useWalker); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Daemon failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, forceWalker bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("WorldWideWaves Started", "address", cfg.Server.Address)

	clk := clock.System{}

	// Journal (optional: an empty path disables persistence entirely).
	var journal *store.Store
	if cfg.DB.Path != "" {
		journal, err = store.Open(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer journal.Close()
	}

	// Catalog, seeded with the demo events on a fresh install.
	if _, statErr := os.Stat(cfg.Catalog.Path); os.IsNotExist(statErr) {
		slog.Info("Catalog file missing, writing sample", "path", cfg.Catalog.Path)
		if err := catalog.WriteSample(cfg.Catalog.Path, clk.Now()); err != nil {
			return fmt.Errorf("failed to write sample catalog: %w", err)
		}
	}
	cat, err := catalog.New(cfg.Catalog, clk)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	// Position source. The walker publishes into the hub, so the hub is
	// the single source either way.
	hub := position.NewHub(cfg.Observer.SignalBuffer)
	if forceWalker || cfg.Position.Provider == "walker" {
		walker := position.NewWalker(cfg.Position.Walker, hub, clk)
		defer walker.Close()
		slog.Info("Position source: simulated walker",
			"lat", cfg.Position.Walker.StartLat, "lon", cfg.Position.Walker.StartLon,
			"speed_kmh", cfg.Position.Walker.SpeedKmh)
	} else {
		slog.Info("Position source: API gateway")
	}

	var journalSink observer.Journal
	if journal != nil {
		journalSink = journal
	}
	mgr := observer.NewManager(cat, hub, clk, journalSink, cfg.Observer)
	defer mgr.StopAll()

	// Startup Probes
	probes := []probe.Probe{
		{
			Name: "Event Catalog",
			Check: func(context.Context) error {
				if cat.Len() == 0 {
					return fmt.Errorf("no events loaded")
				}
				return nil
			},
			Critical: true,
		},
	}
	if journal != nil {
		probes = append(probes, probe.Probe{
			Name: "Journal DB",
			Check: func(c context.Context) error {
				_, err := journal.HitsForEvent(c, "startup-probe")
				return err
			},
			Critical: false,
		})
	}
	results := probe.Run(ctx, probes)
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	go refreshLoop(ctx, cfg, cat, mgr, journal)

	return runServer(ctx, cfg, cat, mgr, hub, clk, journal)
}

// refreshLoop keeps statuses current, picks up catalog file edits,
// auto-starts observations for events that become due and trims old
// journal entries.
func refreshLoop(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, mgr *observer.Manager, journal *store.Store) {
	interval := cfg.Catalog.Refresh.Std()
	if interval <= 0 {
		interval = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	pruneTicker := time.NewTicker(time.Hour)
	defer pruneTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pruneTicker.C:
			if journal != nil && cfg.DB.Retention.Std() > 0 {
				if err := journal.Prune(cfg.DB.Retention.Std()); err != nil {
					slog.Warn("Journal prune failed", "error", err)
				}
			}
		case <-ticker.C:
			if _, err := cat.ReloadIfChanged(); err != nil {
				slog.Warn("Catalog reload failed", "error", err)
			}
			cat.RefreshStatuses()
			if cfg.Observer.AutoStart {
				if started := mgr.SyncAuto(); len(started) > 0 {
					slog.Info("Auto-started observations", "events", started)
				}
			}
		}
	}
}

func runServer(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, mgr *observer.Manager, hub *position.Hub, clk clock.Clock, journal *store.Store) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address,
		api.NewEventsHandler(cat, mgr),
		api.NewObservationHandler(mgr, journal),
		api.NewPositionHandler(hub, clk),
		api.NewStreamHandler(mgr),
		shutdownFunc,
	)
	srv.Handler = loggingMiddleware(srv.Handler)

	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	DB       DBConfig       `yaml:"db"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Position PositionConfig `yaml:"position"`
	Observer ObserverConfig `yaml:"observer"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	Trace    bool        `yaml:"trace"` // Per-tick trace logging in observation loops
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds journal database settings.
type DBConfig struct {
	Path      string   `yaml:"path"`
	Retention Duration `yaml:"retention"` // How long journaled observations are kept
}

// CatalogConfig holds event catalog settings.
type CatalogConfig struct {
	Path            string   `yaml:"path"`             // GeoJSON file with the event features
	SoonWindow      Duration `yaml:"soon_window"`      // How long before start an event counts as soon
	Refresh         Duration `yaml:"refresh"`          // Status refresh cadence
	IndexResolution int      `yaml:"index_resolution"` // H3 resolution for the spatial index
}

// PositionConfig holds settings for the position source.
type PositionConfig struct {
	Provider string       `yaml:"provider"` // "api", "walker"
	Walker   WalkerConfig `yaml:"walker"`
}

// WalkerConfig holds settings for the simulated walker.
type WalkerConfig struct {
	StartLat   float64  `yaml:"start_lat"`
	StartLon   float64  `yaml:"start_lon"`
	SpeedKmh   float64  `yaml:"speed_kmh"`
	HeadingDeg float64  `yaml:"heading_deg"`
	Interval   Duration `yaml:"interval"`
}

// ObserverConfig holds settings for the observation manager.
type ObserverConfig struct {
	AutoStart    bool `yaml:"auto_start"`    // Start observing soon/running events automatically
	SignalBuffer int  `yaml:"signal_buffer"` // Per-subscriber channel depth
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "localhost:1986",
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/wavesd.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path:      "./data/waves.db",
			Retention: Duration(7 * 24 * time.Hour),
		},
		Catalog: CatalogConfig{
			Path:            "./data/events.geojson",
			SoonWindow:      Duration(30 * time.Minute),
			Refresh:         Duration(10 * time.Second),
			IndexResolution: 6,
		},
		Position: PositionConfig{
			Provider: "api",
			Walker: WalkerConfig{
				StartLat:   48.8584,
				StartLon:   2.2945,
				SpeedKmh:   4.5,
				HeadingDeg: 90.0,
				Interval:   Duration(1 * time.Second),
			},
		},
		Observer: ObserverConfig{
			AutoStart:    true,
			SignalBuffer: 16,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	// Read existing file if it exists
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		applyEnvFallbacks(cfg)
		return cfg, nil
	}

	// If file does not exist, save defaults
	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnvFallbacks(cfg)
	return cfg, nil
}

// applyEnvFallbacks fills settings from the environment. Env values win over
// file values for deployment overrides, but are never saved back to disk.
func applyEnvFallbacks(cfg *Config) {
	if addr := os.Getenv("WWW_ADDRESS"); addr != "" {
		cfg.Server.Address = addr
	}
	if path := os.Getenv("WWW_DB_PATH"); path != "" {
		cfg.DB.Path = path
	}
	if path := os.Getenv("WWW_CATALOG_PATH"); path != "" {
		cfg.Catalog.Path = path
	}
	if level := os.Getenv("WWW_LOG_LEVEL"); level != "" {
		cfg.Log.Server.Level = level
	}
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# WorldWideWaves Configuration
# ----------------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)

`)
	data = append(header, data...)

	// Inject comments for Enum fields
	// We use regex to find the keys with indentation to ensure we place comments correctly.

	// Position Provider Options
	reProvider := regexp.MustCompile(`(?m)^(\s+)provider:`)
	data = reProvider.ReplaceAll(data, []byte("${1}# Options: api, walker\n${1}provider:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return nil // File exists, do nothing
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write default config
	return Save(path, DefaultConfig())
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "wavesd.yaml")

	tests := []struct {
		name          string
		setup         func(t *testing.T)
		validate      func(*testing.T, *Config)
		checkFile     func(*testing.T)
		expectedError bool
	}{
		{
			name:  "NewFile_Defaults",
			setup: func(t *testing.T) {}, // No file
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Server.Address != "localhost:1986" {
					t.Errorf("expected default address 'localhost:1986', got '%s'", cfg.Server.Address)
				}
				if cfg.Catalog.IndexResolution != 6 {
					t.Errorf("expected default index resolution 6, got %d", cfg.Catalog.IndexResolution)
				}
				if cfg.Catalog.SoonWindow.Std() != 30*time.Minute {
					t.Errorf("expected default soon window 30m, got %v", cfg.Catalog.SoonWindow.Std())
				}
				if cfg.DB.Retention.Std() != 7*24*time.Hour {
					t.Errorf("expected default retention 7d, got %v", cfg.DB.Retention.Std())
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if !strings.Contains(string(content), "address: localhost:1986") {
					t.Error("config file missing default values")
				}
				if !strings.Contains(string(content), "# Options: api, walker") {
					t.Error("config file missing provider options comment")
				}
			},
		},
		{
			name: "ExistingFile_Override",
			setup: func(t *testing.T) {
				err := os.WriteFile(configPath, []byte("server:\n  address: 0.0.0.0:9100\nposition:\n  provider: walker\n  walker:\n    speed_kmh: 6.0\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Server.Address != "0.0.0.0:9100" {
					t.Errorf("expected address '0.0.0.0:9100', got '%s'", cfg.Server.Address)
				}
				if cfg.Position.Provider != "walker" {
					t.Errorf("expected provider 'walker', got '%s'", cfg.Position.Provider)
				}
				if cfg.Position.Walker.SpeedKmh != 6.0 {
					t.Errorf("expected walker speed 6.0, got %v", cfg.Position.Walker.SpeedKmh)
				}
				// Untouched fields keep defaults.
				if cfg.DB.Path != "./data/waves.db" {
					t.Errorf("expected default db path, got '%s'", cfg.DB.Path)
				}
			},
			checkFile: func(t *testing.T) {
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if !strings.Contains(string(content), "address: 0.0.0.0:9100") {
					t.Error("config file should keep custom value")
				}
			},
		},
		{
			name: "Env_Override",
			setup: func(t *testing.T) {
				t.Setenv("WWW_ADDRESS", "0.0.0.0:2000")
				t.Setenv("WWW_LOG_LEVEL", "DEBUG")
				err := os.WriteFile(configPath, []byte("server:\n  address: localhost:1111\n"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Server.Address != "0.0.0.0:2000" {
					t.Errorf("expected env address, got '%s'", cfg.Server.Address)
				}
				if cfg.Log.Server.Level != "DEBUG" {
					t.Errorf("expected env log level, got '%s'", cfg.Log.Server.Level)
				}
			},
			checkFile: func(t *testing.T) {
				// Env overrides should NOT be saved to disk.
				content, err := os.ReadFile(configPath)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if strings.Contains(string(content), "0.0.0.0:2000") {
					t.Error("env override should not be persisted to config file")
				}
			},
		},
		{
			name: "Invalid_YAML",
			setup: func(t *testing.T) {
				err := os.WriteFile(configPath, []byte("catalog: [not a map]"), 0o644)
				if err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Remove(configPath)
			tt.setup(t)

			cfg, err := Load(configPath)
			if (err != nil) != tt.expectedError {
				t.Fatalf("Load() error = %v, expectedError %v", err, tt.expectedError)
			}
			if err == nil {
				tt.validate(t, cfg)
				tt.checkFile(t)
			}
		})
	}
}

func TestGenerateDefault(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "default_config.yaml")

	err := GenerateDefault(configPath)
	if err != nil {
		t.Fatalf("GenerateDefault() error = %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("GenerateDefault() did not create file")
	}

	// Running again should not fail
	err = GenerateDefault(configPath)
	if err != nil {
		t.Errorf("GenerateDefault() error on second run = %v", err)
	}
}

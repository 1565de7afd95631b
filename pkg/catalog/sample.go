package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// WriteSample writes a small demo catalog so a fresh install has
// something to observe: one wave starting in two minutes over Paris and
// one starting in an hour over Tokyo.
func WriteSample(path string, now time.Time) error {
	fc := geojson.NewFeatureCollection()

	paris := geojson.NewFeature(orb.Polygon{{
		{2.2, 48.8},
		{2.5, 48.8},
		{2.5, 48.9},
		{2.2, 48.9},
		{2.2, 48.8},
	}})
	paris.Properties = geojson.Properties{
		"id":            "demo-paris",
		"name":          "Paris Demo Wave",
		"start":         now.Add(2 * time.Minute).Format(time.RFC3339),
		"speed_ms":      5.0,
		"direction_deg": 90.0,
		"duration_s":    3600.0,
	}
	fc.Append(paris)

	tokyo := geojson.NewFeature(orb.Polygon{{
		{139.6, 35.6},
		{139.9, 35.6},
		{139.9, 35.8},
		{139.6, 35.8},
		{139.6, 35.6},
	}})
	tokyo.Properties = geojson.Properties{
		"id":            "demo-tokyo",
		"name":          "Tokyo Demo Wave",
		"start":         now.Add(time.Hour).Format(time.RFC3339),
		"speed_ms":      8.0,
		"direction_deg": 0.0,
		"duration_s":    5400.0,
	}
	fc.Append(tokyo)

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sample catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write sample catalog: %w", err)
	}
	return nil
}

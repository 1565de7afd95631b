package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"worldwidewaves/pkg/geo"
	"worldwidewaves/pkg/model"
	"worldwidewaves/pkg/wave"
)

// loadFile reads a GeoJSON FeatureCollection of wave events. Malformed
// features are skipped with a warning; a file that yields no usable
// event at all is an error.
func loadFile(path string) (map[string]*model.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog GeoJSON: %w", err)
	}

	events := make(map[string]*model.Event)
	for i, f := range fc.Features {
		ev, err := parseFeature(f)
		if err != nil {
			slog.Warn("Catalog: Skipping feature", "index", i, "error", err)
			continue
		}
		if _, dup := events[ev.ID]; dup {
			slog.Warn("Catalog: Skipping duplicate event id", "id", ev.ID)
			continue
		}
		events[ev.ID] = ev
	}

	if len(events) == 0 {
		return nil, fmt.Errorf("catalog %s contains no usable events", path)
	}

	slog.Info("Catalog: Loaded events", "path", path, "events", len(events), "features", len(fc.Features))
	return events, nil
}

func parseFeature(f *geojson.Feature) (*model.Event, error) {
	id := getStringProp(f.Properties, "id")
	if id == "" {
		return nil, fmt.Errorf("feature has no id")
	}

	start, err := getTimeProp(f.Properties, "start")
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}

	ev := &model.Event{
		ID:    id,
		Name:  getStringProp(f.Properties, "name"),
		Start: start,
		Wave: model.Wave{
			SpeedMS:      getFloatProp(f.Properties, "speed_ms"),
			DirectionDeg: getFloatProp(f.Properties, "direction_deg"),
			Duration:     time.Duration(getFloatProp(f.Properties, "duration_s") * float64(time.Second)),
		},
	}
	if end, err := getTimeProp(f.Properties, "end"); err == nil {
		ev.End = end
	}

	area, err := parseGeometry(f.Geometry)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}
	ev.Areas = []model.WaveArea{area}

	if ev.Wave.Duration <= 0 && ev.Wave.SpeedMS <= 0 && ev.End.IsZero() {
		return nil, fmt.Errorf("event %s has no duration, speed or end time", id)
	}

	// Pin down a duration for speed-only events so status derivation and
	// hit prediction agree on when the wave ends.
	if ev.Wave.Duration <= 0 && ev.End.IsZero() {
		if d, ok := wave.EffectiveDuration(ev); ok {
			ev.Wave.Duration = d
			slog.Debug("Catalog: Derived wave duration", "id", id, "duration", d)
		}
	}

	return ev, nil
}

func parseGeometry(g orb.Geometry) (model.WaveArea, error) {
	var area model.WaveArea

	switch geom := g.(type) {
	case orb.Polygon:
		area.Polygons = append(area.Polygons, convertPolygon(geom))
	case orb.MultiPolygon:
		for _, poly := range geom {
			area.Polygons = append(area.Polygons, convertPolygon(poly))
		}
	default:
		return area, fmt.Errorf("unsupported geometry %T", g)
	}

	if area.Empty() {
		return area, fmt.Errorf("geometry has no rings")
	}
	return area, nil
}

func convertPolygon(poly orb.Polygon) model.Polygon {
	var out model.Polygon
	for _, ring := range poly {
		r := make(geo.Ring, 0, len(ring))
		for _, pt := range ring {
			// orb uses [lon, lat] order
			r = append(r, geo.Point{Lat: pt[1], Lon: pt[0]})
		}
		out.Rings = append(out.Rings, r)
	}
	return out
}

// getStringProp safely extracts a string property from GeoJSON properties.
func getStringProp(props geojson.Properties, key string) string {
	if val, ok := props[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
		if f, ok := val.(json.Number); ok {
			return string(f)
		}
	}
	return ""
}

// getFloatProp safely extracts a numeric property, returning 0 when absent.
func getFloatProp(props geojson.Properties, key string) float64 {
	switch val := props[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case json.Number:
		f, _ := val.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(val, 64)
		return f
	}
	return 0
}

// getTimeProp extracts an RFC 3339 timestamp property.
func getTimeProp(props geojson.Properties, key string) (time.Time, error) {
	s := getStringProp(props, key)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing %s timestamp", key)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad %s timestamp: %w", key, err)
	}
	return t, nil
}

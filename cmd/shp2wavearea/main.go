// shp2wavearea converts Esri shapefiles of city or district boundaries into
// the wavesd catalog GeoJSON format. Each polygon becomes one event feature
// with a wave-definition skeleton that can be edited afterwards.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func main() {
	inputPath := flag.String("input", "", "Path to input .shp file")
	outputPath := flag.String("output", "", "Path to output .geojson file")
	nameField := flag.String("name-field", "NAME", "Attribute holding the event name")
	start := flag.String("start", "", "Event start as RFC 3339 (default: one hour from now)")
	speed := flag.Float64("speed", 5.0, "Wave speed in m/s")
	direction := flag.Float64("direction", 90.0, "Wave travel direction in degrees")
	duration := flag.Float64("duration", 3600, "Wave duration in seconds")
	flag.Parse()

	if *inputPath == "" || *outputPath == "" {
		flag.Usage()
		log.Fatal("Input and output paths are required")
	}

	startAt := time.Now().Add(time.Hour)
	if *start != "" {
		t, err := time.Parse(time.RFC3339, *start)
		if err != nil {
			log.Fatalf("Bad -start value: %v", err)
		}
		startAt = t
	}

	if err := run(*inputPath, *outputPath, *nameField, startAt, *speed, *direction, *duration); err != nil {
		log.Fatal(err)
	}
}

func run(inputPath, outputPath, nameField string, start time.Time, speed, direction, duration float64) error {
	shape, err := shp.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer shape.Close()

	// Locate the name attribute once.
	nameIdx := -1
	for i, f := range shape.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), nameField) {
			nameIdx = i
			break
		}
	}

	fc := geojson.NewFeatureCollection()
	skipped := 0

	for shape.Next() {
		n, p := shape.Shape()

		poly, ok := p.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}

		name := fmt.Sprintf("area-%d", n)
		if nameIdx >= 0 {
			if attr := strings.TrimSpace(shape.ReadAttribute(n, nameIdx)); attr != "" {
				name = attr
			}
		}

		f := geojson.NewFeature(convertPolygon(poly))
		f.Properties = geojson.Properties{
			"id":            slugify(name),
			"name":          name,
			"start":         start.Format(time.RFC3339),
			"speed_ms":      speed,
			"direction_deg": direction,
			"duration_s":    duration,
		}
		fc.Append(f)
	}

	if err := shape.Err(); err != nil {
		return fmt.Errorf("error iterating shapes: %w", err)
	}
	if len(fc.Features) == 0 {
		return fmt.Errorf("shapefile contains no polygons")
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Printf("Converted %d polygons to %s", len(fc.Features), outputPath)
	if skipped > 0 {
		fmt.Printf(" (skipped %d non-polygon shapes)", skipped)
	}
	fmt.Println()
	return nil
}

func convertPolygon(s *shp.Polygon) orb.Polygon {
	// All parts become rings of a single polygon: shapefile part order puts
	// the outer ring first, holes after.
	var poly orb.Polygon

	for i := 0; i < int(s.NumParts); i++ {
		start := s.Parts[i]
		end := s.NumPoints
		if i < int(s.NumParts)-1 {
			end = s.Parts[i+1]
		}

		var ring orb.Ring
		for j := start; j < end; j++ {
			ring = append(ring, orb.Point{s.Points[j].X, s.Points[j].Y})
		}
		poly = append(poly, ring)
	}
	return poly
}

func slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "event"
	}
	return out
}

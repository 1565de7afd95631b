package geo

import (
	"errors"
	"math"
	"testing"
)

// unitSquare is a closed ring around (0,0)..(1,1).
func unitSquare() Ring {
	return Ring{
		{Lat: 0, Lon: 0},
		{Lat: 1, Lon: 0},
		{Lat: 1, Lon: 1},
		{Lat: 0, Lon: 1},
		{Lat: 0, Lon: 0},
	}
}

func TestRingBBox(t *testing.T) {
	b, err := RingBBox(unitSquare())
	if err != nil {
		t.Fatalf("RingBBox() error = %v", err)
	}
	want := BoundingBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1}
	if b != want {
		t.Errorf("RingBBox() = %+v, want %+v", b, want)
	}
}

func TestRingBBox_Empty(t *testing.T) {
	_, err := RingBBox(Ring{})
	if !errors.Is(err, ErrEmptyPolygon) {
		t.Errorf("RingBBox(empty) error = %v, want ErrEmptyPolygon", err)
	}
}

func TestRingBBox_Degenerate(t *testing.T) {
	ring := Ring{{Lat: 48.85, Lon: 2.35}, {Lat: 48.85, Lon: 2.35}, {Lat: 48.85, Lon: 2.35}}
	b, err := RingBBox(ring)
	if err != nil {
		t.Fatalf("RingBBox(degenerate) error = %v, want valid zero-area box", err)
	}
	if b.MinLat != b.MaxLat || b.MinLon != b.MaxLon {
		t.Errorf("RingBBox(degenerate) = %+v, want zero extent", b)
	}
}

func TestPointInRings(t *testing.T) {
	square := []Ring{unitSquare()}

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{name: "Centroid", p: Point{Lat: 0.5, Lon: 0.5}, want: true},
		{name: "Outside BBox", p: Point{Lat: 2, Lon: 2}, want: false},
		{name: "Outside West", p: Point{Lat: 0.5, Lon: -0.5}, want: false},
		{name: "On Bottom Edge", p: Point{Lat: 0, Lon: 0.5}, want: true},
		{name: "On Left Edge", p: Point{Lat: 0.5, Lon: 0}, want: true},
		{name: "On Vertex", p: Point{Lat: 1, Lon: 1}, want: true},
		{name: "Just Inside", p: Point{Lat: 0.0001, Lon: 0.0001}, want: true},
		{name: "Just Outside", p: Point{Lat: -0.0001, Lon: 0.5}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInRings(tt.p, square); got != tt.want {
				t.Errorf("PointInRings(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPointInRings_Hole(t *testing.T) {
	outer := unitSquare()
	hole := Ring{
		{Lat: 0.25, Lon: 0.25},
		{Lat: 0.75, Lon: 0.25},
		{Lat: 0.75, Lon: 0.75},
		{Lat: 0.25, Lon: 0.75},
		{Lat: 0.25, Lon: 0.25},
	}
	rings := []Ring{outer, hole}

	if PointInRings(Point{Lat: 0.5, Lon: 0.5}, rings) {
		t.Error("point in hole should be outside")
	}
	if !PointInRings(Point{Lat: 0.1, Lon: 0.1}, rings) {
		t.Error("point between outer ring and hole should be inside")
	}
	// Hole edges still count as boundary, so inside.
	if !PointInRings(Point{Lat: 0.25, Lon: 0.5}, rings) {
		t.Error("point on hole edge should be inside")
	}
}

func TestPointInRings_Empty(t *testing.T) {
	if PointInRings(Point{Lat: 0.5, Lon: 0.5}, nil) {
		t.Error("no rings should never contain a point")
	}
	if PointInRings(Point{Lat: 0.5, Lon: 0.5}, []Ring{{}}) {
		t.Error("an empty ring should never contain a point")
	}
}

func TestRingArea(t *testing.T) {
	got := RingArea(unitSquare())
	// One degree squared at the equator, roughly 111.3km x 111.3km.
	want := 1.239e10
	if math.Abs(got-want) > want*0.01 {
		t.Errorf("RingArea(unit square) = %v, want ~%v", got, want)
	}
}

func TestRingArea_Degenerate(t *testing.T) {
	if got := RingArea(Ring{}); got != 0 {
		t.Errorf("RingArea(empty) = %v, want 0", got)
	}
	if got := RingArea(Ring{{Lat: 1, Lon: 1}, {Lat: 1, Lon: 1}}); got != 0 {
		t.Errorf("RingArea(two points) = %v, want 0", got)
	}
}

func TestRingArea_SelfIntersecting(t *testing.T) {
	// Bowtie: two triangles sharing a crossing point.
	bowtie := Ring{
		{Lat: 0, Lon: 0},
		{Lat: 1, Lon: 1},
		{Lat: 0, Lon: 1},
		{Lat: 1, Lon: 0},
		{Lat: 0, Lon: 0},
	}

	first := RingArea(bowtie)
	second := RingArea(bowtie)

	if first != second {
		t.Errorf("RingArea not deterministic: %v != %v", first, second)
	}
	if math.IsNaN(first) || math.IsInf(first, 0) || first < 0 {
		t.Errorf("RingArea(bowtie) = %v, want a bounded non-negative value", first)
	}
	// Bounded by the bbox extent.
	bbox, err := RingBBox(bowtie)
	if err != nil {
		t.Fatal(err)
	}
	sw, ne := bbox.Corners()[0], bbox.Corners()[2]
	w, _ := LocalXY(Point{Lat: sw.Lat, Lon: ne.Lon}, sw)
	_, h := LocalXY(Point{Lat: ne.Lat, Lon: sw.Lon}, sw)
	if first > w*h {
		t.Errorf("RingArea(bowtie) = %v exceeds bbox area %v", first, w*h)
	}
}

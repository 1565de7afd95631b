package geo

import (
	"errors"
	"log/slog"
	"math"
)

// ErrEmptyPolygon is returned when a bounding box is requested for a ring
// with no points.
var ErrEmptyPolygon = errors.New("empty polygon")

// collinearity tolerance for the on-edge test, in squared degrees
const edgeEpsilon = 1e-12

// Ring is an ordered sequence of points forming a polygon ring. Rings are
// expected to be closed (first point equals last), but the functions here
// tolerate open rings.
type Ring []Point

// BoundingBox is the axis-aligned extent of a ring, always derived from
// polygon data via RingBBox.
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() Point {
	return Point{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}

// Contains reports whether p falls within the box, edges included.
func (b BoundingBox) Contains(p Point) bool {
	return p.Lon >= b.MinLon && p.Lon <= b.MaxLon &&
		p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// Corners returns the four corners of the box in SW, NW, NE, SE order.
func (b BoundingBox) Corners() [4]Point {
	return [4]Point{
		{Lat: b.MinLat, Lon: b.MinLon},
		{Lat: b.MaxLat, Lon: b.MinLon},
		{Lat: b.MaxLat, Lon: b.MaxLon},
		{Lat: b.MinLat, Lon: b.MaxLon},
	}
}

// RingBBox scans all vertices of a ring and returns its bounding box.
// A ring with zero points yields ErrEmptyPolygon; a degenerate ring (all
// points identical) yields a valid zero-area box.
func RingBBox(ring Ring) (BoundingBox, error) {
	if len(ring) == 0 {
		return BoundingBox{}, ErrEmptyPolygon
	}

	b := BoundingBox{
		MinLon: ring[0].Lon,
		MinLat: ring[0].Lat,
		MaxLon: ring[0].Lon,
		MaxLat: ring[0].Lat,
	}
	for _, p := range ring[1:] {
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
	}
	return b, nil
}

// RingsBBox returns the bounding box covering all rings.
func RingsBBox(rings []Ring) (BoundingBox, error) {
	var out BoundingBox
	found := false
	for _, ring := range rings {
		b, err := RingBBox(ring)
		if err != nil {
			continue
		}
		if !found {
			out = b
			found = true
			continue
		}
		out.MinLon = math.Min(out.MinLon, b.MinLon)
		out.MinLat = math.Min(out.MinLat, b.MinLat)
		out.MaxLon = math.Max(out.MaxLon, b.MaxLon)
		out.MaxLat = math.Max(out.MaxLat, b.MaxLat)
	}
	if !found {
		return BoundingBox{}, ErrEmptyPolygon
	}
	return out, nil
}

// PointInRings reports whether p lies inside the area described by the given
// rings, using even-odd ray casting. Outer rings and holes are treated
// uniformly: each edge crossing toggles containment. A point exactly on any
// edge counts as inside. The function never panics; an internal failure is
// logged and classified as outside.
func PointInRings(p Point, rings []Ring) (inside bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("geo: containment check failed", "recovered", r, "lat", p.Lat, "lon", p.Lon)
			inside = false
		}
	}()

	if len(rings) == 0 {
		return false
	}

	// Boundary first: on-edge is inside regardless of crossing parity.
	for _, ring := range rings {
		n := len(ring)
		for i := 0; i < n; i++ {
			if pointOnSegment(p, ring[i], ring[(i+1)%n]) {
				return true
			}
		}
	}

	for _, ring := range rings {
		n := len(ring)
		if n < 3 {
			continue
		}
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			vi, vj := ring[i], ring[j]
			if (vi.Lat > p.Lat) == (vj.Lat > p.Lat) {
				continue
			}
			// Longitude where the edge crosses the ray at p.Lat.
			crossLon := vi.Lon + (p.Lat-vi.Lat)*(vj.Lon-vi.Lon)/(vj.Lat-vi.Lat)
			if p.Lon < crossLon {
				inside = !inside
			}
		}
	}
	return inside
}

// pointOnSegment reports whether p lies on the segment from a to b.
func pointOnSegment(p, a, b Point) bool {
	cross := (b.Lon-a.Lon)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lon-a.Lon)
	if math.Abs(cross) > edgeEpsilon {
		return false
	}
	if p.Lon < math.Min(a.Lon, b.Lon)-edgeEpsilon || p.Lon > math.Max(a.Lon, b.Lon)+edgeEpsilon {
		return false
	}
	if p.Lat < math.Min(a.Lat, b.Lat)-edgeEpsilon || p.Lat > math.Max(a.Lat, b.Lat)+edgeEpsilon {
		return false
	}
	return true
}

// RingArea returns the enclosed area of a ring in square meters: the
// absolute shoelace sum over a local equirectangular projection centered on
// the ring's bounding box. For self-intersecting rings the result is the
// net signed enclosure under that convention, which keeps the value
// deterministic and bounded rather than geometrically exact. Rings with
// fewer than 3 points yield 0.
func RingArea(ring Ring) float64 {
	if len(ring) < 3 {
		return 0
	}
	bbox, err := RingBBox(ring)
	if err != nil {
		return 0
	}
	origin := bbox.Center()

	sum := 0.0
	n := len(ring)
	for i := 0; i < n; i++ {
		xi, yi := LocalXY(ring[i], origin)
		xj, yj := LocalXY(ring[(i+1)%n], origin)
		sum += xi*yj - xj*yi
	}
	return math.Abs(sum) / 2
}

package catalog

import (
	"log/slog"

	"github.com/uber/h3-go/v4"

	"worldwidewaves/pkg/geo"
	"worldwidewaves/pkg/model"
)

// spatialIndex maps H3 cells to the events whose areas touch them, so
// "what is near this position" never walks the whole catalog.
type spatialIndex struct {
	res   int
	cells map[h3.Cell][]string
}

func buildIndex(events map[string]*model.Event, res int) *spatialIndex {
	idx := &spatialIndex{
		res:   res,
		cells: make(map[h3.Cell][]string),
	}

	for id, ev := range events {
		seen := make(map[h3.Cell]struct{})
		for _, area := range ev.Areas {
			for _, poly := range area.Polygons {
				for _, cell := range coverRing(poly.Rings, res) {
					seen[cell] = struct{}{}
				}
			}
		}
		for cell := range seen {
			idx.cells[cell] = append(idx.cells[cell], id)
		}
	}

	slog.Debug("Catalog: Spatial index built", "resolution", res, "cells", len(idx.cells), "events", len(events))
	return idx
}

// coverRing returns the cells covering a polygon's outer ring. Cell
// coverage alone misses polygons smaller than one cell, so every vertex
// cell is added as well.
func coverRing(rings []geo.Ring, res int) []h3.Cell {
	if len(rings) == 0 || len(rings[0]) == 0 {
		return nil
	}
	outer := rings[0]

	seen := make(map[h3.Cell]struct{})

	loop := make(h3.GeoLoop, 0, len(outer))
	for _, pt := range outer {
		loop = append(loop, h3.NewLatLng(pt.Lat, pt.Lon))

		cell, err := h3.LatLngToCell(h3.NewLatLng(pt.Lat, pt.Lon), res)
		if err != nil {
			slog.Warn("Catalog: Failed to index vertex", "lat", pt.Lat, "lon", pt.Lon, "error", err)
			continue
		}
		seen[cell] = struct{}{}
	}

	cells, err := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: loop}, res)
	if err != nil {
		slog.Warn("Catalog: Failed to cover polygon, falling back to vertex cells", "error", err)
	}
	for _, cell := range cells {
		seen[cell] = struct{}{}
	}

	out := make([]h3.Cell, 0, len(seen))
	for cell := range seen {
		out = append(out, cell)
	}
	return out
}

// near returns the ids of events indexed within k rings of p's cell.
// ok is false when the lookup itself failed and the caller should fall
// back to a linear scan.
func (idx *spatialIndex) near(p geo.Point, k int) ([]string, bool) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lon), idx.res)
	if err != nil {
		slog.Warn("Catalog: Cell lookup failed", "lat", p.Lat, "lon", p.Lon, "error", err)
		return nil, false
	}

	disk, err := cell.GridDisk(k)
	if err != nil {
		slog.Warn("Catalog: Grid disk failed", "cell", cell, "error", err)
		return nil, false
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, c := range disk {
		for _, id := range idx.cells[c] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, true
}

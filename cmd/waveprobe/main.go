// waveprobe is a debugging CLI that inspects wave events around a position.
// It queries a running wavesd daemon, computes distance and bearing to each
// event area, and prints the observation cadence the scheduler would pick.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/twpayne/go-polyline"

	"worldwidewaves/pkg/geo"
)

// EventSummary matches internal/api.EventSummary.
type EventSummary struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Status   string    `json:"status"`
	Start    time.Time `json:"start"`
	BBox     []float64 `json:"bbox"`
	Observed bool      `json:"observed"`
}

// EventDetail matches internal/api.EventDetail.
type EventDetail struct {
	EventSummary
	Rings [][]string `json:"rings"`
	Front string     `json:"front"`
}

// ScheduleResponse matches internal/api.ScheduleResponse.
type ScheduleResponse struct {
	Phase      string `json:"phase"`
	IntervalMs *int64 `json:"intervalMs"`
	Continuous bool   `json:"continuous"`
	Reason     string `json:"reason"`
}

// PositionResponse matches pkg/position.Update.
type PositionResponse struct {
	Position struct {
		Lat float64 `json:"Lat"`
		Lon float64 `json:"Lon"`
	} `json:"position"`
}

type eventProbe struct {
	EventSummary
	Schedule ScheduleResponse
	Distance float64 // meters to the area's bbox center
	Bearing  float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:1986", "Address of the running wavesd daemon")
	lat := flag.Float64("lat", 0, "Override latitude (requires -lon)")
	lon := flag.Float64("lon", 0, "Override longitude (requires -lat)")
	details := flag.Bool("details", false, "Also print the geometry of the nearest event")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}

	pos, err := resolvePosition(client, *addr, *lat, *lon)
	if err != nil {
		return err
	}
	fmt.Printf("Position: %.4f, %.4f\n\n", pos.Lat, pos.Lon)

	var events []EventSummary
	if err := fetchJSON(client, fmt.Sprintf("http://%s/api/events", *addr), &events); err != nil {
		return fmt.Errorf("failed to fetch events: %w\nIs wavesd running?", err)
	}
	if len(events) == 0 {
		fmt.Println("WARN: The catalog is empty.")
		return nil
	}

	probes := make([]eventProbe, 0, len(events))
	for _, ev := range events {
		p := eventProbe{EventSummary: ev, Distance: -1}
		if len(ev.BBox) == 4 {
			center := geo.Point{
				Lat: (ev.BBox[1] + ev.BBox[3]) / 2,
				Lon: (ev.BBox[0] + ev.BBox[2]) / 2,
			}
			p.Distance = geo.Distance(pos, center)
			p.Bearing = geo.Bearing(pos, center)
		}

		url := fmt.Sprintf("http://%s/api/events/%s/schedule", *addr, ev.ID)
		if err := fetchJSON(client, url, &p.Schedule); err != nil {
			fmt.Printf("WARN: No schedule for %s: %v\n", ev.ID, err)
		}
		probes = append(probes, p)
	}

	sort.Slice(probes, func(i, j int) bool {
		return probes[i].Distance < probes[j].Distance
	})

	printTable(probes)

	if *details {
		printDetails(client, *addr, probes[0].ID)
	}
	return nil
}

func resolvePosition(client *http.Client, addr string, lat, lon float64) (geo.Point, error) {
	if lat != 0 || lon != 0 {
		return geo.Point{Lat: lat, Lon: lon}, nil
	}

	var last PositionResponse
	if err := fetchJSON(client, fmt.Sprintf("http://%s/api/position", addr), &last); err != nil {
		return geo.Point{}, fmt.Errorf("no position known to the daemon yet; pass -lat/-lon (%w)", err)
	}
	return geo.Point{Lat: last.Position.Lat, Lon: last.Position.Lon}, nil
}

func printTable(probes []eventProbe) {
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-14s %-10s %-9s %-6s %-12s %-10s %s\n",
		"EVENT", "STATUS", "DIST", "BRG", "PHASE", "INTERVAL", "REASON")
	fmt.Println(strings.Repeat("-", 100))

	for _, p := range probes {
		dist := "n/a"
		brg := ""
		if p.Distance >= 0 {
			dist = formatDistance(p.Distance)
			brg = fmt.Sprintf("%03.0f", p.Bearing)
		}
		fmt.Printf("%-14s %-10s %-9s %-6s %-12s %-10s %s\n",
			p.ID, p.Status, dist, brg, p.Schedule.Phase, formatInterval(p.Schedule.IntervalMs), p.Schedule.Reason)
	}
	fmt.Println(strings.Repeat("-", 100))
}

func printDetails(client *http.Client, addr, id string) {
	var detail EventDetail
	if err := fetchJSON(client, fmt.Sprintf("http://%s/api/events/%s", addr, id), &detail); err != nil {
		fmt.Printf("WARN: Failed to fetch detail for %s: %v\n", id, err)
		return
	}

	fmt.Printf("\nNearest event: %s (%s)\n", detail.Name, detail.ID)
	for i, rings := range detail.Rings {
		for j, encoded := range rings {
			coords, _, err := polyline.DecodeCoords([]byte(encoded))
			if err != nil {
				fmt.Printf("   WARN: polygon %d ring %d undecodable: %v\n", i, j, err)
				continue
			}
			kind := "outer"
			if j > 0 {
				kind = "hole"
			}
			fmt.Printf("   polygon %d %s ring: %d vertices\n", i, kind, len(coords))
		}
	}
	if detail.Front != "" {
		if coords, _, err := polyline.DecodeCoords([]byte(detail.Front)); err == nil && len(coords) == 2 {
			fmt.Printf("   wavefront: %.4f,%.4f -> %.4f,%.4f\n",
				coords[0][0], coords[0][1], coords[1][0], coords[1][1])
		}
	}
}

// formatDistance renders meters the way a human scans a table: meters
// below a kilometer, otherwise kilometers with one decimal.
func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0fm", meters)
	}
	return fmt.Sprintf("%.1fkm", meters/1000)
}

// formatInterval renders a polling interval, with "-" for infinite.
func formatInterval(ms *int64) string {
	if ms == nil {
		return "-"
	}
	d := time.Duration(*ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", *ms)
	}
	return d.String()
}

func fetchJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

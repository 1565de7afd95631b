package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"worldwidewaves/pkg/geo"
	"worldwidewaves/pkg/model"
	"worldwidewaves/pkg/observer"
	"worldwidewaves/pkg/schedule"
)

var storeNow = time.Date(2026, 6, 21, 18, 30, 0, 0, time.UTC)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "waves.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordHit(t *testing.T) {
	s := testStore(t)
	pos := geo.Point{Lat: 48.85, Lon: 2.35}

	if err := s.RecordHit("paris-wave", pos, storeNow); err != nil {
		t.Fatalf("RecordHit() error = %v", err)
	}
	if err := s.RecordHit("paris-wave", geo.Point{Lat: 48.86, Lon: 2.36}, storeNow.Add(time.Minute)); err != nil {
		t.Fatalf("RecordHit() error = %v", err)
	}
	if err := s.RecordHit("tokyo-wave", pos, storeNow); err != nil {
		t.Fatalf("RecordHit() error = %v", err)
	}

	hits, err := s.HitsForEvent(context.Background(), "paris-wave")
	if err != nil {
		t.Fatalf("HitsForEvent() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Position.Lat != 48.85 || hits[0].Position.Lon != 2.35 {
		t.Errorf("hits[0].Position = %v", hits[0].Position)
	}
	if !hits[0].HitAt.Before(hits[1].HitAt) {
		t.Error("hits should be ordered oldest first")
	}
	if hits[0].ID == "" || hits[0].ID == hits[1].ID {
		t.Error("hits should carry distinct ids")
	}
}

func TestHitsForEvent_Empty(t *testing.T) {
	s := testStore(t)

	hits, err := s.HitsForEvent(context.Background(), "no-such-event")
	if err != nil {
		t.Fatalf("HitsForEvent() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits, want none", len(hits))
	}
}

func TestRecordObservation(t *testing.T) {
	s := testStore(t)

	sig := observer.Signals{
		EventID:       "paris-wave",
		Status:        model.StatusRunning,
		Progression:   25.0,
		InArea:        true,
		PositionRatio: 0.5,
		GoingToBeHit:  true,
		TimeBeforeHit: 15 * time.Minute,
		HitTime:       storeNow.Add(15 * time.Minute),
		Phase:         schedule.PhaseActive,
		ComputedAt:    storeNow,
	}
	if err := s.RecordObservation(sig); err != nil {
		t.Fatalf("RecordObservation() error = %v", err)
	}

	// A later transition with the sentinels mapped to NULL columns.
	sig.ComputedAt = storeNow.Add(time.Minute)
	sig.TimeBeforeHit = observer.InfiniteTimeBeforeHit
	sig.HitTime = observer.DistantFuture
	sig.GoingToBeHit = false
	if err := s.RecordObservation(sig); err != nil {
		t.Fatalf("RecordObservation() with sentinels error = %v", err)
	}

	obs, err := s.RecentObservations(context.Background(), "paris-wave", 10)
	if err != nil {
		t.Fatalf("RecentObservations() error = %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("got %d observations, want 2", len(obs))
	}
	// Newest first.
	if obs[0].GoingToBeHit || !obs[1].GoingToBeHit {
		t.Errorf("ordering wrong: %+v", obs)
	}
	if obs[1].Status != string(model.StatusRunning) || obs[1].Progression != 25.0 {
		t.Errorf("observation row = %+v", obs[1])
	}
	if obs[1].Phase != string(schedule.PhaseActive) {
		t.Errorf("Phase = %q", obs[1].Phase)
	}
}

func TestRecentObservations_Limit(t *testing.T) {
	s := testStore(t)

	for i := 0; i < 5; i++ {
		sig := observer.Signals{
			EventID:       "paris-wave",
			Status:        model.StatusRunning,
			Progression:   float64(i),
			TimeBeforeHit: observer.InfiniteTimeBeforeHit,
			HitTime:       observer.DistantFuture,
			ComputedAt:    storeNow.Add(time.Duration(i) * time.Second),
		}
		if err := s.RecordObservation(sig); err != nil {
			t.Fatal(err)
		}
	}

	obs, err := s.RecentObservations(context.Background(), "paris-wave", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(obs) != 3 {
		t.Fatalf("got %d observations, want 3", len(obs))
	}
	if obs[0].Progression != 4.0 {
		t.Errorf("newest observation progression = %v, want 4", obs[0].Progression)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waves.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.RecordHit("paris-wave", geo.Point{Lat: 1, Lon: 2}, storeNow); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopening migrates idempotently and keeps the data.
	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	hits, err := s.HitsForEvent(context.Background(), "paris-wave")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("got %d hits after reopen, want 1", len(hits))
	}
}

func TestPrune(t *testing.T) {
	s := testStore(t)

	sig := observer.Signals{
		EventID:       "paris-wave",
		TimeBeforeHit: observer.InfiniteTimeBeforeHit,
		HitTime:       observer.DistantFuture,
		ComputedAt:    storeNow,
	}
	if err := s.RecordObservation(sig); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordHit("paris-wave", geo.Point{Lat: 1, Lon: 2}, storeNow); err != nil {
		t.Fatal(err)
	}

	// Everything just written is newer than the cutoff and survives.
	if err := s.Prune(time.Hour); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	obs, err := s.RecentObservations(context.Background(), "paris-wave", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(obs) != 1 {
		t.Fatalf("observation pruned too eagerly, got %d", len(obs))
	}

	// A negative cutoff clears the observation journal but never the hits.
	if err := s.Prune(-time.Hour); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	obs, err = s.RecentObservations(context.Background(), "paris-wave", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(obs) != 0 {
		t.Errorf("got %d observations after prune, want 0", len(obs))
	}
	hits, err := s.HitsForEvent(context.Background(), "paris-wave")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("hits must survive pruning, got %d", len(hits))
	}
}

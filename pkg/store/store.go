package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"worldwidewaves/pkg/geo"
	"worldwidewaves/pkg/observer"
)

// writeTimeout bounds journal writes issued from observation loops.
const writeTimeout = 5 * time.Second

// Store persists observation milestones and wavefront hits in SQLite.
// It implements observer.Journal.
type Store struct {
	db *sql.DB
}

// Hit is one persisted wavefront arrival at a user position.
type Hit struct {
	ID       string    `json:"id"`
	EventID  string    `json:"eventId"`
	Position geo.Point `json:"position"`
	HitAt    time.Time `json:"hitAt"`
}

// Observation is one persisted signal transition.
type Observation struct {
	EventID       string    `json:"eventId"`
	Status        string    `json:"status"`
	Progression   float64   `json:"progression"`
	InArea        bool      `json:"isInArea"`
	PositionRatio float64   `json:"userPositionRatio"`
	GoingToBeHit  bool      `json:"isGoingToBeHit"`
	HasBeenHit    bool      `json:"hasBeenHit"`
	Phase         string    `json:"phase"`
	ComputedAt    time.Time `json:"computedAt"`
}

// Open opens (and if needed creates) the journal database.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the store connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordHit journals the instant the wavefront reached a user.
func (s *Store) RecordHit(eventID string, pos geo.Point, at time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO hits (id, event_id, lat, lon, hit_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), eventID, pos.Lat, pos.Lon, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to record hit: %w", err)
	}
	return nil
}

// RecordObservation journals one signal transition.
func (s *Store) RecordObservation(sig observer.Signals) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var beforeHitMs interface{}
	if sig.TimeBeforeHit != observer.InfiniteTimeBeforeHit {
		beforeHitMs = sig.TimeBeforeHit.Milliseconds()
	}
	var hitTime interface{}
	if !sig.HitTime.Equal(observer.DistantFuture) {
		hitTime = sig.HitTime.UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO observations
		 (event_id, status, progression, in_area, position_ratio, going_to_be_hit, has_been_hit, time_before_hit_ms, hit_time, phase, computed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sig.EventID, string(sig.Status), sig.Progression, sig.InArea, sig.PositionRatio,
		sig.GoingToBeHit, sig.HasBeenHit, beforeHitMs, hitTime, string(sig.Phase), sig.ComputedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record observation: %w", err)
	}
	return nil
}

// HitsForEvent returns the journaled hits for one event, oldest first.
func (s *Store) HitsForEvent(ctx context.Context, eventID string) ([]Hit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, lat, lon, hit_at FROM hits WHERE event_id = ? ORDER BY hit_at`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query hits: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ID, &h.EventID, &h.Position.Lat, &h.Position.Lon, &h.HitAt); err != nil {
			return nil, fmt.Errorf("failed to scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// RecentObservations returns the newest journaled transitions for one
// event, newest first, capped at limit.
func (s *Store) RecentObservations(ctx context.Context, eventID string, limit int) ([]Observation, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, status, progression, in_area, position_ratio, going_to_be_hit, has_been_hit, phase, computed_at
		 FROM observations WHERE event_id = ? ORDER BY computed_at DESC, id DESC LIMIT ?`, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var o Observation
		if err := rows.Scan(&o.EventID, &o.Status, &o.Progression, &o.InArea, &o.PositionRatio,
			&o.GoingToBeHit, &o.HasBeenHit, &o.Phase, &o.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Prune removes journaled observations older than the given age. Hits
// are kept; they are the point of the journal.
func (s *Store) Prune(olderThan time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	deadline := time.Now().Add(-olderThan).UTC().Format("2006-01-02 15:04:05")
	res, err := s.db.ExecContext(ctx, `DELETE FROM observations WHERE created_at < ?`, deadline)
	if err != nil {
		return fmt.Errorf("failed to prune observations: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.Debug("Store: Pruned observations", "removed", n)
	}
	return nil
}

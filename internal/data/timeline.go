package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Sample is one point on the current match's timeline
type Sample struct {
	MatchID    string    `json:"matchId"`
	GameTime   float64   `json:"gameTime"`
	OrderGold  int       `json:"orderGold"`
	ChaosGold  int       `json:"chaosGold"`
	OrderWin   *float64  `json:"orderWin,omitempty"`
	Degraded   bool      `json:"degraded"`
	RecordedAt time.Time `json:"recordedAt"`
}

// TimelineDB keeps the gold and win probability history of the match in
// progress. Starting a new match wipes the previous one.
type TimelineDB struct {
	db *sql.DB

	mu      sync.Mutex
	matchID string
}

// NewTimelineDB opens (or creates) the timeline database at path
func NewTimelineDB(path string) (*TimelineDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	tdb := &TimelineDB{db: db}
	if err := tdb.init(); err != nil {
		db.Close()
		return nil, err
	}

	return tdb, nil
}

// init creates the schema and picks up the match left by a previous run
func (t *TimelineDB) init() error {
	_, err := t.db.Exec(`
		CREATE TABLE IF NOT EXISTS samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL,
			game_time REAL NOT NULL,
			order_gold INTEGER NOT NULL,
			chaos_gold INTEGER NOT NULL,
			order_win REAL,
			degraded INTEGER NOT NULL,
			recorded_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	var matchID sql.NullString
	if err := t.db.QueryRow("SELECT match_id FROM samples ORDER BY id DESC LIMIT 1").Scan(&matchID); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read current match: %w", err)
	}
	t.matchID = matchID.String

	return nil
}

// Reset drops every sample and starts tracking matchID
func (t *TimelineDB) Reset(ctx context.Context, matchID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resetLocked(ctx, matchID)
}

func (t *TimelineDB) resetLocked(ctx context.Context, matchID string) error {
	if _, err := t.db.ExecContext(ctx, "DELETE FROM samples"); err != nil {
		return fmt.Errorf("failed to clear timeline: %w", err)
	}
	t.matchID = matchID
	return nil
}

// Record appends s, resetting first when s belongs to a new match
func (t *TimelineDB) Record(ctx context.Context, s Sample) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s.MatchID != t.matchID {
		if err := t.resetLocked(ctx, s.MatchID); err != nil {
			return err
		}
	}

	var orderWin sql.NullFloat64
	if s.OrderWin != nil {
		orderWin = sql.NullFloat64{Float64: *s.OrderWin, Valid: true}
	}

	_, err := t.db.ExecContext(ctx, `
		INSERT INTO samples (match_id, game_time, order_gold, chaos_gold, order_win, degraded, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.MatchID, s.GameTime, s.OrderGold, s.ChaosGold, orderWin, s.Degraded, s.RecordedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

// Samples returns the current match in recording order
func (t *TimelineDB) Samples(ctx context.Context) ([]Sample, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT match_id, game_time, order_gold, chaos_gold, order_win, degraded, recorded_at
		FROM samples ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		var (
			s        Sample
			orderWin sql.NullFloat64
			recorded int64
		)
		if err := rows.Scan(&s.MatchID, &s.GameTime, &s.OrderGold, &s.ChaosGold, &orderWin, &s.Degraded, &recorded); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		if orderWin.Valid {
			v := orderWin.Float64
			s.OrderWin = &v
		}
		s.RecordedAt = time.UnixMilli(recorded)
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// MatchID returns the match the timeline currently belongs to
func (t *TimelineDB) MatchID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.matchID
}

// Close closes the database
func (t *TimelineDB) Close() error {
	return t.db.Close()
}

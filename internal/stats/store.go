// Package stats provides SQLite-backed persistence for cycle history
// and cumulative counters.
package stats

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store provides SQLite-backed persistence for cycle records.
type Store struct {
	db *sql.DB
}

// Cycle is one row of cycle history.
type Cycle struct {
	ID         string
	StartedAt  time.Time
	Mode       string
	Proposals  int
	Actions    int
	Conflicts  int
	Emergency  int
	Rejected   bool
	Skipped    bool
	DurationMs int64
}

// Conflict is one resolved contention, linked to its cycle.
type Conflict struct {
	CycleID  string
	Target   string
	Winner   string
	Strategy string
	Losers   int
}

// Totals are the cumulative counters exposed to diagnostics.
type Totals struct {
	Cycles    int `json:"cycles"`
	Actions   int `json:"actions"`
	Conflicts int `json:"conflicts"`
	Rejected  int `json:"rejected"`
	Skipped   int `json:"skipped"`
}

// NewStore opens the SQLite database at dbPath and creates tables if
// they don't exist.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS cycles (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		mode TEXT NOT NULL,
		proposals INTEGER DEFAULT 0,
		actions INTEGER DEFAULT 0,
		conflicts INTEGER DEFAULT 0,
		emergency INTEGER DEFAULT 0,
		rejected INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS conflicts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_id TEXT NOT NULL,
		target TEXT NOT NULL,
		winner TEXT NOT NULL,
		strategy TEXT NOT NULL,
		losers INTEGER DEFAULT 0,
		FOREIGN KEY (cycle_id) REFERENCES cycles(id)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordCycle inserts a cycle row and its conflicts in one
// transaction.
func (s *Store) RecordCycle(c Cycle, conflicts []Conflict) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO cycles (id, started_at, mode, proposals, actions, conflicts, emergency, rejected, skipped, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.StartedAt, c.Mode, c.Proposals, c.Actions, c.Conflicts,
		c.Emergency, boolInt(c.Rejected), boolInt(c.Skipped), c.DurationMs,
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert cycle: %w", err)
	}

	for _, cf := range conflicts {
		_, err = tx.Exec(
			`INSERT INTO conflicts (cycle_id, target, winner, strategy, losers)
			 VALUES (?, ?, ?, ?, ?)`,
			cf.CycleID, cf.Target, cf.Winner, cf.Strategy, cf.Losers,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert conflict: %w", err)
		}
	}

	return tx.Commit()
}

// GetTotals returns the cumulative counters across all recorded
// cycles.
func (s *Store) GetTotals() (Totals, error) {
	row := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(actions), 0),
		        COALESCE(SUM(conflicts), 0),
		        COALESCE(SUM(rejected), 0),
		        COALESCE(SUM(skipped), 0)
		 FROM cycles`,
	)

	var t Totals
	if err := row.Scan(&t.Cycles, &t.Actions, &t.Conflicts, &t.Rejected, &t.Skipped); err != nil {
		return Totals{}, fmt.Errorf("scan totals: %w", err)
	}
	return t, nil
}

// RecentCycles returns the most recent cycle rows, newest first.
func (s *Store) RecentCycles(limit int) ([]Cycle, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, mode, proposals, actions, conflicts, emergency, rejected, skipped, duration_ms
		 FROM cycles
		 ORDER BY started_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Cycle
	for rows.Next() {
		var c Cycle
		var rejected, skipped int
		if err := rows.Scan(&c.ID, &c.StartedAt, &c.Mode, &c.Proposals, &c.Actions,
			&c.Conflicts, &c.Emergency, &rejected, &skipped, &c.DurationMs); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		c.Rejected = rejected != 0
		c.Skipped = skipped != 0
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// TopConflictTargets returns the most contested targets and how often
// each won with which strategy is left to the caller; this is the raw
// count per target.
func (s *Store) TopConflictTargets(limit int) (map[string]int, error) {
	rows, err := s.db.Query(
		`SELECT target, COUNT(*) FROM conflicts GROUP BY target ORDER BY COUNT(*) DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query conflicts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]int)
	for rows.Next() {
		var target string
		var n int
		if err := rows.Scan(&target, &n); err != nil {
			return nil, fmt.Errorf("scan conflict count: %w", err)
		}
		out[target] = n
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

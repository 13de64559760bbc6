// Package storage provides SQLite-based persistence for finished runs.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/skyfall/internal/config"
	"github.com/vovakirdan/skyfall/internal/multiplayer"
)

// Store manages the SQLite database connection for the run leaderboard.
type Store struct {
	db *sql.DB
}

// RunRecord is one stored run.
type RunRecord struct {
	ID          int64
	RunID       string
	EndReason   string // "game_over" or "abandoned"
	Level       int
	Score       int
	Ticks       uint64
	PlayerNames []string
	Duration    int // Duration in seconds
	CreatedAt   time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	dbPath = config.ExpandHome(dbPath)

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	// Run migrations
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			end_reason TEXT NOT NULL,
			level INTEGER NOT NULL DEFAULT 1,
			score INTEGER NOT NULL DEFAULT 0,
			ticks INTEGER NOT NULL DEFAULT 0,
			players INTEGER NOT NULL DEFAULT 0,
			player_names TEXT NOT NULL DEFAULT '[]',
			duration_secs INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_top ON runs(score DESC, level DESC);
		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun records a finished run.
// Returns the ID of the inserted record.
func (s *Store) SaveRun(r RunRecord) (int64, error) {
	names := r.PlayerNames
	if names == nil {
		names = []string{}
	}
	encoded, err := json.Marshal(names)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot encode player names: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO runs
		 (run_id, end_reason, level, score, ticks, players, player_names, duration_secs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		r.EndReason,
		r.Level,
		r.Score,
		int64(r.Ticks),
		len(names),
		string(encoded),
		r.Duration,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// SaveRunResult implements multiplayer.RunResultSaver.
func (s *Store) SaveRunResult(result multiplayer.RunResult) error {
	_, err := s.SaveRun(RunRecord{
		RunID:       result.RunID,
		EndReason:   string(result.Reason),
		Level:       result.Level,
		Score:       result.Score,
		Ticks:       result.Ticks,
		PlayerNames: result.Players,
		Duration:    int(result.Duration.Seconds()),
	})
	return err
}

const runColumns = `id, run_id, end_reason, level, score, ticks, player_names, duration_secs, created_at`

// TopRuns retrieves the best N runs ordered by score, then level.
func (s *Store) TopRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryRuns(
		`SELECT `+runColumns+` FROM runs ORDER BY score DESC, level DESC, id ASC LIMIT ?`,
		limit,
	)
}

// RecentRuns retrieves the most recently stored runs.
func (s *Store) RecentRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.queryRuns(
		`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`,
		limit,
	)
}

// RunByID retrieves a run by its run ID. Returns nil if not found.
func (s *Store) RunByID(runID string) (*RunRecord, error) {
	runs, err := s.queryRuns(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// HighScore returns the highest score of any run.
// Returns 0 if no runs exist.
func (s *Store) HighScore() (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(score) FROM runs").Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return int(score.Int64), nil
}

func (s *Store) queryRuns(query string, args ...any) ([]RunRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var ticks int64
		var names string
		var createdAt any

		if err := rows.Scan(
			&r.ID,
			&r.RunID,
			&r.EndReason,
			&r.Level,
			&r.Score,
			&ticks,
			&names,
			&r.Duration,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}

		r.Ticks = uint64(ticks)
		if err := json.Unmarshal([]byte(names), &r.PlayerNames); err != nil {
			return nil, fmt.Errorf("storage: cannot decode player names: %w", err)
		}

		// Parse the datetime - handle both time.Time and string
		switch v := createdAt.(type) {
		case time.Time:
			r.CreatedAt = v
		case string:
			if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
				r.CreatedAt = parsed
			}
		}

		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

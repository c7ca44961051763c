// Package leaderboard handles SQLite persistence of game results.
package leaderboard

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/tuivia/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Size is the number of entries the leaderboard keeps.
const Size = 10

// Store wraps SQLite access for the leaderboard. A fresh database is an
// empty leaderboard.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS score_entries (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			score INTEGER NOT NULL,
			total INTEGER NOT NULL,
			category TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_score_entries_score ON score_entries(score);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rankQuery orders entries by score descending; ties keep insertion order.
const rankQuery = `SELECT id FROM score_entries ORDER BY score DESC, id ASC LIMIT ?`

// Load returns the leaderboard, best score first.
func (s *Store) Load(ctx context.Context) ([]model.ScoreEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, score, total, category, recorded_at
		 FROM score_entries
		 ORDER BY score DESC, id ASC
		 LIMIT ?`, Size)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var entries []model.ScoreEntry
	for rows.Next() {
		var entry model.ScoreEntry
		var recordedAt string
		if err := rows.Scan(&entry.Name, &entry.Score, &entry.Total, &entry.CategoryLabel, &recordedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, err
		}
		entry.RecordedAt = parsed
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Record inserts an entry, evicts everything below the top ranks, and
// returns the new leaderboard.
func (s *Store) Record(ctx context.Context, entry model.ScoreEntry) ([]model.ScoreEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO score_entries (name, score, total, category, recorded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.Name,
		entry.Score,
		entry.Total,
		entry.CategoryLabel,
		entry.RecordedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM score_entries WHERE id NOT IN (`+rankQuery+`)`, Size)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return s.Load(ctx)
}

// Clear removes all persisted entries.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM score_entries`)
	return err
}

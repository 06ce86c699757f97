// Package store handles persistence of partial snapshots and run history.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/verte-zerg/keyload/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a key or run does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout keeps timestamps fixed-width so they sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// BlockKey returns the key a chunk's partial snapshot is stored under.
func BlockKey(prefix string, chunkID int) string {
	return fmt.Sprintf("%s%d", BlockPrefix(prefix), chunkID)
}

// BlockPrefix is the part shared by every block key under prefix.
func BlockPrefix(prefix string) string {
	if prefix == "" {
		return "block_"
	}
	return prefix + ":block_"
}

// Store wraps SQLite access for partials and runs.
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
	// Queue workers save partials concurrently; one connection keeps SQLite
	// from reporting a busy database.
	db.SetMaxOpenConns(1)
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
		`CREATE TABLE IF NOT EXISTS partials (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			strategy TEXT NOT NULL,
			chunk_size INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			totals TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chunk_totals (
			run_id TEXT NOT NULL,
			chunk_id INTEGER NOT NULL,
			layout TEXT NOT NULL,
			load INTEGER NOT NULL,
			presses INTEGER NOT NULL,
			PRIMARY KEY (run_id, chunk_id, layout)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save stores a partial snapshot under key, replacing any previous value.
func (s *Store) Save(ctx context.Context, key string, snap model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO partials (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UTC().Format(timeLayout))
	return err
}

// Load returns the partial snapshot stored under key.
func (s *Store) Load(ctx context.Context, key string) (model.Snapshot, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM partials WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", key, err)
	}
	return snap, nil
}

// Keys lists stored partial keys with the given prefix.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM partials WHERE substr(key, 1, ?) = ? ORDER BY key ASC`, utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Delete removes partial keys. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, key := range keys {
		placeholders[i] = "?"
		args[i] = key
	}
	query := fmt.Sprintf(`DELETE FROM partials WHERE key IN (%s)`, strings.Join(placeholders, ","))
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// InsertRun stores a finished run and its per-chunk totals.
func (s *Store) InsertRun(ctx context.Context, run model.Run, chunks []model.ChunkTotal) (err error) {
	totals, err := json.Marshal(run.Totals)
	if err != nil {
		return fmt.Errorf("failed to encode run totals: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
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
		`INSERT INTO runs (id, source, strategy, chunk_size, chunks, started_at, ended_at, totals)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Source,
		run.Strategy,
		run.ChunkSize,
		run.Chunks,
		run.StartedAt.UTC().Format(timeLayout),
		run.EndedAt.UTC().Format(timeLayout),
		string(totals),
	)
	if err != nil {
		return err
	}

	if len(chunks) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO chunk_totals (run_id, chunk_id, layout, load, presses) VALUES (?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, ct := range chunks {
			if _, err = stmt.ExecContext(ctx, run.ID, ct.ChunkID, ct.Layout, ct.Load, ct.Presses); err != nil {
				return err
			}
		}
	}

	err = tx.Commit()
	return err
}

// ListRuns returns the most recent runs, newest first. A non-positive limit returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	query := `SELECT id, source, strategy, chunk_size, chunks, started_at, ended_at, totals
		FROM runs ORDER BY ended_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRun returns a run by id or by a unique id prefix.
func (s *Store) GetRun(ctx context.Context, id string) (model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, strategy, chunk_size, chunks, started_at, ended_at, totals
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, strategy, chunk_size, chunks, started_at, ended_at, totals
		 FROM runs WHERE substr(id, 1, ?) = ? ORDER BY ended_at DESC LIMIT 2`, utf8.RuneCountInString(id), id)
	if err != nil {
		return model.Run{}, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var found []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return model.Run{}, err
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return model.Run{}, err
	}
	switch len(found) {
	case 0:
		return model.Run{}, fmt.Errorf("%w: run %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	}
	return model.Run{}, fmt.Errorf("run id %q is ambiguous", id)
}

// LatestRun returns the most recently finished run.
func (s *Store) LatestRun(ctx context.Context) (model.Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return model.Run{}, err
	}
	if len(runs) == 0 {
		return model.Run{}, fmt.Errorf("%w: no runs recorded", ErrNotFound)
	}
	return runs[0], nil
}

// ListChunkTotals returns the per-chunk totals of a run ordered by chunk.
func (s *Store) ListChunkTotals(ctx context.Context, runID string) ([]model.ChunkTotal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_id, layout, load, presses FROM chunk_totals
		 WHERE run_id = ? ORDER BY chunk_id ASC, layout ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ChunkTotal
	for rows.Next() {
		var ct model.ChunkTotal
		if err := rows.Scan(&ct.ChunkID, &ct.Layout, &ct.Load, &ct.Presses); err != nil {
			return nil, err
		}
		result = append(result, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (model.Run, error) {
	var run model.Run
	var startedAt, endedAt, totals string
	if err := row.Scan(&run.ID, &run.Source, &run.Strategy, &run.ChunkSize, &run.Chunks, &startedAt, &endedAt, &totals); err != nil {
		return model.Run{}, err
	}
	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return model.Run{}, err
	}
	if run.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
		return model.Run{}, err
	}
	if err := json.Unmarshal([]byte(totals), &run.Totals); err != nil {
		return model.Run{}, fmt.Errorf("failed to decode run totals: %w", err)
	}
	return run, nil
}

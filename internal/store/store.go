// Package store handles SQLite persistence of payload exports and simulation runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/proxgrid/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store wraps SQLite access for exports and simulations.
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
		`CREATE TABLE IF NOT EXISTS exports (
			id INTEGER PRIMARY KEY,
			created_at TEXT NOT NULL,
			layout TEXT NOT NULL,
			grid_width INTEGER NOT NULL,
			grid_height INTEGER NOT NULL,
			key_count INTEGER NOT NULL,
			correction INTEGER NOT NULL,
			payload BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS simulations (
			id INTEGER PRIMARY KEY,
			created_at TEXT NOT NULL,
			layout TEXT NOT NULL,
			samples INTEGER NOT NULL,
			sigma REAL NOT NULL,
			hits INTEGER NOT NULL,
			misses INTEGER NOT NULL,
			top_candidate_hits INTEGER NOT NULL,
			no_key INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_exports_created_at ON exports(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_simulations_created_at ON simulations(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertExport stores a payload snapshot and returns its id.
func (s *Store) InsertExport(ctx context.Context, rec model.ExportRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO exports (created_at, layout, grid_width, grid_height, key_count, correction, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.Layout,
		rec.GridWidth,
		rec.GridHeight,
		rec.KeyCount,
		rec.Correction,
		rec.Payload,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetExport loads one export including its payload.
func (s *Store) GetExport(ctx context.Context, id int64) (model.ExportRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, layout, grid_width, grid_height, key_count, correction, payload
		 FROM exports WHERE id = ?`, id)
	var rec model.ExportRecord
	var createdAt string
	err := row.Scan(&rec.ID, &createdAt, &rec.Layout, &rec.GridWidth, &rec.GridHeight, &rec.KeyCount, &rec.Correction, &rec.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("export %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return rec, err
	}
	rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return rec, err
	}
	return rec, nil
}

// ListExports returns exports without their payloads, newest first.
func (s *Store) ListExports(ctx context.Context, filter model.HistoryFilter) ([]model.ExportRecord, error) {
	where, args := filterClause(filter)
	query := fmt.Sprintf(`SELECT id, created_at, layout, grid_width, grid_height, key_count, correction
		FROM exports
		WHERE %s
		ORDER BY created_at DESC, id DESC%s`, where, limitClause(filter))
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

	var result []model.ExportRecord
	for rows.Next() {
		var rec model.ExportRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Layout, &rec.GridWidth, &rec.GridHeight, &rec.KeyCount, &rec.Correction); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = parsed
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// InsertSimulation stores a simulation run and returns its id.
func (s *Store) InsertSimulation(ctx context.Context, rec model.SimulationRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO simulations (created_at, layout, samples, sigma, hits, misses, top_candidate_hits, no_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.Layout,
		rec.Result.Samples,
		rec.Sigma,
		rec.Result.Hits,
		rec.Result.Misses,
		rec.Result.CandidateHits,
		rec.Result.NoKey,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListSimulations returns simulation runs, oldest first.
func (s *Store) ListSimulations(ctx context.Context, filter model.HistoryFilter) ([]model.SimulationRecord, error) {
	where, args := filterClause(filter)
	query := fmt.Sprintf(`SELECT id, created_at, layout, samples, sigma, hits, misses, top_candidate_hits, no_key
		FROM (
			SELECT * FROM simulations
			WHERE %s
			ORDER BY created_at DESC, id DESC%s
		)
		ORDER BY created_at ASC, id ASC`, where, limitClause(filter))
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

	var result []model.SimulationRecord
	for rows.Next() {
		var rec model.SimulationRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Layout, &rec.Result.Samples, &rec.Sigma,
			&rec.Result.Hits, &rec.Result.Misses, &rec.Result.CandidateHits, &rec.Result.NoKey); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		rec.CreatedAt = parsed
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func filterClause(filter model.HistoryFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Layout != "" {
		clauses = append(clauses, "layout = ?")
		args = append(args, filter.Layout)
	}
	if filter.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339Nano))
	}
	return strings.Join(clauses, " AND "), args
}

func limitClause(filter model.HistoryFilter) string {
	if filter.Last <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", filter.Last)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive journals pipeline runs in a SQLite database. Each collect,
// extract, or report invocation records what it did and where its output
// went; the pipeline outputs themselves stay flat JSON/Markdown files.
//
// Implements: prd013-run-archive (R1-R3)
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

const dbFile = "runs.db"

// Run kinds recorded in the archive.
const (
	KindCollectTrials = "collect-trials"
	KindCollectPubmed = "collect-pubmed"
	KindExtract       = "extract"
	KindReport        = "report"
)

// Run is one archived pipeline invocation.
type Run struct {
	ID          int64  `json:"id" yaml:"id"`
	Kind        string `json:"kind" yaml:"kind"`
	Query       string `json:"query,omitempty" yaml:"query,omitempty"`
	RecordCount int    `json:"record_count" yaml:"record_count"`
	OutputPath  string `json:"output_path" yaml:"output_path"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
}

// Store manages the run archive SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the archive database at dir/runs.db, creating
// the schema if it does not exist.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = types.DefaultArchiveConfig().Dir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			query TEXT,
			record_count INTEGER NOT NULL,
			output_path TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun inserts one run. CreatedAt is stamped server-side in UTC when
// the caller leaves it empty.
func (s *Store) RecordRun(ctx context.Context, r Run) (int64, error) {
	createdAt := r.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (kind, query, record_count, output_path, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		r.Kind, r.Query, r.RecordCount, r.OutputPath, createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}
	return id, nil
}

// ListRuns returns archived runs, newest first. The kind filter is optional
// and limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, kind string, limit int) ([]Run, error) {
	query := `SELECT id, kind, query, record_count, output_path, created_at FROM runs`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var q sql.NullString
		if err := rows.Scan(&r.ID, &r.Kind, &q, &r.RecordCount, &r.OutputPath, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Query = q.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

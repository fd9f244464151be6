// Package store provides the SQLite coordination store for handoff
// artifacts.
//
// The database holds one handoffs table keyed by absolute file path.
// Ingestion is an idempotent insert-or-overwrite: re-ingesting a path
// replaces every column and advances indexed_at, so the store always
// reflects the most recently read version of each file. No history is
// kept.
//
// The store runs embedded with WAL mode enabled. The file_path uniqueness
// constraint is the sole concurrency guard; concurrent upserts of the
// same path serialize to last-write-wins.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/calebdoyle/hsync/internal/artifact"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB wraps the SQLite connection with handoff-specific operations.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates a database connection at the specified path, creating the
// parent directory if needed. The caller must Close() when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path}

	// WAL for concurrent readers during writes.
	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}

// InitSchema creates the handoffs table if it does not exist.
// Idempotent, safe to call any number of times.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the database schema with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS handoffs (
		session_name  TEXT NOT NULL,
		file_path     TEXT NOT NULL UNIQUE,
		format        TEXT NOT NULL,
		session_id    TEXT,
		agent_id      TEXT,
		root_span_id  TEXT,
		goal          TEXT,
		what_worked   TEXT,
		what_failed   TEXT,
		key_decisions TEXT,
		outcome       TEXT,
		content       TEXT NOT NULL,
		indexed_at    TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_handoffs_session ON handoffs(session_name);
	CREATE INDEX IF NOT EXISTS idx_handoffs_agent ON handoffs(agent_id);
	CREATE INDEX IF NOT EXISTS idx_handoffs_outcome ON handoffs(outcome);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// UpsertArtifact inserts or fully overwrites the row for a record's file
// path. Every column is replaced, never merged, so a document that drops
// a section cannot resurrect the stale value from a prior version.
// indexed_at is assigned by the database on every write.
func (db *DB) UpsertArtifact(rec *artifact.Record) error {
	return db.UpsertArtifactContext(context.Background(), rec)
}

// UpsertArtifactContext inserts or overwrites a record with context support.
func (db *DB) UpsertArtifactContext(ctx context.Context, rec *artifact.Record) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	query := `
	INSERT INTO handoffs (
		session_name, file_path, format,
		session_id, agent_id, root_span_id,
		goal, what_worked, what_failed, key_decisions,
		outcome, content, indexed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	ON CONFLICT(file_path) DO UPDATE SET
		session_name  = excluded.session_name,
		format        = excluded.format,
		session_id    = excluded.session_id,
		agent_id      = excluded.agent_id,
		root_span_id  = excluded.root_span_id,
		goal          = excluded.goal,
		what_worked   = excluded.what_worked,
		what_failed   = excluded.what_failed,
		key_decisions = excluded.key_decisions,
		outcome       = excluded.outcome,
		content       = excluded.content,
		indexed_at    = excluded.indexed_at
	`

	_, err := db.conn.ExecContext(ctx, query,
		rec.SessionName,
		rec.FilePath,
		string(rec.Format),
		nullable(rec.SessionID),
		nullable(rec.AgentID),
		nullable(rec.RootSpanID),
		nullable(rec.Goal),
		nullable(rec.WhatWorked),
		nullable(rec.WhatFailed),
		nullable(rec.KeyDecisions),
		nullable(string(rec.Outcome)),
		rec.Content,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert artifact %s: %w", rec.FilePath, err)
	}

	return nil
}

// DeleteByPath removes the row for a file path.
// Returns nil if no such row exists (idempotent).
func (db *DB) DeleteByPath(ctx context.Context, path string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM handoffs WHERE file_path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete artifact %s: %w", path, err)
	}
	return nil
}

// StoredRow is the store-side projection used for reconciliation:
// the path and session identity of one row, plus its agent.
type StoredRow struct {
	FilePath    string
	SessionName string
	AgentID     string
}

// RowsUnder returns the path/session/agent projection of every row whose
// file_path starts with the given directory prefix.
func (db *DB) RowsUnder(ctx context.Context, dir string) ([]StoredRow, error) {
	prefix := dir + string(os.PathSeparator)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT file_path, session_name, COALESCE(agent_id, '') FROM handoffs WHERE file_path LIKE ? ESCAPE '\'`,
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows under %s: %w", dir, err)
	}
	defer rows.Close()

	var out []StoredRow
	for rows.Next() {
		var r StoredRow
		if err := rows.Scan(&r.FilePath, &r.SessionName, &r.AgentID); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// CountRows returns the total number of handoff rows.
func (db *DB) CountRows(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM handoffs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count handoffs: %w", err)
	}
	return count, nil
}

// StoredArtifact is a fully materialized store row.
type StoredArtifact struct {
	artifact.Record
	IndexedAt time.Time
}

// GetByPath retrieves a single row by file path.
// Returns sql.ErrNoRows if the path is not stored.
func (db *DB) GetByPath(ctx context.Context, path string) (*StoredArtifact, error) {
	query := `
	SELECT session_name, file_path, format,
	       session_id, agent_id, root_span_id,
	       goal, what_worked, what_failed, key_decisions,
	       outcome, content, indexed_at
	FROM handoffs
	WHERE file_path = ?
	`

	var (
		a          StoredArtifact
		format     string
		sessionID  sql.NullString
		agentID    sql.NullString
		rootSpanID sql.NullString
		goal       sql.NullString
		worked     sql.NullString
		failed     sql.NullString
		decisions  sql.NullString
		outcome    sql.NullString
		indexedAt  string
	)
	err := db.conn.QueryRowContext(ctx, query, path).Scan(
		&a.SessionName, &a.FilePath, &format,
		&sessionID, &agentID, &rootSpanID,
		&goal, &worked, &failed, &decisions,
		&outcome, &a.Content, &indexedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Format = artifact.Format(format)
	a.SessionID = sessionID.String
	a.AgentID = agentID.String
	a.RootSpanID = rootSpanID.String
	a.Goal = goal.String
	a.WhatWorked = worked.String
	a.WhatFailed = failed.String
	a.KeyDecisions = decisions.String
	a.Outcome = artifact.Outcome(outcome.String)

	if t, err := time.Parse("2006-01-02T15:04:05.000Z", indexedAt); err == nil {
		a.IndexedAt = t
	}

	return &a, nil
}

// nullable converts an empty string to SQL NULL.
func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// escapeLike escapes LIKE metacharacters in a literal prefix.
func escapeLike(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

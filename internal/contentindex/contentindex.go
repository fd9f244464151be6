// Package contentindex maintains an optional full-text index over
// Markdown artifact content.
//
// The index is a secondary, best-effort collaborator: it is updated
// after each successful store upsert and any failure here is swallowed
// by the caller. Losing the index never loses data; it is rebuilt by the
// next sweep.
package contentindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DirRel is the conventional index location inside a project root.
var DirRel = filepath.Join(".hsync", "cache", "artifact-index", "context.db")

// Index wraps the FTS database connection.
type Index struct {
	conn *sql.DB
}

// Open creates or opens the index database and ensures its schema.
func Open(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping index: %w", err)
	}

	schema := `CREATE VIRTUAL TABLE IF NOT EXISTS artifact_fts USING fts5(file_path, content)`
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}

	return &Index{conn: conn}, nil
}

// Close closes the index connection.
func (ix *Index) Close() error {
	if ix.conn == nil {
		return nil
	}
	err := ix.conn.Close()
	ix.conn = nil
	return err
}

// IndexFile replaces the indexed content for a file path.
func (ix *Index) IndexFile(ctx context.Context, path, content string) error {
	tx, err := ix.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM artifact_fts WHERE file_path = ?`, path); err != nil {
		return fmt.Errorf("failed to clear index entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO artifact_fts (file_path, content) VALUES (?, ?)`, path, content); err != nil {
		return fmt.Errorf("failed to index %s: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index entry: %w", err)
	}
	return nil
}

// Search returns file paths whose content matches an FTS5 query,
// best first.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]string, error) {
	q := `SELECT file_path FROM artifact_fts WHERE artifact_fts MATCH ? ORDER BY rank`
	args := []interface{}{query}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := ix.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}
	return paths, nil
}

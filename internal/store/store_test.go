package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/calebdoyle/hsync/internal/artifact"
)

// testDB opens an initialized store in a temp dir.
func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "coordination.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.InitSchema(); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}
	return db
}

func testRecord(path string) *artifact.Record {
	return &artifact.Record{
		SessionName: "alpha",
		FilePath:    path,
		Format:      artifact.FormatMarkdown,
		AgentID:     "agent-1",
		Goal:        "ship it",
		Outcome:     artifact.OutcomeSucceeded,
		Content:     "---\nsession: alpha\n---\nbody\n",
	}
}

func TestInitSchema_Idempotent(t *testing.T) {
	db := testDB(t)
	if err := db.InitSchema(); err != nil {
		t.Errorf("second InitSchema() failed: %v", err)
	}
}

func TestUpsertArtifact_Insert(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.UpsertArtifact(testRecord("/proj/handoffs/alpha/a.md")); err != nil {
		t.Fatalf("UpsertArtifact() failed: %v", err)
	}

	got, err := db.GetByPath(ctx, "/proj/handoffs/alpha/a.md")
	if err != nil {
		t.Fatalf("GetByPath() failed: %v", err)
	}
	if got.SessionName != "alpha" {
		t.Errorf("SessionName = %q, want %q", got.SessionName, "alpha")
	}
	if got.Outcome != artifact.OutcomeSucceeded {
		t.Errorf("Outcome = %q, want %q", got.Outcome, artifact.OutcomeSucceeded)
	}
	if got.IndexedAt.IsZero() {
		t.Error("IndexedAt was not assigned")
	}
}

func TestUpsertArtifact_Idempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	path := "/proj/handoffs/alpha/a.md"

	rec := testRecord(path)
	if err := db.UpsertArtifact(rec); err != nil {
		t.Fatalf("first UpsertArtifact() failed: %v", err)
	}
	first, err := db.GetByPath(ctx, path)
	if err != nil {
		t.Fatalf("GetByPath() failed: %v", err)
	}

	// indexed_at has millisecond resolution.
	time.Sleep(10 * time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := db.UpsertArtifact(rec); err != nil {
			t.Fatalf("repeat UpsertArtifact() failed: %v", err)
		}
	}

	count, err := db.CountRows(ctx)
	if err != nil {
		t.Fatalf("CountRows() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want exactly 1", count)
	}

	second, err := db.GetByPath(ctx, path)
	if err != nil {
		t.Fatalf("GetByPath() failed: %v", err)
	}
	if got, want := second.Content, first.Content; got != want {
		t.Errorf("content changed on re-upsert: %q != %q", got, want)
	}
	if !second.IndexedAt.After(first.IndexedAt) {
		t.Errorf("indexed_at did not advance: %v -> %v", first.IndexedAt, second.IndexedAt)
	}
}

func TestUpsertArtifact_FullOverwrite(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	path := "/proj/handoffs/alpha/a.md"

	rec := testRecord(path)
	rec.WhatWorked = "- the first attempt"
	if err := db.UpsertArtifact(rec); err != nil {
		t.Fatalf("UpsertArtifact() failed: %v", err)
	}

	// The new version genuinely omits the section; the old value must not
	// survive the overwrite.
	updated := testRecord(path)
	updated.WhatWorked = ""
	updated.Content = "new content"
	if err := db.UpsertArtifact(updated); err != nil {
		t.Fatalf("overwrite UpsertArtifact() failed: %v", err)
	}

	got, err := db.GetByPath(ctx, path)
	if err != nil {
		t.Fatalf("GetByPath() failed: %v", err)
	}
	if got.WhatWorked != "" {
		t.Errorf("WhatWorked = %q, want absent after overwrite", got.WhatWorked)
	}
	if got.Content != "new content" {
		t.Errorf("Content = %q, want %q", got.Content, "new content")
	}
}

func TestUpsertArtifact_RejectsInvalid(t *testing.T) {
	db := testDB(t)

	rec := testRecord("/proj/handoffs/alpha/a.md")
	rec.SessionName = ""
	if err := db.UpsertArtifact(rec); err == nil {
		t.Error("UpsertArtifact() accepted a record without session_name")
	}
}

func TestRowsUnder(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	inside := testRecord("/proj/handoffs/alpha/a.md")
	if err := db.UpsertArtifact(inside); err != nil {
		t.Fatalf("UpsertArtifact() failed: %v", err)
	}
	outside := testRecord("/other/handoffs/beta/b.md")
	outside.SessionName = "beta"
	if err := db.UpsertArtifact(outside); err != nil {
		t.Fatalf("UpsertArtifact() failed: %v", err)
	}

	rows, err := db.RowsUnder(ctx, "/proj/handoffs")
	if err != nil {
		t.Fatalf("RowsUnder() failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("RowsUnder() returned %d rows, want 1: %v", len(rows), rows)
	}
	if rows[0].FilePath != inside.FilePath {
		t.Errorf("FilePath = %q, want %q", rows[0].FilePath, inside.FilePath)
	}
	if rows[0].SessionName != "alpha" {
		t.Errorf("SessionName = %q, want %q", rows[0].SessionName, "alpha")
	}
	if rows[0].AgentID != "agent-1" {
		t.Errorf("AgentID = %q, want %q", rows[0].AgentID, "agent-1")
	}
}

func TestDeleteByPath(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	path := "/proj/handoffs/alpha/a.md"

	if err := db.UpsertArtifact(testRecord(path)); err != nil {
		t.Fatalf("UpsertArtifact() failed: %v", err)
	}
	if err := db.DeleteByPath(ctx, path); err != nil {
		t.Fatalf("DeleteByPath() failed: %v", err)
	}
	if _, err := db.GetByPath(ctx, path); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetByPath() after delete: err = %v, want sql.ErrNoRows", err)
	}

	// Deleting again is a no-op.
	if err := db.DeleteByPath(ctx, path); err != nil {
		t.Errorf("repeat DeleteByPath() failed: %v", err)
	}
}

func TestNullableOptionalFields(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	path := "/proj/handoffs/alpha/bare.md"

	rec := &artifact.Record{
		SessionName: "alpha",
		FilePath:    path,
		Format:      artifact.FormatMarkdown,
		Content:     "bare\n",
	}
	if err := db.UpsertArtifact(rec); err != nil {
		t.Fatalf("UpsertArtifact() failed: %v", err)
	}

	got, err := db.GetByPath(ctx, path)
	if err != nil {
		t.Fatalf("GetByPath() failed: %v", err)
	}
	if got.Goal != "" || got.Outcome != "" || got.AgentID != "" {
		t.Errorf("optional fields not absent: %+v", got)
	}
}

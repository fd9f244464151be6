package contentindex

import (
	"context"
	"path/filepath"
	"testing"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(filepath.Join(t.TempDir(), "context.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestIndexFileAndSearch(t *testing.T) {
	ix := testIndex(t)
	ctx := context.Background()

	if err := ix.IndexFile(ctx, "/p/a.md", "the token refresh race"); err != nil {
		t.Fatalf("IndexFile() failed: %v", err)
	}
	if err := ix.IndexFile(ctx, "/p/b.md", "database schema notes"); err != nil {
		t.Fatalf("IndexFile() failed: %v", err)
	}

	paths, err := ix.Search(ctx, "refresh", 10)
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(paths) != 1 || paths[0] != "/p/a.md" {
		t.Errorf("Search() = %v, want [/p/a.md]", paths)
	}
}

func TestIndexFile_Replaces(t *testing.T) {
	ix := testIndex(t)
	ctx := context.Background()

	if err := ix.IndexFile(ctx, "/p/a.md", "old words here"); err != nil {
		t.Fatalf("IndexFile() failed: %v", err)
	}
	if err := ix.IndexFile(ctx, "/p/a.md", "entirely new text"); err != nil {
		t.Fatalf("IndexFile() failed: %v", err)
	}

	paths, err := ix.Search(ctx, "old", 10)
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("stale entry survived re-index: %v", paths)
	}

	paths, err = ix.Search(ctx, "entirely", 10)
	if err != nil {
		t.Fatalf("Search() failed: %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("Search() = %v, want one match", paths)
	}
}

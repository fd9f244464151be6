// Package legacy invokes the external migration step that converts
// old-style .handoff/.checkpoint artifacts into the unified layout.
//
// The migration is a black box: the sweep only cares whether it ran.
package legacy

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Migrator converts legacy on-disk artifacts before a sweep.
type Migrator interface {
	// Run executes the migration for a project root. When dryRun is true
	// the migration only reports what it would change.
	Run(ctx context.Context, projectRoot string, dryRun bool) error
}

// HookMigrator runs the project's hook-managed migration script via npm.
type HookMigrator struct{}

// Run implements Migrator. Projects without a hooks directory are
// treated as having nothing to migrate.
func (HookMigrator) Run(ctx context.Context, projectRoot string, dryRun bool) error {
	hooksDir := filepath.Join(projectRoot, ".hsync", "hooks")
	if _, err := os.Stat(hooksDir); os.IsNotExist(err) {
		return nil
	}

	script := "migrate"
	if dryRun {
		script = "migrate:dry-run"
	}

	cmd := exec.CommandContext(ctx, "npm", "run", "--silent", script)
	cmd.Dir = hooksDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("migration script failed: %w: %s", err, stderr.String())
	}
	return nil
}

// Noop is a Migrator that does nothing, for tests and for sweeps where
// migration is disabled.
type Noop struct{}

// Run implements Migrator.
func (Noop) Run(context.Context, string, bool) error { return nil }

// HasLegacyDirs reports whether a project still carries legacy artifact
// directories.
func HasLegacyDirs(projectRoot string) (handoff, checkpoint bool) {
	if _, err := os.Stat(filepath.Join(projectRoot, ".handoff")); err == nil {
		handoff = true
	}
	if _, err := os.Stat(filepath.Join(projectRoot, ".checkpoint")); err == nil {
		checkpoint = true
	}
	return handoff, checkpoint
}

// FileCounts reports how many files remain under a project's legacy
// artifact directories. A missing directory counts as zero.
func FileCounts(projectRoot string) (handoff, checkpoint int) {
	return countFiles(filepath.Join(projectRoot, ".handoff")),
		countFiles(filepath.Join(projectRoot, ".checkpoint"))
}

func countFiles(dir string) int {
	count := 0
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	return count
}

package sweep

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/calebdoyle/hsync/internal/artifact"
	"github.com/calebdoyle/hsync/internal/legacy"
	"github.com/calebdoyle/hsync/internal/reconcile"
)

// HealthOptions configures one health check.
type HealthOptions struct {
	// IncludeFiles adds the literal missing/stale identifier lists to the
	// result, bounded by Limit.
	IncludeFiles bool
	// Limit caps each identifier list. Zero means unlimited.
	Limit int
}

// DiskSummary describes the on-disk side of a health check.
type DiskSummary struct {
	Files    int `json:"files"`
	YAML     int `json:"yaml"`
	Markdown int `json:"markdown"`
	Sessions int `json:"sessions"`
}

// StoreSummary describes the store side of a health check.
type StoreSummary struct {
	Rows          int            `json:"rows"`
	Sessions      int            `json:"sessions"`
	Agents        map[string]int `json:"agents"`
	UnknownAgents int            `json:"unknown_agents"`
}

// DiffSummary carries one projection's reconciliation outcome. The lists
// are sorted and bounded; the counts are always exact.
type DiffSummary struct {
	Missing      []string `json:"missing,omitempty"`
	MissingCount int      `json:"missing_count"`
	Stale        []string `json:"stale,omitempty"`
	StaleCount   int      `json:"stale_count"`
}

// HealthResult summarizes one project's disk/store reconciliation.
type HealthResult struct {
	Project               string       `json:"project"`
	Disk                  DiskSummary  `json:"disk"`
	Store                 StoreSummary `json:"store"`
	Paths                 DiffSummary  `json:"paths"`
	Sessions              DiffSummary  `json:"sessions"`
	LegacyHandoffFiles    int          `json:"legacy_handoff_files"`
	LegacyCheckpointFiles int          `json:"legacy_checkpoint_files"`
}

// HealthCheck compares disk-resident artifacts against store rows for
// one project. It is read-only on both sides. Both projections (file
// paths and session names) are computed and reported independently: a
// path can be missing while its session is already known through another
// file.
func (s *Sweeper) HealthCheck(ctx context.Context, projectRoot string, opts HealthOptions) (*HealthResult, error) {
	result := &HealthResult{
		Project: projectRoot,
		Store:   StoreSummary{Agents: map[string]int{}},
	}
	result.LegacyHandoffFiles, result.LegacyCheckpointFiles = legacy.FileCounts(projectRoot)

	dir := artifact.Dir(projectRoot)
	files, err := artifact.ListFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts in %s: %w", dir, err)
	}

	diskPaths := reconcile.NewSet()
	diskSessions := reconcile.NewSet()
	for _, path := range files {
		diskPaths.Add(path)
		diskSessions.Add(sessionForFile(path))
	}

	result.Disk.Files = len(files)
	result.Disk.YAML, result.Disk.Markdown = artifact.CountByFormat(files)
	result.Disk.Sessions = len(diskSessions)

	storePaths := reconcile.NewSet()
	storeSessions := reconcile.NewSet()
	if s.store != nil {
		rows, err := s.store.RowsUnder(ctx, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read store rows: %w", err)
		}
		for _, row := range rows {
			storePaths.Add(row.FilePath)
			storeSessions.Add(row.SessionName)
			agent := row.AgentID
			if agent == "" {
				agent = "unknown"
			}
			result.Store.Agents[agent]++
		}
		result.Store.Rows = len(rows)
		result.Store.Sessions = len(storeSessions)
		result.Store.UnknownAgents = result.Store.Agents["unknown"]
	}

	result.Paths = summarizeDiff(reconcile.Compute(diskPaths, storePaths), opts)
	result.Sessions = summarizeDiff(reconcile.Compute(diskSessions, storeSessions), opts)

	return result, nil
}

// sessionForFile resolves a file's session identity the same way
// ingestion does: header chain first, path derivation as fallback.
// Unreadable files degrade to derivation alone.
func sessionForFile(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		name, _ := artifact.DeriveSessionName(path)
		return name
	}
	rec, err := artifact.BuildRecord(path, string(content))
	if err != nil {
		return ""
	}
	return rec.SessionName
}

// summarizeDiff sorts and bounds one projection's diff for presentation.
// The engine itself never orders results; the stable sort is imposed here.
func summarizeDiff(d reconcile.Diff, opts HealthOptions) DiffSummary {
	sort.Strings(d.Missing)
	sort.Strings(d.Stale)

	out := DiffSummary{
		MissingCount: len(d.Missing),
		StaleCount:   len(d.Stale),
	}
	if opts.IncludeFiles {
		out.Missing = bound(d.Missing, opts.Limit)
		out.Stale = bound(d.Stale, opts.Limit)
	}
	return out
}

func bound(keys []string, limit int) []string {
	if limit > 0 && len(keys) > limit {
		return keys[:limit]
	}
	return keys
}

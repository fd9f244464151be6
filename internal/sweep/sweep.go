// Package sweep orchestrates artifact ingestion and health checks.
//
// A sweep is one full pass over a project's handoffs directory: every
// artifact file is parsed, normalized, and upserted into the store. A
// health check is the read-only counterpart, comparing disk against the
// store without writing.
//
// The sweeper is resilient to individual document failures: rejected
// records and unreadable files are counted and reported, never fatal.
// Store write failures are the only class that aborts a project's sweep,
// and they must not prevent other projects from being processed.
package sweep

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/calebdoyle/hsync/internal/artifact"
	"github.com/calebdoyle/hsync/internal/legacy"
	"github.com/calebdoyle/hsync/internal/store"
)

// Store is the subset of store operations the sweeper needs.
type Store interface {
	UpsertArtifactContext(ctx context.Context, rec *artifact.Record) error
	RowsUnder(ctx context.Context, dir string) ([]store.StoredRow, error)
}

// ContentIndexer is the optional secondary full-text index. Failures are
// logged and swallowed; the index never fails a sweep.
type ContentIndexer interface {
	IndexFile(ctx context.Context, path, content string) error
}

// Sweeper ingests artifacts for projects and reports on store health.
type Sweeper struct {
	store    Store
	index    ContentIndexer
	migrator legacy.Migrator
	logger   *log.Logger
}

// New creates a Sweeper. The store may be nil for health-only use, in
// which case store-side sets are reported empty. A nil index disables
// content indexing, a nil migrator disables legacy migration, and a nil
// logger defaults to stderr.
func New(st Store, index ContentIndexer, migrator legacy.Migrator, logger *log.Logger) *Sweeper {
	if migrator == nil {
		migrator = legacy.Noop{}
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[sweep] ", log.LstdFlags)
	}
	return &Sweeper{
		store:    st,
		index:    index,
		migrator: migrator,
		logger:   logger,
	}
}

// Options configures one sweep invocation.
type Options struct {
	// DryRun parses and counts without writing to the store.
	DryRun bool
	// MigrateLegacy runs the external legacy migration before sweeping.
	MigrateLegacy bool
	// Parallelism bounds concurrent document parsing. Zero means serial.
	Parallelism int
}

// ProjectResult summarizes one project's sweep.
type ProjectResult struct {
	Project          string   `json:"project"`
	Status           string   `json:"status,omitempty"`
	Files            int      `json:"files"`
	YAML             int      `json:"yaml"`
	Markdown         int      `json:"markdown"`
	Ingested         int      `json:"ingested"`
	Errors           []string `json:"errors,omitempty"`
	LegacyHandoff    bool     `json:"legacy_handoff"`
	LegacyCheckpoint bool     `json:"legacy_checkpoint"`
}

// StatusMissingDir marks a project with no handoffs directory.
const StatusMissingDir = "missing_handoffs_dir"

// StatusStoreError marks a project whose sweep was aborted by a store
// write failure.
const StatusStoreError = "store_error"

// parsedFile is the outcome of reading and normalizing one document.
type parsedFile struct {
	path   string
	record *artifact.Record
	err    error
}

// SweepProject ingests every artifact under a project root.
//
// Document-level problems (unreadable files, missing session identity)
// are recorded in the result and do not abort the sweep. A store write
// failure aborts this project only; the partial result and the error are
// both returned so the caller can continue with other projects.
func (s *Sweeper) SweepProject(ctx context.Context, projectRoot string, opts Options) (*ProjectResult, error) {
	result := &ProjectResult{Project: projectRoot}
	result.LegacyHandoff, result.LegacyCheckpoint = legacy.HasLegacyDirs(projectRoot)

	if opts.MigrateLegacy {
		if err := s.migrator.Run(ctx, projectRoot, opts.DryRun); err != nil {
			// Migration failure leaves legacy files unconverted; the sweep
			// proceeds with whatever is in the unified layout.
			s.logger.Printf("legacy migration failed for %s: %v", projectRoot, err)
		}
	}

	dir := artifact.Dir(projectRoot)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		result.Status = StatusMissingDir
		return result, nil
	}

	files, err := artifact.ListFiles(dir)
	if err != nil {
		result.Status = StatusStoreError
		return result, fmt.Errorf("failed to list artifacts in %s: %w", dir, err)
	}

	result.Files = len(files)
	result.YAML, result.Markdown = artifact.CountByFormat(files)

	parsed := s.parseAll(ctx, files, opts.Parallelism)

	for _, p := range parsed {
		if p.err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.path, p.err))
			continue
		}

		if opts.DryRun {
			result.Ingested++
			continue
		}

		if err := s.store.UpsertArtifactContext(ctx, p.record); err != nil {
			result.Status = StatusStoreError
			return result, fmt.Errorf("failed to upsert %s: %w", p.path, err)
		}
		result.Ingested++

		if s.index != nil && p.record.Format == artifact.FormatMarkdown {
			if err := s.index.IndexFile(ctx, p.path, p.record.Content); err != nil {
				// At-most-effort: index failures never surface.
				s.logger.Printf("content index update failed for %s: %v", p.path, err)
			}
		}
	}

	return result, nil
}

// parseAll reads and normalizes documents, optionally in parallel.
// Each document is independent; results keep file order.
func (s *Sweeper) parseAll(ctx context.Context, files []string, parallelism int) []parsedFile {
	parsed := make([]parsedFile, len(files))

	if parallelism <= 1 {
		for i, path := range files {
			parsed[i] = parseOne(path)
		}
		return parsed
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, path := range files {
		g.Go(func() error {
			// Each goroutine writes its own slice element.
			parsed[i] = parseOne(path)
			return nil
		})
	}
	_ = g.Wait() // parse errors are carried per file, never returned
	return parsed
}

func parseOne(path string) parsedFile {
	content, err := os.ReadFile(path)
	if err != nil {
		return parsedFile{path: path, err: fmt.Errorf("unreadable: %w", err)}
	}
	rec, err := artifact.BuildRecord(path, string(content))
	if err != nil {
		return parsedFile{path: path, err: err}
	}
	return parsedFile{path: path, record: rec}
}

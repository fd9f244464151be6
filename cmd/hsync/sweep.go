package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/calebdoyle/hsync/internal/contentindex"
	"github.com/calebdoyle/hsync/internal/legacy"
	"github.com/calebdoyle/hsync/internal/sweep"
	"github.com/calebdoyle/hsync/internal/ui"
)

var (
	sweepDryRun      bool
	sweepMigrate     bool
	sweepParallelism int
	sweepVerbose     bool
	sweepMaxProjects int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [project-root ...]",
	Short: "Ingest handoff artifacts into the coordination store",
	Long: `Scan each project's thoughts/shared/handoffs/ directory and upsert
every readable artifact into the coordination database.

Without arguments, projects are discovered from session logs. Sweeping
is idempotent: re-running over unchanged files leaves the same rows in
place with a fresh indexed_at timestamp.

A store failure aborts only the affected project; remaining projects
are still swept.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		db := mustOpenStore(cfg)
		defer db.Close()

		roots := resolveProjects(cfg, args)
		if sweepMaxProjects > 0 && len(roots) > sweepMaxProjects {
			roots = roots[:sweepMaxProjects]
		}
		ctx := context.Background()

		logger := log.New(io.Discard, "", 0)
		if sweepVerbose {
			logger = log.New(os.Stderr, "[sweep] ", log.LstdFlags)
		}

		opts := sweep.Options{
			DryRun:        sweepDryRun,
			MigrateLegacy: sweepMigrate,
			Parallelism:   sweepParallelism,
		}

		start := time.Now()
		results := make([]*sweep.ProjectResult, 0, len(roots))
		failed := 0
		for _, root := range roots {
			var indexer sweep.ContentIndexer
			var index *contentindex.Index
			if cfg.ContentIndex && !sweepDryRun {
				var err error
				index, err = contentindex.Open(filepath.Join(root, contentindex.DirRel))
				if err != nil {
					fmt.Fprintf(os.Stderr, "Warning: content index unavailable for %s: %v\n", root, err)
				} else {
					indexer = index
				}
			}

			sweeper := sweep.New(db, indexer, legacy.HookMigrator{}, logger)
			result, err := sweeper.SweepProject(ctx, root, opts)
			if index != nil {
				index.Close()
			}
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "Error sweeping %s: %v\n", root, err)
			}
			if result != nil {
				results = append(results, result)
			}
		}

		if jsonOutput {
			out, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding results: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
		} else {
			printSweepResults(results, time.Since(start))
		}

		if failed == len(roots) && len(roots) > 0 {
			os.Exit(1)
		}
	},
}

func printSweepResults(results []*sweep.ProjectResult, elapsed time.Duration) {
	totalFiles, totalIngested := 0, 0
	for _, r := range results {
		switch r.Status {
		case sweep.StatusMissingDir:
			fmt.Printf("%s %s: no handoffs directory\n", ui.RenderDim("-"), r.Project)
			continue
		case sweep.StatusStoreError:
			fmt.Printf("%s %s: store error after %d/%d files\n",
				ui.RenderError("✗"), r.Project, r.Ingested, r.Files)
		default:
			fmt.Printf("%s %s: %d files (%d yaml, %d markdown), %d ingested\n",
				ui.RenderSuccess("✓"), r.Project, r.Files, r.YAML, r.Markdown, r.Ingested)
		}
		for _, e := range r.Errors {
			fmt.Printf("   %s %s\n", ui.RenderWarn("⚠"), e)
		}
		if r.LegacyHandoff || r.LegacyCheckpoint {
			fmt.Printf("   %s legacy directories present; run with --migrate-legacy\n", ui.RenderWarn("⚠"))
		}
		totalFiles += r.Files
		totalIngested += r.Ingested
	}
	fmt.Printf("\nSwept %d projects in %v: %d files, %d ingested\n",
		len(results), elapsed.Round(time.Millisecond), totalFiles, totalIngested)
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "Parse and count without writing to the store")
	sweepCmd.Flags().BoolVar(&sweepMigrate, "migrate-legacy", false, "Run legacy directory migration before sweeping")
	sweepCmd.Flags().IntVar(&sweepParallelism, "parallelism", 4, "Concurrent document parses per project (0 = serial)")
	sweepCmd.Flags().BoolVar(&sweepVerbose, "verbose", false, "Log per-file sweep activity to stderr")
	sweepCmd.Flags().IntVar(&sweepMaxProjects, "max-projects", 0, "Sweep at most N projects (0 = all)")
	rootCmd.AddCommand(sweepCmd)
}

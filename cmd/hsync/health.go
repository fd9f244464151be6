package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/calebdoyle/hsync/internal/config"
	"github.com/calebdoyle/hsync/internal/store"
	"github.com/calebdoyle/hsync/internal/sweep"
	"github.com/calebdoyle/hsync/internal/ui"
)

// openStoreBestEffort opens the coordination database for read-only
// reporting. Any failure warns to stderr and returns nil so the caller
// can proceed with an empty store side.
func openStoreBestEffort(cfg *config.Config) *store.DB {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: store unavailable at %s: %v\n", cfg.DBPath, err)
		return nil
	}
	if err := db.InitSchema(); err != nil {
		db.Close()
		fmt.Fprintf(os.Stderr, "Warning: store unavailable at %s: %v\n", cfg.DBPath, err)
		return nil
	}
	return db
}

var (
	healthFiles bool
	healthLimit int
)

var healthCmd = &cobra.Command{
	Use:   "health [project-root ...]",
	Short: "Report drift between disk artifacts and the store",
	Long: `Compare each project's on-disk handoff artifacts against the rows
the coordination store holds for it, without modifying either side.

Reports two projections independently:
  - paths: files present on disk vs file_path rows in the store
  - sessions: session names derivable from disk vs stored session names

"Missing" entries exist on disk but not in the store (run 'hsync sweep').
"Stale" entries exist in the store but their file is gone.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		// Health is read-only: an unreachable store degrades to empty
		// store-side sets instead of aborting.
		var st sweep.Store
		if db := openStoreBestEffort(cfg); db != nil {
			defer db.Close()
			st = db
		}

		roots := resolveProjects(cfg, args)
		ctx := context.Background()
		sweeper := sweep.New(st, nil, nil, log.New(io.Discard, "", 0))

		opts := sweep.HealthOptions{IncludeFiles: healthFiles, Limit: healthLimit}
		results := make([]*sweep.HealthResult, 0, len(roots))
		for _, root := range roots {
			result, err := sweeper.HealthCheck(ctx, root, opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: health check failed for %s: %v\n", root, err)
				continue
			}
			results = append(results, result)
		}

		if jsonOutput {
			out, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding results: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
			return
		}

		for _, r := range results {
			printHealthResult(r)
		}
	},
}

func printHealthResult(r *sweep.HealthResult) {
	clean := r.Paths.MissingCount == 0 && r.Paths.StaleCount == 0 &&
		r.Sessions.MissingCount == 0 && r.Sessions.StaleCount == 0

	if clean {
		fmt.Printf("%s %s: in sync (%d files, %d rows)\n",
			ui.RenderSuccess("✓"), r.Project, r.Disk.Files, r.Store.Rows)
	} else {
		fmt.Printf("%s %s: drift detected\n", ui.RenderWarn("⚠"), r.Project)
	}

	fmt.Printf("   Disk: %d files (%d yaml, %d markdown), %d sessions\n",
		r.Disk.Files, r.Disk.YAML, r.Disk.Markdown, r.Disk.Sessions)
	fmt.Printf("   Store: %d rows, %d sessions\n", r.Store.Rows, r.Store.Sessions)

	if len(r.Store.Agents) > 0 {
		agents := make([]string, 0, len(r.Store.Agents))
		for a := range r.Store.Agents {
			agents = append(agents, a)
		}
		sort.Strings(agents)
		for _, a := range agents {
			fmt.Printf("   Agent %s: %d\n", a, r.Store.Agents[a])
		}
	}

	printDiff("paths", r.Paths)
	printDiff("sessions", r.Sessions)

	if r.LegacyHandoffFiles > 0 || r.LegacyCheckpointFiles > 0 {
		fmt.Printf("   %s legacy files: %d in .handoff, %d in .checkpoint\n",
			ui.RenderWarn("⚠"), r.LegacyHandoffFiles, r.LegacyCheckpointFiles)
	}
}

func printDiff(name string, d sweep.DiffSummary) {
	if d.MissingCount == 0 && d.StaleCount == 0 {
		return
	}
	fmt.Printf("   %s: %d missing, %d stale\n", name, d.MissingCount, d.StaleCount)
	for _, m := range d.Missing {
		fmt.Printf("      %s %s\n", ui.RenderWarn("+"), m)
	}
	for _, s := range d.Stale {
		fmt.Printf("      %s %s\n", ui.RenderDim("-"), s)
	}
}

func init() {
	healthCmd.Flags().BoolVar(&healthFiles, "files", false, "List missing/stale identifiers, not just counts")
	healthCmd.Flags().IntVar(&healthLimit, "limit", 20, "Cap listed identifiers per projection (0 = unlimited)")
	rootCmd.AddCommand(healthCmd)
}

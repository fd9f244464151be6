package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calebdoyle/hsync/internal/config"
	"github.com/calebdoyle/hsync/internal/project"
	"github.com/calebdoyle/hsync/internal/store"
)

// Version is set at build time via -ldflags.
var Version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "hsync",
	Short: "Handoff artifact sync for multi-agent coordination",
	Long: `hsync keeps handoff artifacts (thoughts/shared/handoffs/) in sync
with the shared coordination database.

Agents write handoff files as they finish work; hsync sweeps them into
the store so other agents can discover prior context, and reports drift
between what is on disk and what the store believes exists.`,
	Version: Version,
}

var jsonOutput bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// mustLoadConfig loads configuration or exits.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// mustOpenStore opens the coordination database and ensures the schema
// exists, or exits.
func mustOpenStore(cfg *config.Config) *store.DB {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store at %s: %v\n", cfg.DBPath, err)
		os.Exit(1)
	}
	if err := db.InitSchema(); err != nil {
		db.Close()
		fmt.Fprintf(os.Stderr, "Error initializing schema: %v\n", err)
		os.Exit(1)
	}
	return db
}

// resolveProjects turns command arguments into project roots. With no
// arguments it discovers projects from session logs, falling back to
// the current directory's project.
func resolveProjects(cfg *config.Config, args []string) []string {
	if len(args) > 0 {
		roots := make([]string, 0, len(args))
		for _, arg := range args {
			roots = append(roots, project.FindRoot(arg))
		}
		return roots
	}

	roots, err := project.Discover(cfg.SessionLogsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: project discovery failed: %v\n", err)
	}
	if len(roots) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot determine working directory: %v\n", err)
			os.Exit(1)
		}
		roots = []string{project.FindRoot(cwd)}
	}
	return roots
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/calebdoyle/hsync/internal/daemon"
	"github.com/calebdoyle/hsync/internal/dashboard"
	"github.com/calebdoyle/hsync/internal/legacy"
	"github.com/calebdoyle/hsync/internal/project"
	"github.com/calebdoyle/hsync/internal/sweep"
	"github.com/calebdoyle/hsync/internal/ui"
)

var watchDashboard bool

var watchCmd = &cobra.Command{
	Use:   "watch [project-root]",
	Short: "Watch a project's handoffs directory and sync continuously",
	Long: `Run a foreground daemon that performs an initial full sweep, then
watches thoughts/shared/handoffs/ for changes:

  - created or modified artifacts are re-ingested
  - deleted artifacts are removed from the store

With --dashboard, a WebSocket server broadcasts each applied change so
other tooling can observe sync activity live.

Press Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		start := "."
		if len(args) == 1 {
			start = args[0]
		}
		root := project.FindRoot(start)

		db := mustOpenStore(cfg)
		defer db.Close()

		logger := daemon.NewRotatingLogger(cfg.LogDir)
		sweeper := sweep.New(db, nil, legacy.HookMigrator{}, logger)

		dcfg := daemon.DefaultConfig()
		dcfg.Logger = logger

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if watchDashboard {
			srv := dashboard.NewServer(logger)
			go func() {
				if err := srv.Start(ctx, cfg.DashboardAddr); err != nil {
					log.Printf("dashboard stopped: %v", err)
				}
			}()
			dcfg.OnChange = func(path string, deleted bool) {
				srv.Broadcast(dashboard.MessageTypeChange, dashboard.ChangeData{
					Path:    path,
					Deleted: deleted,
				})
			}
			fmt.Printf("%s Dashboard at ws://%s/ws\n", ui.RenderAccent("▸"), cfg.DashboardAddr)
		}

		d, err := daemon.New(db, sweeper, root, dcfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Watching %s\n", ui.RenderAccent("▸"), root)
		fmt.Printf("  Store: %s\n", cfg.DBPath)
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		if err := d.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchDashboard, "dashboard", false, "Serve a WebSocket activity dashboard")
	rootCmd.AddCommand(watchCmd)
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calebdoyle/hsync/internal/artifact"
	"github.com/calebdoyle/hsync/internal/project"
	"github.com/calebdoyle/hsync/internal/ui"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects discovered from session logs",
	Long: `Scan the session logs directory for recorded working directories and
resolve each to its repository root. These are the projects 'hsync sweep'
and 'hsync health' operate on when run without arguments.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		roots, err := project.Discover(cfg.SessionLogsDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error discovering projects: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			out, err := json.MarshalIndent(roots, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding results: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
			return
		}

		if len(roots) == 0 {
			fmt.Printf("No projects found under %s\n", cfg.SessionLogsDir)
			return
		}

		for _, root := range roots {
			files, err := artifact.ListFiles(artifact.Dir(root))
			if err != nil {
				fmt.Printf("%s %s\n", ui.RenderWarn("⚠"), root)
				continue
			}
			fmt.Printf("%s %s (%d artifacts)\n", ui.RenderAccent("▸"), root, len(files))
		}
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}

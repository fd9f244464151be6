package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/calebdoyle/hsync/internal/contentindex"
	"github.com/calebdoyle/hsync/internal/project"
	"github.com/calebdoyle/hsync/internal/ui"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over indexed Markdown artifacts",
	Long: `Search the current project's content index for Markdown handoffs
matching an FTS5 query, ranked by relevance.

The index is populated during 'hsync sweep' and 'hsync ingest'; run a
sweep first if results seem incomplete.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot determine working directory: %v\n", err)
			os.Exit(1)
		}
		root := project.FindRoot(cwd)

		indexPath := filepath.Join(root, contentindex.DirRel)
		if _, err := os.Stat(indexPath); os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "No content index at %s; run 'hsync sweep' first\n", indexPath)
			os.Exit(1)
		}

		index, err := contentindex.Open(indexPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening content index: %v\n", err)
			os.Exit(1)
		}
		defer index.Close()

		paths, err := index.Search(context.Background(), args[0], searchLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error searching: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			out, _ := json.MarshalIndent(paths, "", "  ")
			fmt.Println(string(out))
			return
		}

		if len(paths) == 0 {
			fmt.Println("No matches")
			return
		}
		for _, p := range paths {
			fmt.Printf("%s %s\n", ui.RenderAccent("▸"), p)
		}
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum results")
	rootCmd.AddCommand(searchCmd)
}

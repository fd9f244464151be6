package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/calebdoyle/hsync/internal/artifact"
	"github.com/calebdoyle/hsync/internal/contentindex"
	"github.com/calebdoyle/hsync/internal/project"
	"github.com/calebdoyle/hsync/internal/ui"
)

var (
	ingestSessionID string
	ingestAgentID   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file> [file ...]",
	Short: "Ingest individual handoff files into the store",
	Long: `Parse the named handoff files and upsert each into the coordination
database. Files that fail to parse (no resolvable session name) are
reported and skipped; the command fails only if no file was ingested.

--session-id and --agent-id take precedence over values found in the
file's header.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		db := mustOpenStore(cfg)
		defer db.Close()

		ctx := context.Background()
		ingested := 0
		for _, arg := range args {
			path, err := filepath.Abs(arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error resolving %s: %v\n", arg, err)
				continue
			}

			content, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %s: unreadable: %v\n", ui.RenderError("✗"), arg, err)
				continue
			}

			rec, err := artifact.BuildRecordWith(path, string(content), artifact.Identity{
				SessionID: ingestSessionID,
				AgentID:   ingestAgentID,
			})
			if err != nil {
				if errors.Is(err, artifact.ErrMissingSession) {
					fmt.Fprintf(os.Stderr, "%s %s: no session name in header, body, or path\n",
						ui.RenderWarn("⚠"), arg)
				} else {
					fmt.Fprintf(os.Stderr, "%s %s: %v\n", ui.RenderError("✗"), arg, err)
				}
				continue
			}

			if err := db.UpsertArtifactContext(ctx, rec); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s to store: %v\n", arg, err)
				os.Exit(1)
			}

			if cfg.ContentIndex && rec.Format == artifact.FormatMarkdown {
				indexContent(ctx, rec)
			}

			ingested++
			if jsonOutput {
				out, _ := json.MarshalIndent(rec, "", "  ")
				fmt.Println(string(out))
			} else {
				fmt.Printf("%s %s (session %s)\n", ui.RenderSuccess("✓"), arg, rec.SessionName)
			}
		}

		if ingested == 0 {
			os.Exit(1)
		}
	},
}

// indexContent adds a Markdown record to its project's full-text index.
// Index failures never fail the ingest.
func indexContent(ctx context.Context, rec *artifact.Record) {
	root := project.FindRoot(filepath.Dir(rec.FilePath))
	index, err := contentindex.Open(filepath.Join(root, contentindex.DirRel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: content index unavailable: %v\n", err)
		return
	}
	defer index.Close()
	if err := index.IndexFile(ctx, rec.FilePath, rec.Content); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: content indexing failed: %v\n", err)
	}
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSessionID, "session-id", "", "Session ID override, used ahead of the file header")
	ingestCmd.Flags().StringVar(&ingestAgentID, "agent-id", "", "Agent ID override, used ahead of the file header")
	rootCmd.AddCommand(ingestCmd)
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/calebdoyle/hsync/internal/artifact"
	"github.com/calebdoyle/hsync/internal/project"
	"github.com/calebdoyle/hsync/internal/ui"
)

var (
	newSession string
	newAgent   string
	newGoal    string
	newOutcome string
	newFormat  string
	newIngest  bool
)

// handoffHeader is the frontmatter (or whole-file YAML) scaffold for a
// freshly created handoff.
type handoffHeader struct {
	Session string `yaml:"session"`
	Agent   string `yaml:"agent_id,omitempty"`
	Goal    string `yaml:"goal,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`
	Created string `yaml:"created"`
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Scaffold a new handoff artifact",
	Long: `Create a handoff file under thoughts/shared/handoffs/<session>/ in
the current project. Missing fields are prompted for interactively;
pass --session to skip the prompts entirely.

With --ingest the new file is immediately upserted into the store.`,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot determine working directory: %v\n", err)
			os.Exit(1)
		}
		root := project.FindRoot(cwd)

		if newSession == "" {
			if err := promptFields(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		if newSession == "" {
			fmt.Fprintf(os.Stderr, "Error: a session name is required\n")
			os.Exit(1)
		}
		if newOutcome != "" {
			if _, ok := artifact.ParseOutcome(newOutcome); !ok {
				fmt.Fprintf(os.Stderr, "Error: invalid outcome %q (want SUCCEEDED, PARTIAL_PLUS, PARTIAL_MINUS, or FAILED)\n", newOutcome)
				os.Exit(1)
			}
		}

		content, ext, err := renderHandoff()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering handoff: %v\n", err)
			os.Exit(1)
		}

		dir := filepath.Join(artifact.Dir(root), newSession)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", dir, err)
			os.Exit(1)
		}

		path := filepath.Join(dir, time.Now().UTC().Format("2006-01-02T15-04-05Z")+ext)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			os.Exit(1)
		}

		fmt.Printf("%s Created %s\n", ui.RenderSuccess("✓"), path)

		if newIngest {
			cfg := mustLoadConfig()
			db := mustOpenStore(cfg)
			defer db.Close()

			rec, err := artifact.BuildRecord(path, string(content))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error parsing new handoff: %v\n", err)
				os.Exit(1)
			}
			if err := db.UpsertArtifactContext(context.Background(), rec); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing to store: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s Ingested as session %s\n", ui.RenderSuccess("✓"), rec.SessionName)
		}
	},
}

func promptFields() error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Session name").
				Description("Groups all handoffs from one working session").
				Value(&newSession),
			huh.NewInput().
				Title("Agent ID").
				Description("Optional; who produced this handoff").
				Value(&newAgent),
			huh.NewText().
				Title("Goal").
				Description("What the session set out to do").
				Value(&newGoal),
			huh.NewSelect[string]().
				Title("Outcome").
				Options(
					huh.NewOption("(none yet)", ""),
					huh.NewOption("Succeeded", string(artifact.OutcomeSucceeded)),
					huh.NewOption("Partial, leaning good", string(artifact.OutcomePartialPlus)),
					huh.NewOption("Partial, leaning bad", string(artifact.OutcomePartialMinus)),
					huh.NewOption("Failed", string(artifact.OutcomeFailed)),
				).
				Value(&newOutcome),
		),
	)
	return form.Run()
}

// renderHandoff produces the file body and extension for the chosen
// format.
func renderHandoff() ([]byte, string, error) {
	header := handoffHeader{
		Session: newSession,
		Agent:   newAgent,
		Goal:    newGoal,
		Outcome: strings.ToUpper(newOutcome),
		Created: time.Now().UTC().Format(time.RFC3339),
	}
	headerYAML, err := yaml.Marshal(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal header: %w", err)
	}

	if newFormat == "yaml" {
		return headerYAML, ".yaml", nil
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(headerYAML)
	b.WriteString("---\n\n")
	b.WriteString("what_worked:\n\nwhat_failed:\n\nfinal_decisions:\n")
	return []byte(b.String()), ".md", nil
}

func init() {
	newCmd.Flags().StringVar(&newSession, "session", "", "Session name (skips interactive prompts)")
	newCmd.Flags().StringVar(&newAgent, "agent", "", "Agent identifier")
	newCmd.Flags().StringVar(&newGoal, "goal", "", "Session goal")
	newCmd.Flags().StringVar(&newOutcome, "outcome", "", "Outcome (SUCCEEDED, PARTIAL_PLUS, PARTIAL_MINUS, FAILED)")
	newCmd.Flags().StringVar(&newFormat, "format", "markdown", "Artifact format (markdown or yaml)")
	newCmd.Flags().BoolVar(&newIngest, "ingest", false, "Immediately upsert the new file into the store")
	rootCmd.AddCommand(newCmd)
}

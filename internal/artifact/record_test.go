package artifact

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildRecord_HeaderPrecedence(t *testing.T) {
	content := "---\nsession: alpha\nsession_id: s-123\n---\nbody\n"
	rec, err := BuildRecord("/tmp/notes.md", content)
	if err != nil {
		t.Fatalf("BuildRecord() failed: %v", err)
	}

	if rec.SessionName != "alpha" {
		t.Errorf("SessionName = %q, want %q (header session wins over session_id)", rec.SessionName, "alpha")
	}
	if rec.SessionID != "s-123" {
		t.Errorf("SessionID = %q, want %q", rec.SessionID, "s-123")
	}
}

func TestBuildRecord_SessionNameFallbackChain(t *testing.T) {
	tests := []struct {
		name    string
		content string
		path    string
		want    string
	}{
		{
			name:    "session_name header",
			content: "---\nsession_name: beta\n---\nbody\n",
			path:    "/tmp/notes.md",
			want:    "beta",
		},
		{
			name:    "session_id header",
			content: "---\nsession_id: s-9\n---\nbody\n",
			path:    "/tmp/notes.md",
			want:    "s-9",
		},
		{
			name:    "derived from path",
			content: "no header here\n",
			path:    "/repo/thoughts/shared/handoffs/alpha/notes.md",
			want:    "alpha",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := BuildRecord(tt.path, tt.content)
			if err != nil {
				t.Fatalf("BuildRecord() failed: %v", err)
			}
			if rec.SessionName != tt.want {
				t.Errorf("SessionName = %q, want %q", rec.SessionName, tt.want)
			}
		})
	}
}

func TestBuildRecord_MissingSession(t *testing.T) {
	_, err := BuildRecord("/tmp/no-marker/notes.md", "plain body\n")
	if !errors.Is(err, ErrMissingSession) {
		t.Fatalf("err = %v, want ErrMissingSession", err)
	}
}

func TestBuildRecord_OutcomeValidation(t *testing.T) {
	tests := []struct {
		header string
		want   Outcome
	}{
		{"outcome: SUCCEEDED", OutcomeSucceeded},
		{"outcome: succeeded", OutcomeSucceeded},
		{"status: partial_plus", OutcomePartialPlus},
		{"outcome: done", ""},
		{"status: banana", ""},
	}

	for _, tt := range tests {
		content := "---\nsession: alpha\n" + tt.header + "\n---\nbody\n"
		rec, err := BuildRecord("/tmp/notes.md", content)
		if err != nil {
			t.Fatalf("BuildRecord(%q) failed: %v", tt.header, err)
		}
		if rec.Outcome != tt.want {
			t.Errorf("header %q: Outcome = %q, want %q", tt.header, rec.Outcome, tt.want)
		}
	}
}

func TestBuildRecord_OutcomeHeaderBeatsStatus(t *testing.T) {
	content := "---\nsession: alpha\noutcome: FAILED\nstatus: SUCCEEDED\n---\nbody\n"
	rec, err := BuildRecord("/tmp/notes.md", content)
	if err != nil {
		t.Fatalf("BuildRecord() failed: %v", err)
	}
	if rec.Outcome != OutcomeFailed {
		t.Errorf("Outcome = %q, want %q", rec.Outcome, OutcomeFailed)
	}
}

func TestBuildRecord_GoalFallsBackToBody(t *testing.T) {
	content := "---\nsession: alpha\n---\ngoal: from the body\n"
	rec, err := BuildRecord("/tmp/notes.md", content)
	if err != nil {
		t.Fatalf("BuildRecord() failed: %v", err)
	}
	if rec.Goal != "from the body" {
		t.Errorf("Goal = %q, want %q", rec.Goal, "from the body")
	}
}

func TestBuildRecord_Sections(t *testing.T) {
	content := strings.Join([]string{
		"---",
		"session: alpha",
		"---",
		"worked:",
		"  - one thing",
		"failed: the other thing",
		"decisions:",
		"  - keep sqlite",
	}, "\n") + "\n"

	rec, err := BuildRecord("/tmp/notes.md", content)
	if err != nil {
		t.Fatalf("BuildRecord() failed: %v", err)
	}
	if rec.WhatWorked != "- one thing" {
		t.Errorf("WhatWorked = %q", rec.WhatWorked)
	}
	if rec.WhatFailed != "the other thing" {
		t.Errorf("WhatFailed = %q", rec.WhatFailed)
	}
	if rec.KeyDecisions != "- keep sqlite" {
		t.Errorf("KeyDecisions = %q", rec.KeyDecisions)
	}
}

func TestBuildRecord_FinalDecisionsBeatsDecisions(t *testing.T) {
	content := "---\nsession: alpha\n---\nfinal_decisions: the final word\ndecisions: superseded\n"
	rec, err := BuildRecord("/tmp/notes.md", content)
	if err != nil {
		t.Fatalf("BuildRecord() failed: %v", err)
	}
	if rec.KeyDecisions != "the final word" {
		t.Errorf("KeyDecisions = %q, want %q", rec.KeyDecisions, "the final word")
	}
}

func TestBuildRecord_Format(t *testing.T) {
	content := "---\nsession: alpha\n---\nbody\n"

	rec, err := BuildRecord("/tmp/notes.yaml", content)
	if err != nil {
		t.Fatalf("BuildRecord() failed: %v", err)
	}
	if rec.Format != FormatYAML {
		t.Errorf("Format = %q, want %q", rec.Format, FormatYAML)
	}

	rec, err = BuildRecord("/tmp/notes.md", content)
	if err != nil {
		t.Fatalf("BuildRecord() failed: %v", err)
	}
	if rec.Format != FormatMarkdown {
		t.Errorf("Format = %q, want %q", rec.Format, FormatMarkdown)
	}
}

func TestBuildRecord_ContentPreserved(t *testing.T) {
	content := "---\nsession: alpha\n---\nbody text\n"
	rec, err := BuildRecord("/tmp/notes.md", content)
	if err != nil {
		t.Fatalf("BuildRecord() failed: %v", err)
	}
	if rec.Content != content {
		t.Errorf("Content = %q, want the full raw document", rec.Content)
	}
}

func TestRecordValidate(t *testing.T) {
	valid := &Record{SessionName: "alpha", FilePath: "/tmp/a.md", Format: FormatMarkdown}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on valid record failed: %v", err)
	}

	tests := []struct {
		name string
		rec  Record
	}{
		{"missing session_name", Record{FilePath: "/tmp/a.md", Format: FormatMarkdown}},
		{"missing file_path", Record{SessionName: "a", Format: FormatMarkdown}},
		{"bad format", Record{SessionName: "a", FilePath: "/tmp/a.md", Format: "toml"}},
		{"bad outcome", Record{SessionName: "a", FilePath: "/tmp/a.md", Format: FormatYAML, Outcome: "DONE"}},
	}
	for _, tt := range tests {
		if err := tt.rec.Validate(); err == nil {
			t.Errorf("%s: Validate() passed, want error", tt.name)
		}
	}
}

func TestDeriveSessionName(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/repo/thoughts/shared/handoffs/alpha/notes.md", "alpha", true},
		{"/repo/thoughts/shared/handoffs/beta.yaml", "beta.yaml", true},
		{`C:\repo\thoughts\shared\handoffs\gamma\n.md`, "gamma", true},
		{"/repo/docs/notes.md", "", false},
		{"/repo/thoughts/shared/handoffs", "", false},
	}

	for _, tt := range tests {
		got, ok := DeriveSessionName(tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("DeriveSessionName(%q) = %q, %v; want %q, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBuildRecordWith_Overrides(t *testing.T) {
	content := "---\nsession_id: header-sid\nagent_id: header-agent\n---\nbody\n"

	rec, err := BuildRecordWith("/tmp/handoffs/alpha/n.md", content, Identity{
		SessionID: "cli-sid",
		AgentID:   "cli-agent",
	})
	if err != nil {
		t.Fatalf("BuildRecordWith() failed: %v", err)
	}
	if rec.SessionID != "cli-sid" {
		t.Errorf("SessionID = %q, want override %q", rec.SessionID, "cli-sid")
	}
	if rec.AgentID != "cli-agent" {
		t.Errorf("AgentID = %q, want override %q", rec.AgentID, "cli-agent")
	}
}

func TestBuildRecordWith_OverrideResolvesSessionName(t *testing.T) {
	// No header identity and no path marker: only the override session ID
	// can supply a session name.
	rec, err := BuildRecordWith("/tmp/notes.md", "just text\n", Identity{SessionID: "sid-9"})
	if err != nil {
		t.Fatalf("BuildRecordWith() failed: %v", err)
	}
	if rec.SessionName != "sid-9" {
		t.Errorf("SessionName = %q, want %q", rec.SessionName, "sid-9")
	}

	if _, err := BuildRecordWith("/tmp/notes.md", "just text\n", Identity{}); err == nil {
		t.Error("BuildRecordWith() without identity passed, want ErrMissingSession")
	}
}

func TestBuildRecordWith_HeaderSessionBeatsOverrideID(t *testing.T) {
	content := "---\nsession: named\n---\n"
	rec, err := BuildRecordWith("/tmp/notes.md", content, Identity{SessionID: "sid-9"})
	if err != nil {
		t.Fatalf("BuildRecordWith() failed: %v", err)
	}
	if rec.SessionName != "named" {
		t.Errorf("SessionName = %q, want header value %q", rec.SessionName, "named")
	}
	if rec.SessionID != "sid-9" {
		t.Errorf("SessionID = %q, want %q", rec.SessionID, "sid-9")
	}
}

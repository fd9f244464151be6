package artifact

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies the on-disk flavor of an artifact.
type Format string

const (
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// FormatForPath determines the artifact format from the file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatMarkdown
	}
}

// Outcome is the fixed result classification for a session.
type Outcome string

const (
	OutcomeSucceeded    Outcome = "SUCCEEDED"
	OutcomePartialPlus  Outcome = "PARTIAL_PLUS"
	OutcomePartialMinus Outcome = "PARTIAL_MINUS"
	OutcomeFailed       Outcome = "FAILED"
)

// ParseOutcome uppercases and validates an outcome value. Anything outside
// the fixed enumeration is dropped to absent, not treated as an error.
func ParseOutcome(s string) (Outcome, bool) {
	switch o := Outcome(strings.ToUpper(s)); o {
	case OutcomeSucceeded, OutcomePartialPlus, OutcomePartialMinus, OutcomeFailed:
		return o, true
	default:
		return "", false
	}
}

// ErrMissingSession is returned by BuildRecord when a document cannot be
// assigned any session identity. Such a document is skipped, never stored.
var ErrMissingSession = errors.New("missing session")

// Record is the normalized unit written to the store, one row per
// distinct file path. Empty string fields mean absent.
type Record struct {
	SessionName  string
	FilePath     string
	Format       Format
	SessionID    string
	AgentID      string
	RootSpanID   string
	Goal         string
	WhatWorked   string
	WhatFailed   string
	KeyDecisions string
	Outcome      Outcome
	Content      string
}

// Validate checks the invariants a Record must hold before it is stored.
func (r *Record) Validate() error {
	if r.SessionName == "" {
		return fmt.Errorf("session_name is required")
	}
	if r.FilePath == "" {
		return fmt.Errorf("file_path is required")
	}
	if r.Format != FormatYAML && r.Format != FormatMarkdown {
		return fmt.Errorf("invalid format %q", r.Format)
	}
	if r.Outcome != "" {
		if _, ok := ParseOutcome(string(r.Outcome)); !ok {
			return fmt.Errorf("invalid outcome %q", r.Outcome)
		}
	}
	return nil
}

// Identity carries caller-supplied overrides for single-file ingestion.
// Non-empty values take precedence over the document's header.
type Identity struct {
	SessionID string
	AgentID   string
}

// BuildRecord derives a Record from a parsed document. Each optional field
// resolves through an ordered fallback chain; the first non-empty source
// wins. Returns ErrMissingSession when neither the header nor the path
// yields a session name.
func BuildRecord(path, content string) (*Record, error) {
	return BuildRecordWith(path, content, Identity{})
}

// BuildRecordWith is BuildRecord with identity overrides. The override
// session ID replaces the header's session_id everywhere it participates,
// including session-name resolution.
func BuildRecordWith(path, content string, id Identity) (*Record, error) {
	doc := ParseDocument(content)

	sessionID := id.SessionID
	if sessionID == "" {
		sessionID = doc.Header["session_id"]
	}
	agentID := id.AgentID
	if agentID == "" {
		agentID = doc.Header["agent_id"]
	}

	sessionName := firstNonEmpty(
		headerValue(doc, "session"),
		headerValue(doc, "session_name"),
		func() string { return sessionID },
		func() string {
			name, _ := DeriveSessionName(path)
			return name
		},
	)
	if sessionName == "" {
		return nil, ErrMissingSession
	}

	rec := &Record{
		SessionName: sessionName,
		FilePath:    path,
		Format:      FormatForPath(path),
		SessionID:   sessionID,
		AgentID:     agentID,
		RootSpanID:  doc.Header["root_span_id"],
		Content:     content,
	}

	if raw := firstNonEmpty(headerValue(doc, "outcome"), headerValue(doc, "status")); raw != "" {
		if outcome, ok := ParseOutcome(raw); ok {
			rec.Outcome = outcome
		}
	}

	rec.Goal = firstNonEmpty(
		headerValue(doc, "goal"),
		bodyScalar(doc, "goal"),
	)
	rec.WhatWorked, _ = ExtractSection(doc.Body, "worked")
	rec.WhatFailed, _ = ExtractSection(doc.Body, "failed")
	rec.KeyDecisions = firstNonEmpty(
		bodySection(doc, "final_decisions"),
		bodySection(doc, "decisions"),
	)

	return rec, nil
}

// firstNonEmpty evaluates resolvers in order until one yields a value.
func firstNonEmpty(resolvers ...func() string) string {
	for _, resolve := range resolvers {
		if v := resolve(); v != "" {
			return v
		}
	}
	return ""
}

func headerValue(doc *Document, key string) func() string {
	return func() string { return doc.Header[key] }
}

func bodyScalar(doc *Document, key string) func() string {
	return func() string {
		v, _ := ExtractScalar(doc.Body, key)
		return v
	}
}

func bodySection(doc *Document, key string) func() string {
	return func() string {
		v, _ := ExtractSection(doc.Body, key)
		return v
	}
}

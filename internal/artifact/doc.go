// Package artifact parses handoff artifact documents and builds the
// normalized records that get written to the coordination store.
//
// A handoff artifact is a YAML or Markdown file with an optional
// frontmatter header:
//
//	---
//	session: auth-refactor
//	outcome: SUCCEEDED
//	---
//	goal: Fix the token refresh race
//	worked:
//	  - reproduced under load
//	failed:
//	  - first mutex attempt deadlocked
//
// Parsing is deliberately permissive. A document without a header block
// parses to an empty header and the whole input as body, because plain
// legacy files rely on that. Field extraction degrades to "absent" rather
// than returning errors; the only hard failure is a document that cannot
// be assigned any session identity.
package artifact

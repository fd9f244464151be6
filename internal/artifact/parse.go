package artifact

import (
	"strings"
)

// headerDelimiter is the line that opens and closes a frontmatter block.
const headerDelimiter = "---"

// Document is a single artifact read from disk, split into its header
// mapping and free-text body. Header is empty (never nil) when the file
// has no frontmatter block.
type Document struct {
	Header map[string]string
	Body   string
}

// ParseDocument splits raw artifact text into a frontmatter header and body.
//
// The header block is recognized when the first line is exactly "---"
// (trailing whitespace tolerated) and a matching closing delimiter line
// follows. Lines between the delimiters are tokenized as "key: value";
// lines without a separator are ignored and the last occurrence of a
// duplicate key wins. Values have surrounding quotes stripped one layer.
//
// If the delimiter pattern does not match, the entire input is the body.
// Parsing never fails.
func ParseDocument(raw string) *Document {
	// Normalize line endings so detection is platform-independent.
	text := strings.ReplaceAll(raw, "\r\n", "\n")

	doc := &Document{
		Header: make(map[string]string),
		Body:   text,
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 2 || strings.TrimRight(lines[0], " \t") != headerDelimiter {
		return doc
	}

	closing := -1
	for i := 2; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") == headerDelimiter {
			closing = i
			break
		}
	}
	if closing < 0 || closing+1 >= len(lines) {
		// No closing delimiter, a zero-line block, or nothing after the
		// closing line: not a header block.
		return doc
	}

	for _, line := range lines[1:closing] {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		doc.Header[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
	doc.Body = strings.Join(lines[closing+1:], "\n")

	return doc
}

// unquote strips a single layer of matching surrounding quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// isTopLevelKey reports whether a body line starts a new top-level
// "identifier:" entry at column zero. This is the single section-boundary
// rule shared by ExtractScalar and ExtractSection.
func isTopLevelKey(line string) bool {
	i := 0
	for ; i < len(line); i++ {
		c := line[i]
		if c == ':' {
			break
		}
		if !isIdentChar(c, i == 0) {
			return false
		}
	}
	return i > 0 && i < len(line) && line[i] == ':'
}

func isIdentChar(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		return true
	case c >= '0' && c <= '9':
		return !first
	default:
		return false
	}
}

// ExtractScalar returns the trimmed value of the first body line reading
// "key: value" with the key at column zero. The bool result is false when
// no such line exists or the value is empty after trimming.
func ExtractScalar(body, key string) (string, bool) {
	prefix := key + ":"
	for _, line := range strings.Split(normalize(body), "\n") {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		value := strings.TrimSpace(line[len(prefix):])
		if value == "" {
			// A bare "key:" line is not a scalar match; keep scanning.
			continue
		}
		return value, true
	}
	return "", false
}

// ExtractSection returns the raw text of a top-level section.
//
// If the key line carries inline content ("worked: [a, b]"), that content
// is returned trimmed. Otherwise every following line up to the next
// top-level key is collected and trimmed. An empty result is absent,
// matching ExtractScalar.
func ExtractSection(body, key string) (string, bool) {
	lines := strings.Split(normalize(body), "\n")
	prefix := key + ":"

	start := -1
	inline := ""
	for i, line := range lines {
		if strings.HasPrefix(line, prefix) {
			start = i
			inline = strings.TrimSpace(line[len(prefix):])
			break
		}
	}
	if start < 0 {
		return "", false
	}
	if inline != "" {
		return inline, true
	}

	var out []string
	for _, line := range lines[start+1:] {
		if isTopLevelKey(line) {
			break
		}
		out = append(out, line)
	}
	text := strings.TrimSpace(strings.Join(out, "\n"))
	if text == "" {
		return "", false
	}
	return text, true
}

func normalize(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

package artifact

import "strings"

// MarkerDir is the conventional artifacts directory name. The path
// component immediately after it names the session when a document
// carries no explicit session metadata: .../handoffs/<session>/...
const MarkerDir = "handoffs"

// DeriveSessionName recovers a session name from an artifact's path.
// Returns false when the marker directory is absent from the path or is
// the final component.
func DeriveSessionName(path string) (string, bool) {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	for i, part := range parts {
		if part == MarkerDir {
			if i+1 >= len(parts) {
				return "", false
			}
			return parts[i+1], true
		}
	}
	return "", false
}

package artifact

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirRel is the conventional location of handoff artifacts inside a
// project root.
var DirRel = filepath.Join("thoughts", "shared", "handoffs")

// Dir returns the handoffs directory for a project root.
func Dir(projectRoot string) string {
	return filepath.Join(projectRoot, DirRel)
}

// IsArtifactPath reports whether a file extension marks an ingestable
// artifact (.yaml, .yml, or .md).
func IsArtifactPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".md":
		return true
	default:
		return false
	}
}

// ListFiles walks the handoffs directory and returns absolute paths of
// all artifact files, in walk order. A missing directory is not an error;
// it returns an empty slice.
func ListFiles(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsArtifactPath(path) {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		files = append(files, abs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// CountByFormat tallies artifact paths into yaml and markdown buckets.
func CountByFormat(paths []string) (yaml, markdown int) {
	for _, p := range paths {
		if FormatForPath(p) == FormatYAML {
			yaml++
		} else {
			markdown++
		}
	}
	return yaml, markdown
}

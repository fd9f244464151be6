// Package project discovers candidate project roots from session logs.
//
// Session log directories contain one subdirectory per known project,
// each holding JSONL transcript files whose entries may carry a "cwd"
// field naming a working directory. Discovery resolves each working
// directory to its enclosing version-control root and de-duplicates.
package project

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindRoot walks up from start looking for a version-control marker
// (.git directory or file, or .jj directory). Returns start itself,
// resolved to an absolute path, when no marker is found.
func FindRoot(start string) string {
	abs, err := filepath.Abs(start)
	if err != nil {
		return start
	}

	current := abs
	for {
		gitPath := filepath.Join(current, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			// .git may be a file in worktrees; either way this is the root.
			return current
		}
		if info, err := os.Stat(filepath.Join(current, ".jj")); err == nil && info.IsDir() {
			return current
		}

		parent := filepath.Dir(current)
		if parent == current {
			return abs
		}
		current = parent
	}
}

// cwdFromJSONL returns the first "cwd" value found in a JSONL transcript.
// Malformed lines are skipped; an unreadable file yields "".
func cwdFromJSONL(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, `"cwd"`) {
			continue
		}
		var payload struct {
			Cwd string `json:"cwd"`
		}
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			continue
		}
		if payload.Cwd != "" {
			return payload.Cwd
		}
	}
	return ""
}

// Discover scans a session logs directory for project roots. Each
// immediate subdirectory is probed for JSONL files; the first file that
// yields a cwd determines that subdirectory's project. Results are
// de-duplicated and sorted. A missing logs directory is not an error.
func Discover(logsDir string) ([]string, error) {
	entries, err := os.ReadDir(logsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(logsDir, entry.Name())
		logs, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
		if err != nil {
			continue
		}
		for _, logPath := range logs {
			if cwd := cwdFromJSONL(logPath); cwd != "" {
				seen[FindRoot(cwd)] = struct{}{}
				break
			}
		}
	}

	roots := make([]string, 0, len(seen))
	for root := range seen {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots, nil
}

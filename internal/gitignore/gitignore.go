// Package gitignore is a thin wrapper over the repo-root .gitignore file
// (spec §4.8 step 1), using gitwildmatch semantics for both files and
// directories.
package gitignore

import (
	"os"
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"
)

// Matcher reports whether a repo-relative path is ignored by the
// repo-root .gitignore file. A repo with no .gitignore matches nothing.
type Matcher struct {
	gi *ignore.GitIgnore
}

// Load reads repoRoot/.gitignore. A missing file yields a Matcher that
// ignores nothing rather than an error, since .gitignore is optional.
func Load(repoRoot string) (*Matcher, error) {
	path := filepath.Join(repoRoot, ".gitignore")
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Matcher{}, nil
		}
		return nil, err
	}
	gi := ignore.CompileIgnoreLines(splitLines(string(content))...)
	return &Matcher{gi: gi}, nil
}

// MatchesPath reports whether relPath (POSIX-separated, relative to the
// repo root) is ignored.
func (m *Matcher) MatchesPath(relPath string) bool {
	if m == nil || m.gi == nil {
		return false
	}
	return m.gi.MatchesPath(relPath)
}

func splitLines(content string) []string {
	var lines []string
	start := 0
	for i, c := range content {
		if c == '\n' {
			line := content[start:i]
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			lines = append(lines, line)
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
	}
	return lines
}

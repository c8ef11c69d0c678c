// Package scanner walks a repository directory, honoring the hardcoded
// ignore lists, .gitignore, and the supported-language extension map
// (spec §4.8 step 1).
package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/ainav/ainav/internal/gitignore"
)

// Scan streams every indexable file under root over the returned
// channel, honoring ignores, and closes the channel when the walk
// completes or ctx is cancelled. Unreadable entries are skipped, not
// reported as errors, matching the indexer's failure policy (§4.8).
func Scan(ctx context.Context, root string) (<-chan Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	matcher, err := gitignore.Load(absRoot)
	if err != nil {
		return nil, err
	}

	out := make(chan Result, 64)
	go func() {
		defer close(out)
		_ = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err != nil {
				return nil
			}
			if path == absRoot {
				return nil
			}

			relPath, relErr := filepath.Rel(absRoot, path)
			if relErr != nil {
				return nil
			}
			relPath = filepath.ToSlash(relPath)

			if d.IsDir() {
				if shouldSkipDir(d.Name(), relPath, matcher) {
					return fs.SkipDir
				}
				return nil
			}

			if shouldSkipFile(d.Name(), relPath, matcher) {
				return nil
			}

			lang := DetectLanguage(strings.ToLower(filepath.Ext(d.Name())))
			if lang == "" {
				return nil
			}

			select {
			case out <- Result{File: &File{Path: relPath, AbsPath: path, Language: lang}}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
	}()

	return out, nil
}

func isDotfile(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func shouldSkipDir(name, relPath string, matcher *gitignore.Matcher) bool {
	if _, ok := ignoredDirs[name]; ok {
		return true
	}
	if isDotfile(name) {
		return true
	}
	return matcher.MatchesPath(relPath)
}

func shouldSkipFile(name, relPath string, matcher *gitignore.Matcher) bool {
	if _, ok := ignoredFiles[name]; ok {
		return true
	}
	if isDotfile(name) {
		return true
	}
	return matcher.MatchesPath(relPath)
}

// Package ingest walks repositories, extracts their knowledge graph records,
// and writes them to the store, with per-file failure isolation and optional
// incremental re-ingestion via a file watcher.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// defaultExcludes are always skipped regardless of .gitignore contents.
var defaultExcludes = []string{
	".git/",
	".codeatlas/",
	"node_modules/",
	"__pycache__/",
	".venv/",
	"venv/",
	"dist/",
	"build/",
}

// ignoreMatcher combines the repository's .gitignore (when present) with the
// default excludes.
type ignoreMatcher struct {
	ignore *gitignore.GitIgnore
}

func newIgnoreMatcher(root string, extraPatterns []string) (*ignoreMatcher, error) {
	lines := append([]string{}, defaultExcludes...)
	lines = append(lines, extraPatterns...)

	gitignorePath := filepath.Join(root, ".gitignore")
	if data, err := os.ReadFile(gitignorePath); err == nil {
		lines = append(lines, strings.Split(string(data), "\n")...)
	}

	return &ignoreMatcher{ignore: gitignore.CompileIgnoreLines(lines...)}, nil
}

// Match reports whether a root-relative path should be skipped.
func (m *ignoreMatcher) Match(relPath string) bool {
	return m.ignore.MatchesPath(relPath)
}

// walkRepo returns the root-relative paths of all source files under root
// whose extension appears in supported, honoring ignore patterns.
func walkRepo(root string, supported map[string]bool, matcher *ignoreMatcher) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if matcher.Match(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher.Match(rel) {
			return nil
		}
		if supported[filepath.Ext(path)] {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

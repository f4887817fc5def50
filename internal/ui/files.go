package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"kbase/internal/client"
)

// splitPaths splits what a terminal pastes when files are dropped onto it: paths
// separated by whitespace, each optionally quoted or with backslash-escaped spaces.
func splitPaths(input string) []string {
	var (
		paths   []string
		current strings.Builder
		quote   rune
		escaped bool
		inToken bool
	)
	flush := func() {
		if inToken {
			paths = append(paths, current.String())
			current.Reset()
			inToken = false
		}
	}

	for _, r := range input {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inToken = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	flush()
	return paths
}

// readFiles loads every path. Directories are expanded one level; unreadable
// paths are returned by name with the reason.
func readFiles(paths []string) ([]client.File, map[string]string) {
	var files []client.File
	skipped := map[string]string{}

	add := func(path string) {
		content, err := os.ReadFile(path)
		if err != nil {
			skipped[path] = err.Error()
			return
		}
		files = append(files, client.File{Name: filepath.Base(path), Content: content})
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			skipped[path] = err.Error()
			continue
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			skipped[path] = err.Error()
			continue
		}
		for _, e := range entries {
			if e.Type().IsRegular() {
				add(filepath.Join(path, e.Name()))
			}
		}
	}
	return files, skipped
}

func totalSize(files []client.File) uint64 {
	var n uint64
	for _, f := range files {
		n += uint64(len(f.Content))
	}
	return n
}

func skippedSummary(skipped map[string]string) string {
	if len(skipped) == 0 {
		return ""
	}
	parts := make([]string, 0, len(skipped))
	for path, reason := range skipped {
		parts = append(parts, fmt.Sprintf("%s (%s)", path, reason))
	}
	sort.Strings(parts)
	return "Could not read: " + strings.Join(parts, ", ")
}

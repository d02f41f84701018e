package fs

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// IgnoreFileName is read from the root of an imported directory.
const IgnoreFileName = ".ecorpusignore"

// ignoreRule is one parsed line of an ignore list.
type ignoreRule struct {
	pattern string
	// anchored rules contain a '/' and match the whole relative path;
	// the others match any single path element.
	anchored bool
	dirOnly  bool
}

// IgnoreMatcher decides which entries of a directory tree are skipped.
// Patterns use path.Match syntax. A trailing '/' restricts a pattern to
// directories.
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher parses raw patterns. Blank lines and lines starting with
// '#' are skipped. The ignore file itself is always ignored.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	rules := []ignoreRule{{pattern: IgnoreFileName}}
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		r := ignoreRule{}
		if strings.HasSuffix(raw, "/") {
			r.dirOnly = true
			raw = strings.TrimRight(raw, "/")
		}
		raw = strings.TrimPrefix(raw, "/")
		r.pattern = raw
		r.anchored = strings.Contains(raw, "/")
		rules = append(rules, r)
	}
	return &IgnoreMatcher{rules: rules}
}

// Match reports whether the slash-separated relative path rel is ignored.
func (m *IgnoreMatcher) Match(rel string, isDir bool) bool {
	if rel == "" || rel == "." {
		return false
	}
	base := path.Base(rel)
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		target := base
		if r.anchored {
			target = rel
		}
		// A malformed pattern never matches.
		if ok, err := path.Match(r.pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}

// ParseIgnoreFile returns the raw lines of an ignore file, or nil when it
// does not exist.
func ParseIgnoreFile(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return lines, nil
}

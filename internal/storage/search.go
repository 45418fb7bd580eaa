package storage

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSearchExtensions are searched when no extension list is given.
var DefaultSearchExtensions = []string{".txt", ".py", ".js", ".html", ".md", ".json"}

// maxLinesPerFile caps the line numbers reported for one file.
const maxLinesPerFile = 10

// SearchText walks root and returns every file whose extension is listed and
// whose content contains needle, ignoring case. Unreadable files are skipped
// and invalid UTF-8 bytes are dropped before matching.
func (f *FS) SearchText(root, needle string, exts []string) ([]Match, error) {
	r := clean(root)
	if _, err := os.Stat(r); err != nil {
		return nil, classify("search", r, err)
	}
	allowed := normalizeExts(exts)
	lowerNeedle := strings.ToLower(needle)

	var out []Match
	err := filepath.WalkDir(r, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == r {
				return walkErr
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(p))]; !ok {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		content := strings.ToLower(strings.ToValidUTF8(string(data), ""))
		if !strings.Contains(content, lowerNeedle) {
			return nil
		}
		var lines []int
		for i, line := range strings.Split(content, "\n") {
			if strings.Contains(line, lowerNeedle) {
				lines = append(lines, i+1)
				if len(lines) == maxLinesPerFile {
					break
				}
			}
		}
		out = append(out, Match{Path: p, Lines: lines})
		return nil
	})
	if err != nil {
		return nil, classify("search", r, err)
	}
	return out, nil
}

func normalizeExts(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = DefaultSearchExtensions
	}
	out := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out[e] = struct{}{}
	}
	return out
}

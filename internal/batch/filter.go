package batch

import (
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// Filter matches resolved paths against gitignore-style exclude patterns.
type Filter struct {
	gi *ignore.GitIgnore
}

// NewFilter compiles patterns. Blank lines and # comments are ignored.
func NewFilter(patterns []string) *Filter {
	var lines []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		lines = append(lines, p)
	}
	if len(lines) == 0 {
		return &Filter{}
	}
	return &Filter{gi: ignore.CompileIgnoreLines(lines...)}
}

// Excluded reports whether relPath matches any pattern.
func (f *Filter) Excluded(relPath string) bool {
	if f == nil || f.gi == nil {
		return false
	}
	return f.gi.MatchesPath(filepath.ToSlash(relPath))
}

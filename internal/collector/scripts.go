package collector

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/trackerscan/internal/model"
)

const (
	// SnippetContextLines is the number of lines kept on each side of the
	// first matching line.
	SnippetContextLines = 3

	// SnippetMaxLength is the maximum snippet length in characters before
	// the truncation marker is appended.
	SnippetMaxLength = 300

	// TruncationMarker is appended to shortened snippets.
	TruncationMarker = "..."
)

// ScanScripts returns one match for every script source that contains any
// of patterns. Sources are visited in sorted order; for each source the
// first pattern (in pattern order) that occurs is recorded with a snippet.
func ScanScripts(scripts model.ScriptContent, patterns []string) []model.ScriptMatch {
	if len(patterns) == 0 || len(scripts) == 0 {
		return nil
	}

	sources := make([]string, 0, len(scripts))
	for src := range scripts {
		sources = append(sources, src)
	}
	slices.Sort(sources)

	var matches []model.ScriptMatch
	for _, src := range sources {
		content := scripts[src]
		for _, p := range patterns {
			if !strings.Contains(content, p) {
				continue
			}
			matches = append(matches, model.ScriptMatch{
				Source:  src,
				Pattern: p,
				Snippet: Snippet(content, p),
			})
			break
		}
	}
	return matches
}

// Snippet returns the lines around the first line of content containing
// pattern: SnippetContextLines before, the line itself and
// SnippetContextLines after. The result is cut to SnippetMaxLength
// characters followed by TruncationMarker when longer.
func Snippet(content, pattern string) string {
	lines := strings.Split(content, "\n")
	idx := -1
	for i, line := range lines {
		if strings.Contains(line, pattern) {
			idx = i
			break
		}
	}
	if idx < 0 {
		// The pattern spans a line break.
		return Truncate(content, SnippetMaxLength)
	}

	start := max(0, idx-SnippetContextLines)
	end := min(len(lines), idx+SnippetContextLines+1)
	return Truncate(strings.Join(lines[start:end], "\n"), SnippetMaxLength)
}

// Truncate cuts s to limit characters and appends TruncationMarker when s
// was longer. It never splits a multi-byte character.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + TruncationMarker
}

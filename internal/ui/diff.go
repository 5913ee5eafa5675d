package ui

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"gofer/internal/highlight"
)

// UnifiedDiff builds a unified-style diff between two versions of a file.
// Returns the empty string when the contents are identical.
func UnifiedDiff(path, oldContent, newContent string) string {
	if oldContent == newContent {
		return ""
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldContent, newContent, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var result strings.Builder
	result.WriteString(fmt.Sprintf("--- %s\n", path))
	result.WriteString(fmt.Sprintf("+++ %s\n", path))

	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		lines := strings.Split(d.Text, "\n")
		for i, line := range lines {
			// Skip the empty trailing element from the split.
			if i == len(lines)-1 && line == "" {
				continue
			}
			result.WriteString(prefix)
			result.WriteString(line)
			result.WriteByte('\n')
		}
	}

	added, removed := DiffStats(diffs)
	result.WriteString(fmt.Sprintf("\n%d addition(s), %d deletion(s)\n", added, removed))
	return result.String()
}

// DiffStats counts added and removed lines in a diff.
func DiffStats(diffs []diffmatchpatch.Diff) (added, removed int) {
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if !strings.HasSuffix(d.Text, "\n") {
			n++
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}

// RenderDiff colorizes a unified diff for terminal display.
func RenderDiff(h *highlight.Highlighter, diff string) string {
	if h == nil {
		return diff
	}
	return h.HighlightDiff(diff)
}

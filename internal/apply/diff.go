package apply

import (
	"fmt"
	"strings"

	"github.com/aymanbagabas/go-udiff"
)

// DefaultDiffMaxLines is the default cap on conflict diff previews.
const DefaultDiffMaxLines = 40

// diffPreview renders a unified diff between the existing and planned
// content, truncated so a single large file cannot flood the report.
func diffPreview(path string, existing string, planned string, maxLines int) string {
	if maxLines <= 0 {
		maxLines = DefaultDiffMaxLines
	}
	diff := udiff.Unified(path+" (existing)", path+" (planned)", existing, planned)
	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	if len(lines) <= maxLines {
		return diff
	}
	truncated := lines[:maxLines]
	truncated = append(truncated, fmt.Sprintf("... (%d more lines)", len(lines)-maxLines))
	return strings.Join(truncated, "\n") + "\n"
}

// Package report aggregates execution results into a summary. It never
// persists anything; the raw results stay available unchanged.
package report

import "github.com/candorops/retrofit/internal/apply"

// Summary is the rollup of one apply run.
type Summary struct {
	Applied   int
	Skipped   int
	Conflicts int
	Failed    int
	// Results holds the per-operation outcomes in execution order.
	Results []apply.Result
}

// Summarize counts results by terminal status.
func Summarize(results []apply.Result) Summary {
	s := Summary{Results: results}
	for _, r := range results {
		switch r.Status {
		case apply.StatusApplied:
			s.Applied++
		case apply.StatusSkipped:
			s.Skipped++
		case apply.StatusConflict:
			s.Conflicts++
		case apply.StatusFailed:
			s.Failed++
		}
	}
	return s
}

// HasFailures reports whether any operation failed on I/O. Conflicts do not
// count; they leave the project intact.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// HasConflicts reports whether any operation found diverging content.
func (s Summary) HasConflicts() bool {
	return s.Conflicts > 0
}

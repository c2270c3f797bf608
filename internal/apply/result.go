package apply

// Status is the terminal state of one executed operation. Operations start
// implicitly Pending and reach exactly one of these; there is no re-entry.
type Status int

const (
	// StatusApplied means the operation changed the target as planned.
	StatusApplied Status = iota
	// StatusSkipped means the target already carried the planned content.
	StatusSkipped
	// StatusConflict means the target exists with different content and was
	// left untouched.
	StatusConflict
	// StatusFailed means an I/O error isolated to this operation.
	StatusFailed
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusSkipped:
		return "skipped"
	case StatusConflict:
		return "conflict"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one planned operation.
type Result struct {
	// TargetPath is the operation's target, relative to the project root.
	TargetPath string
	Status     Status
	// Reason explains Skipped, Conflict, and Failed results.
	Reason string
	// Diff is a unified diff preview, present on content conflicts.
	Diff string
}

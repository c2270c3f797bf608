package manifest

import "fmt"

// ActionKind is the closed set of merge semantics a planned file can carry.
// Adding a kind requires touching every switch over it; executors fail loudly
// on values they do not know.
type ActionKind int

const (
	// ActionCreate writes the source verbatim when the target is absent.
	ActionCreate ActionKind = iota
	// ActionAppend appends the source block to the target, once.
	ActionAppend
	// ActionPrepend inserts the source block at the top of the target, after
	// a recognized leading preamble line.
	ActionPrepend
	// ActionInstallDependency merges a name/version pair into the project's
	// dependency manifest.
	ActionInstallDependency
)

const (
	actionNameCreate            = "create"
	actionNameAppend            = "append"
	actionNamePrepend           = "prepend"
	actionNameInstallDependency = "install-dependency"
)

// String returns the manifest-payload spelling of the kind.
func (k ActionKind) String() string {
	switch k {
	case ActionCreate:
		return actionNameCreate
	case ActionAppend:
		return actionNameAppend
	case ActionPrepend:
		return actionNamePrepend
	case ActionInstallDependency:
		return actionNameInstallDependency
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ParseActionKind maps a payload action string to its kind. The empty string
// defaults to create.
func ParseActionKind(s string) (ActionKind, error) {
	switch s {
	case "", actionNameCreate:
		return ActionCreate, nil
	case actionNameAppend:
		return ActionAppend, nil
	case actionNamePrepend:
		return ActionPrepend, nil
	case actionNameInstallDependency:
		return ActionInstallDependency, nil
	default:
		return ActionCreate, fmt.Errorf("unknown action kind %q", s)
	}
}

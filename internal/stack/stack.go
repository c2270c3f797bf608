// Package stack detects the framework, language, and package manager of an
// existing project by probing for signature files. Detection priority is
// data: signatures are an ordered list loaded from the embedded defaults and
// optionally overridden by a retrofit.toml in the project root.
package stack

import (
	"errors"

	"github.com/candorops/retrofit/internal/messages"
)

// ProjectStack identifies a target project. It is computed fresh on every
// invocation and never persisted.
type ProjectStack struct {
	Framework      string
	Language       string
	PackageManager string
	Root           string
}

// ErrUnresolved reports that no framework or language signature matched.
// Callers must treat this as a hard stop, never as a default guess.
var ErrUnresolved = errors.New(messages.StackUnresolved)

// FrameworkNone is the framework id used when only a language signature
// matched. Manifest entries keyed on it apply to any project of that language.
const FrameworkNone = "none"

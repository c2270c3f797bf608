// Package depmanifest performs structural merges of dependency entries into
// project dependency manifests (package.json, requirements.txt, go.mod). All
// merges are textual: untouched lines keep their bytes, ordering, and
// formatting. Nothing here shells out to a package manager.
package depmanifest

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Outcome classifies a merge attempt.
type Outcome int

const (
	// OutcomeAdded means the dependency was inserted.
	OutcomeAdded Outcome = iota
	// OutcomeUnchanged means the dependency is already present at the
	// planned version; the manifest was not touched.
	OutcomeUnchanged
	// OutcomeConflict means the dependency is present at a different
	// version; the manifest was not touched (never downgrade or overwrite
	// silently).
	OutcomeConflict
)

// SameVersion reports whether two version requirements pin the same release
// once range prefixes (^, ~, >=, npm/pip spellings, a leading v) are
// stripped. Unparseable versions compare by exact string only.
func SameVersion(existing string, planned string) bool {
	if existing == planned {
		return true
	}
	ev, eok := parseVersion(existing)
	pv, pok := parseVersion(planned)
	if !eok || !pok {
		return false
	}
	return ev.Equal(pv)
}

// IsDowngrade reports whether planned is strictly older than existing. When
// either side does not parse as semver the direction is unknown and false is
// returned; the caller still treats the mismatch as a conflict.
func IsDowngrade(existing string, planned string) bool {
	ev, eok := parseVersion(existing)
	pv, pok := parseVersion(planned)
	if !eok || !pok {
		return false
	}
	return pv.LessThan(ev)
}

func parseVersion(raw string) (*semver.Version, bool) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimLeft(trimmed, "^~=<>")
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimPrefix(trimmed, "v")
	if trimmed == "" {
		return nil, false
	}
	v, err := semver.NewVersion(trimmed)
	if err != nil {
		return nil, false
	}
	return v, true
}

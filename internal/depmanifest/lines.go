package depmanifest

import (
	"fmt"
	"strings"
)

// MergeRequirementLine merges name/version into pip requirements content.
// Existing lines keep their order and formatting; a new requirement is
// appended as name==version. Names compare per pip canonicalization
// (case-insensitive, - and _ equivalent).
func MergeRequirementLine(content string, name string, version string) Merge {
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		existingName, existingVersion, ok := parseRequirementLine(line)
		if !ok || !requirementNamesEqual(existingName, name) {
			continue
		}
		if SameVersion(existingVersion, version) {
			return Merge{Outcome: OutcomeUnchanged, Existing: existingVersion, Content: []byte(content)}
		}
		return Merge{Outcome: OutcomeConflict, Existing: existingVersion, Content: []byte(content)}
	}

	entry := fmt.Sprintf("%s==%s", name, version)
	updated := content
	if updated != "" && !strings.HasSuffix(updated, "\n") {
		updated += "\n"
	}
	updated += entry + "\n"
	return Merge{Outcome: OutcomeAdded, Content: []byte(updated)}
}

// parseRequirementLine splits one requirements.txt line into name and version
// specifier. Comments, blank lines, and pip directives yield ok=false.
func parseRequirementLine(line string) (string, string, bool) {
	trimmed := strings.TrimSpace(line)
	if idx := strings.Index(trimmed, "#"); idx >= 0 {
		trimmed = strings.TrimSpace(trimmed[:idx])
	}
	if trimmed == "" || strings.HasPrefix(trimmed, "-") {
		return "", "", false
	}
	// Ignore environment markers.
	if idx := strings.Index(trimmed, ";"); idx >= 0 {
		trimmed = strings.TrimSpace(trimmed[:idx])
	}
	nameEnd := strings.IndexAny(trimmed, "=<>!~ [")
	if nameEnd < 0 {
		return trimmed, "", true
	}
	name := trimmed[:nameEnd]
	spec := strings.TrimSpace(trimmed[nameEnd:])
	if idx := strings.Index(spec, "["); idx == 0 {
		// Extras belong to the name; the specifier follows the bracket.
		if end := strings.Index(spec, "]"); end >= 0 {
			spec = strings.TrimSpace(spec[end+1:])
		}
	}
	version := strings.TrimSpace(strings.TrimLeft(spec, "=<>!~"))
	return name, version, true
}

func requirementNamesEqual(a string, b string) bool {
	normalize := func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "-"))
	}
	return normalize(a) == normalize(b)
}

// MergeGoRequirement merges a module requirement into go.mod content. The
// version gains a leading v when missing. An existing requirement at another
// version is a conflict.
func MergeGoRequirement(content string, modulePath string, version string) Merge {
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}

	lines := strings.Split(content, "\n")
	inBlock := false
	blockClose := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "require (":
			inBlock = true
			continue
		case inBlock && trimmed == ")":
			if blockClose < 0 {
				blockClose = i
			}
			inBlock = false
			continue
		}
		var spec string
		if inBlock {
			spec = trimmed
		} else if rest, ok := strings.CutPrefix(trimmed, "require "); ok {
			spec = strings.TrimSpace(rest)
		} else {
			continue
		}
		fields := strings.Fields(spec)
		if len(fields) < 2 || fields[0] != modulePath {
			continue
		}
		existing := fields[1]
		if SameVersion(existing, version) {
			return Merge{Outcome: OutcomeUnchanged, Existing: existing, Content: []byte(content)}
		}
		return Merge{Outcome: OutcomeConflict, Existing: existing, Content: []byte(content)}
	}

	entry := fmt.Sprintf("\t%s %s", modulePath, version)
	if blockClose >= 0 {
		out := make([]string, 0, len(lines)+1)
		out = append(out, lines[:blockClose]...)
		out = append(out, entry)
		out = append(out, lines[blockClose:]...)
		return Merge{Outcome: OutcomeAdded, Content: []byte(strings.Join(out, "\n"))}
	}

	updated := content
	if updated != "" && !strings.HasSuffix(updated, "\n") {
		updated += "\n"
	}
	updated += fmt.Sprintf("\nrequire %s %s\n", modulePath, version)
	return Merge{Outcome: OutcomeAdded, Content: []byte(updated)}
}

package depmanifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Merge is the result of merging one dependency into a manifest.
type Merge struct {
	Outcome Outcome
	// Existing is the version already present when the outcome is
	// Unchanged or Conflict.
	Existing string
	// Content is the manifest after the merge. It equals the input unless
	// the outcome is Added.
	Content []byte
}

// MergeJSONDependency merges name@version into the named section of a JSON
// dependency manifest such as package.json. Existing entries keep their bytes
// and order; a new entry is inserted at the head of the section, creating the
// section when absent. A present entry at a different version is a conflict
// and leaves the content untouched.
func MergeJSONDependency(content []byte, section string, name string, version string) (Merge, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(content, &root); err != nil {
		return Merge{}, fmt.Errorf("parse dependency manifest: %w", err)
	}

	if raw, ok := root[section]; ok {
		var deps map[string]string
		if err := json.Unmarshal(raw, &deps); err != nil {
			return Merge{}, fmt.Errorf("parse %q section: %w", section, err)
		}
		if existing, ok := deps[name]; ok {
			if SameVersion(existing, version) {
				return Merge{Outcome: OutcomeUnchanged, Existing: existing, Content: content}, nil
			}
			return Merge{Outcome: OutcomeConflict, Existing: existing, Content: content}, nil
		}
		updated, err := insertIntoSection(content, section, name, version)
		if err != nil {
			return Merge{}, err
		}
		return Merge{Outcome: OutcomeAdded, Content: updated}, nil
	}

	updated, err := appendSection(content, len(root) > 0, section, name, version)
	if err != nil {
		return Merge{}, err
	}
	return Merge{Outcome: OutcomeAdded, Content: updated}, nil
}

// insertIntoSection inserts the entry immediately after the section's opening
// brace, matching the surrounding indentation.
func insertIntoSection(content []byte, section string, name string, version string) ([]byte, error) {
	off, err := sectionBodyOffset(content, section)
	if err != nil {
		return nil, err
	}
	entry := fmt.Sprintf("%q: %q", name, version)

	rest := content[off:]
	trimmed := bytes.TrimLeft(rest, " \t\r\n")
	empty := len(trimmed) > 0 && trimmed[0] == '}'

	if !bytes.ContainsRune(rest[:len(rest)-len(trimmed)], '\n') && !empty {
		// Inline object: {"a": "1"} style.
		insertion := entry + ", "
		return spliceAt(content, off, insertion), nil
	}

	if empty {
		lineIndent := indentOfLineAt(content, off)
		unit := detectIndentUnit(content)
		insertion := "\n" + lineIndent + unit + entry + "\n" + lineIndent
		// The whitespace between the braces is replaced by the insertion.
		out := make([]byte, 0, len(content)+len(insertion))
		out = append(out, content[:off]...)
		out = append(out, insertion...)
		out = append(out, trimmed...)
		return out, nil
	}

	entryIndent := indentOfLineAt(content, off+(len(rest)-len(trimmed)))
	insertion := "\n" + entryIndent + entry + ","
	return spliceAt(content, off, insertion), nil
}

// appendSection adds a whole new section just before the root object's
// closing brace.
func appendSection(content []byte, rootHasMembers bool, section string, name string, version string) ([]byte, error) {
	closeOff := lastNonSpace(content)
	if closeOff < 0 || content[closeOff] != '}' {
		return nil, fmt.Errorf("dependency manifest does not end with an object")
	}
	unit := detectIndentUnit(content)
	entry := fmt.Sprintf("%q: %q", name, version)

	var b strings.Builder
	if rootHasMembers {
		prev := lastNonSpace(content[:closeOff])
		if prev >= 0 && content[prev] != ',' && content[prev] != '{' {
			b.WriteString(",")
		}
	}
	b.WriteString("\n")
	b.WriteString(unit)
	b.WriteString(fmt.Sprintf("%q: {\n", section))
	b.WriteString(unit)
	b.WriteString(unit)
	b.WriteString(entry)
	b.WriteString("\n")
	b.WriteString(unit)
	b.WriteString("}\n")

	out := make([]byte, 0, len(content)+b.Len())
	out = append(out, bytes.TrimRight(content[:closeOff], " \t\r\n")...)
	out = append(out, b.String()...)
	out = append(out, content[closeOff:]...)
	return out, nil
}

// sectionBodyOffset returns the byte offset just past the opening brace of
// the named top-level section.
func sectionBodyOffset(content []byte, section string) (int, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	tok, err := dec.Token()
	if err != nil {
		return 0, fmt.Errorf("parse dependency manifest: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return 0, fmt.Errorf("dependency manifest is not a JSON object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return 0, fmt.Errorf("parse dependency manifest: %w", err)
		}
		key, _ := keyTok.(string)
		if key != section {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return 0, fmt.Errorf("parse dependency manifest: %w", err)
			}
			continue
		}
		valTok, err := dec.Token()
		if err != nil {
			return 0, fmt.Errorf("parse dependency manifest: %w", err)
		}
		if delim, ok := valTok.(json.Delim); !ok || delim != '{' {
			return 0, fmt.Errorf("%q section is not a JSON object", section)
		}
		return int(dec.InputOffset()), nil
	}
	return 0, fmt.Errorf("section %q not found", section)
}

func spliceAt(content []byte, off int, insertion string) []byte {
	out := make([]byte, 0, len(content)+len(insertion))
	out = append(out, content[:off]...)
	out = append(out, insertion...)
	out = append(out, content[off:]...)
	return out
}

// indentOfLineAt returns the leading whitespace of the line containing off.
func indentOfLineAt(content []byte, off int) string {
	start := bytes.LastIndexByte(content[:off], '\n') + 1
	end := start
	for end < len(content) && (content[end] == ' ' || content[end] == '\t') {
		end++
	}
	return string(content[start:end])
}

// detectIndentUnit infers the file's indentation unit from its first indented
// line, defaulting to two spaces.
func detectIndentUnit(content []byte) string {
	for _, line := range bytes.Split(content, []byte("\n")) {
		trimmed := bytes.TrimLeft(line, " \t")
		if len(trimmed) == len(line) || len(trimmed) == 0 {
			continue
		}
		return string(line[:len(line)-len(trimmed)])
	}
	return "  "
}

func lastNonSpace(content []byte) int {
	for i := len(content) - 1; i >= 0; i-- {
		switch content[i] {
		case ' ', '\t', '\r', '\n':
		default:
			return i
		}
	}
	return -1
}

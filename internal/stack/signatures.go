package stack

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/pelletier/go-toml/v2"

	"github.com/candorops/retrofit/internal/messages"
	"github.com/candorops/retrofit/internal/templates"
)

// OverrideFile is the optional per-project signature override, read from the
// project root.
const OverrideFile = "retrofit.toml"

const defaultSignaturesPath = "signatures.toml"

// FrameworkSignature describes one framework marker set. Slice position is
// priority: earlier signatures outrank later ones.
type FrameworkSignature struct {
	ID       string   `toml:"id"`
	Language string   `toml:"language"`
	Markers  []string `toml:"markers"`
}

// LanguageSignature describes a language marker set. Refines names a language
// this one specializes when its marker is also present (typescript refines
// javascript).
type LanguageSignature struct {
	ID             string   `toml:"id"`
	Markers        []string `toml:"markers"`
	Refines        string   `toml:"refines"`
	PackageManager string   `toml:"package-manager"`
}

// LockFileSignature maps a lock file to its package manager. Slice position
// is priority when several lock files coexist.
type LockFileSignature struct {
	File           string `toml:"file"`
	PackageManager string `toml:"package-manager"`
}

// Signatures is the full detection priority table.
type Signatures struct {
	Frameworks []FrameworkSignature `toml:"framework"`
	Languages  []LanguageSignature  `toml:"language"`
	LockFiles  []LockFileSignature  `toml:"lockfile"`
}

// DefaultSignatures returns the embedded signature table.
func DefaultSignatures() (Signatures, error) {
	data, err := templates.Read(defaultSignaturesPath)
	if err != nil {
		return Signatures{}, fmt.Errorf("read embedded signatures: %w", err)
	}
	return parseSignatures(data, defaultSignaturesPath)
}

// LoadSignatures returns the effective signature table for a project: the
// embedded defaults with any table present in the project's retrofit.toml
// substituted wholesale. A list that the override omits keeps its default.
func LoadSignatures(fsys fs.FS) (Signatures, error) {
	sigs, err := DefaultSignatures()
	if err != nil {
		return Signatures{}, err
	}
	if fsys == nil {
		return sigs, nil
	}
	data, err := fs.ReadFile(fsys, OverrideFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sigs, nil
		}
		return Signatures{}, fmt.Errorf(messages.StackSignatureReadFailedFmt, OverrideFile, err)
	}
	override, err := parseSignatures(data, OverrideFile)
	if err != nil {
		return Signatures{}, err
	}
	if len(override.Frameworks) > 0 {
		sigs.Frameworks = override.Frameworks
	}
	if len(override.Languages) > 0 {
		sigs.Languages = override.Languages
	}
	if len(override.LockFiles) > 0 {
		sigs.LockFiles = override.LockFiles
	}
	return sigs, nil
}

func parseSignatures(data []byte, source string) (Signatures, error) {
	var sigs Signatures
	if err := toml.Unmarshal(data, &sigs); err != nil {
		return Signatures{}, fmt.Errorf(messages.StackSignatureParseFailedFmt, source, err)
	}
	for _, fw := range sigs.Frameworks {
		if fw.ID == "" {
			return Signatures{}, fmt.Errorf(messages.StackSignatureParseFailedFmt, source,
				errors.New(messages.StackSignatureEmptyID))
		}
	}
	for _, lang := range sigs.Languages {
		if lang.ID == "" {
			return Signatures{}, fmt.Errorf(messages.StackSignatureParseFailedFmt, source,
				errors.New(messages.StackSignatureEmptyID))
		}
	}
	return sigs, nil
}

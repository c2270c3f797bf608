package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	gopath "path"
	"strings"

	"github.com/candorops/retrofit/internal/messages"
	"github.com/candorops/retrofit/internal/templates"
)

const defaultManifestPath = "manifest.json"

type payload struct {
	Version  int                       `json:"version"`
	Features map[string]featurePayload `json:"features"`
}

type featurePayload struct {
	DisplayName         string                     `json:"displayName"`
	Description         string                     `json:"description"`
	SupportedFrameworks []string                   `json:"supportedFrameworks"`
	SupportedLanguages  []string                   `json:"supportedLanguages"`
	Providers           map[string]providerPayload `json:"providers"`
}

type providerPayload struct {
	Frameworks map[string]frameworkPayload `json:"frameworks"`
}

type frameworkPayload struct {
	Languages map[string]languagePayload `json:"languages"`
}

type languagePayload struct {
	Files []filePayload `json:"files"`
}

type filePayload struct {
	Path       string          `json:"path"`
	Source     string          `json:"source"`
	Action     string          `json:"action"`
	Dependency *DependencySpec `json:"dependency"`
}

// Load parses and validates an already-fetched manifest payload. The returned
// Manifest is read-only; fetching and versioning the payload itself is the
// caller's concern.
func Load(data []byte) (*Manifest, error) {
	if err := scanDuplicateKeys(data); err != nil {
		return nil, err
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf(messages.ManifestParseFailedFmt, err)
	}
	if len(p.Features) == 0 {
		return nil, fmt.Errorf(messages.ManifestEmptyPayload)
	}

	features := make(map[string]FeatureDefinition, len(p.Features))
	for featureID, fp := range p.Features {
		def, err := buildFeature(featureID, fp)
		if err != nil {
			return nil, err
		}
		features[featureID] = def
	}
	return &Manifest{features: features}, nil
}

// Default returns the registry built from the embedded manifest payload.
func Default() (*Manifest, error) {
	data, err := templates.Read(defaultManifestPath)
	if err != nil {
		return nil, fmt.Errorf("read embedded manifest: %w", err)
	}
	return Load(data)
}

func buildFeature(featureID string, fp featurePayload) (FeatureDefinition, error) {
	if len(fp.Providers) == 0 {
		return FeatureDefinition{}, fmt.Errorf(messages.ManifestFeatureNoProvidersFmt, featureID)
	}
	def := FeatureDefinition{
		ID:                  featureID,
		DisplayName:         fp.DisplayName,
		Description:         fp.Description,
		SupportedFrameworks: fp.SupportedFrameworks,
		SupportedLanguages:  fp.SupportedLanguages,
		providers:           make(map[string]Provider, len(fp.Providers)),
	}
	for providerID, pp := range fp.Providers {
		provider := Provider{
			ID:         providerID,
			frameworks: make(map[string]FrameworkFiles, len(pp.Frameworks)),
		}
		for frameworkID, fwp := range pp.Frameworks {
			fw := FrameworkFiles{languages: make(map[string]FileSet, len(fwp.Languages))}
			for languageID, lp := range fwp.Languages {
				set, err := buildFileSet(featureID, providerID, lp)
				if err != nil {
					return FeatureDefinition{}, err
				}
				fw.languages[languageID] = set
			}
			provider.frameworks[frameworkID] = fw
		}
		def.providers[providerID] = provider
	}
	return def, nil
}

func buildFileSet(featureID string, providerID string, lp languagePayload) (FileSet, error) {
	set := FileSet{Files: make([]FileEntry, 0, len(lp.Files))}
	for _, f := range lp.Files {
		if f.Path == "" {
			return FileSet{}, fmt.Errorf(messages.ManifestMissingPathFmt, featureID, providerID)
		}
		if !safeRelPath(f.Path) || (f.Source != "" && !safeRelPath(f.Source)) {
			return FileSet{}, fmt.Errorf(messages.ManifestUnsafePathFmt, featureID, f.Path)
		}
		kind, err := ParseActionKind(f.Action)
		if err != nil {
			return FileSet{}, fmt.Errorf(messages.ManifestUnknownActionFmt, featureID, f.Path, f.Action)
		}
		action := FileAction{Kind: kind}
		if kind == ActionInstallDependency {
			if f.Dependency == nil || f.Dependency.Name == "" || f.Dependency.Version == "" {
				return FileSet{}, fmt.Errorf(messages.ManifestMissingDependencyFmt, featureID, f.Path)
			}
			dep := *f.Dependency
			action.Dependency = &dep
		}
		set.Files = append(set.Files, FileEntry{Path: f.Path, Source: f.Source, Action: action})
	}
	return set, nil
}

// safeRelPath reports whether p is a clean relative path that stays inside
// its root. Executor-side canonicalization re-checks this against the real
// root; rejecting early keeps bad payloads out of the registry entirely.
func safeRelPath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return false
	}
	clean := gopath.Clean(p)
	return clean != ".." && !strings.HasPrefix(clean, "../")
}

// scanDuplicateKeys walks the raw JSON token stream and rejects objects with
// repeated keys. json.Unmarshal silently keeps the last value, which would
// let one feature definition shadow another.
func scanDuplicateKeys(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return scanValue(dec)
}

func scanValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf(messages.ManifestParseFailedFmt, err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	switch delim {
	case '{':
		seen := make(map[string]struct{})
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return fmt.Errorf(messages.ManifestParseFailedFmt, err)
			}
			key, _ := keyTok.(string)
			if _, dup := seen[key]; dup {
				return fmt.Errorf(messages.ManifestDuplicateFeatureFmt, key)
			}
			seen[key] = struct{}{}
			if err := scanValue(dec); err != nil {
				return err
			}
		}
	case '[':
		for dec.More() {
			if err := scanValue(dec); err != nil {
				return err
			}
		}
	}
	// Consume the closing delimiter.
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf(messages.ManifestParseFailedFmt, err)
	}
	return nil
}

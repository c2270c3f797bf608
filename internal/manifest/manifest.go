// Package manifest loads and serves the feature manifest: the nested
// feature → provider → framework → language → file mapping that drives
// integration planning. A Manifest is an explicitly constructed value,
// immutable after Load, so test fixtures and alternate payloads can coexist.
package manifest

import (
	"sort"
	"strings"
)

// DependencySpec is the metadata an install-dependency file carries.
type DependencySpec struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// FileAction is the merge semantics for one file during integration.
type FileAction struct {
	Kind       ActionKind
	Dependency *DependencySpec
}

// FileEntry is one leaf of the file tree. Path is the target path relative to
// the project root; Source names the template file when it differs from Path
// (dotfiles, Go sources shipped with a .tmpl suffix).
type FileEntry struct {
	Path   string
	Source string
	Action FileAction
}

// SourceName returns the template file name for the entry.
func (e FileEntry) SourceName() string {
	if e.Source != "" {
		return e.Source
	}
	return e.Path
}

// FileSet is the ordered file list for one feature/provider/framework/language
// combination. Order is manifest declaration order and is preserved through
// planning.
type FileSet struct {
	Files []FileEntry
}

// FrameworkFiles maps language id to its file set.
type FrameworkFiles struct {
	languages map[string]FileSet
}

// Language returns the file set for a language id, with an explicit
// not-found result.
func (f FrameworkFiles) Language(id string) (FileSet, bool) {
	fs, ok := f.languages[id]
	return fs, ok
}

// Languages returns the sorted language ids present.
func (f FrameworkFiles) Languages() []string {
	return sortedKeys(f.languages)
}

// Provider is one concrete implementation choice for a feature.
type Provider struct {
	ID         string
	frameworks map[string]FrameworkFiles
}

// Framework returns the files for an exact framework id.
func (p Provider) Framework(id string) (FrameworkFiles, bool) {
	fw, ok := p.frameworks[id]
	return fw, ok
}

// FrameworkNone is the framework tier for files that apply to any project of
// a language regardless of the detected framework.
const FrameworkNone = "none"

// ResolveFramework descends from an exact id to its base by trimming dashed
// variant suffixes, so a framework variant (svelte-kit, nextjs-app) matches
// manifest entries keyed on its base id. When neither the id nor any base
// matches, a FrameworkNone tier applies as the framework-agnostic fallback.
// The id that matched is returned.
func (p Provider) ResolveFramework(id string) (FrameworkFiles, string, bool) {
	for {
		if fw, ok := p.frameworks[id]; ok {
			return fw, id, true
		}
		idx := strings.LastIndex(id, "-")
		if idx <= 0 {
			break
		}
		id = id[:idx]
	}
	if fw, ok := p.frameworks[FrameworkNone]; ok {
		return fw, FrameworkNone, true
	}
	return FrameworkFiles{}, "", false
}

// Frameworks returns the sorted framework ids present.
func (p Provider) Frameworks() []string {
	return sortedKeys(p.frameworks)
}

// FeatureDefinition describes one feature and its file tree.
type FeatureDefinition struct {
	ID                  string
	DisplayName         string
	Description         string
	SupportedFrameworks []string
	SupportedLanguages  []string
	providers           map[string]Provider
}

// Provider returns the named provider with an explicit not-found result.
func (d FeatureDefinition) Provider(id string) (Provider, bool) {
	p, ok := d.providers[id]
	return p, ok
}

// Providers returns the sorted provider ids.
func (d FeatureDefinition) Providers() []string {
	return sortedKeys(d.providers)
}

// SupportsFramework reports whether the definition's supported-frameworks
// list admits the id. An empty list or a "*" entry admits everything.
func (d FeatureDefinition) SupportsFramework(id string) bool {
	return listAdmits(d.SupportedFrameworks, id)
}

// SupportsLanguage reports whether the definition's supported-languages list
// admits the id.
func (d FeatureDefinition) SupportsLanguage(id string) bool {
	return listAdmits(d.SupportedLanguages, id)
}

// Manifest is the loaded feature registry. It exposes no mutation API.
type Manifest struct {
	features map[string]FeatureDefinition
}

// Get returns the named feature definition with an explicit not-found result.
func (m *Manifest) Get(featureID string) (FeatureDefinition, bool) {
	def, ok := m.features[featureID]
	return def, ok
}

// Features returns all feature definitions sorted by id.
func (m *Manifest) Features() []FeatureDefinition {
	ids := sortedKeys(m.features)
	out := make([]FeatureDefinition, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.features[id])
	}
	return out
}

// Supports reports whether any provider of the feature has files for the
// framework (after variant resolution) and language.
func (m *Manifest) Supports(featureID string, frameworkID string, languageID string) bool {
	def, ok := m.Get(featureID)
	if !ok {
		return false
	}
	if !def.SupportsFramework(frameworkID) || !def.SupportsLanguage(languageID) {
		return false
	}
	for _, providerID := range def.Providers() {
		provider := def.providers[providerID]
		fw, _, ok := provider.ResolveFramework(frameworkID)
		if !ok {
			continue
		}
		if _, ok := fw.Language(languageID); ok {
			return true
		}
	}
	return false
}

func listAdmits(list []string, id string) bool {
	if len(list) == 0 {
		return true
	}
	for _, entry := range list {
		if entry == "*" || entry == id {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

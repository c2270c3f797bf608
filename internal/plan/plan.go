// Package plan resolves a chosen feature against a detected project stack
// into an ordered, immutable list of file operations.
package plan

import (
	"errors"
	"fmt"
	gopath "path"
	"strings"

	"github.com/candorops/retrofit/internal/manifest"
	"github.com/candorops/retrofit/internal/messages"
	"github.com/candorops/retrofit/internal/stack"
)

// ErrUnsupportedFeature reports that the feature/stack combination is absent
// from the manifest.
var ErrUnsupportedFeature = errors.New(messages.PlanUnsupportedFeature)

// ErrAmbiguousProvider reports that the feature has several providers and the
// caller selected none. There is no implicit default.
var ErrAmbiguousProvider = errors.New(messages.PlanAmbiguousProvider)

// Operation is one planned file action. SourcePath addresses the template
// tree; TargetPath is relative to the project root.
type Operation struct {
	SourcePath string
	TargetPath string
	Action     manifest.FileAction
}

// Plan is the resolved operation list for one feature-add invocation.
// It is immutable once built.
type Plan struct {
	Feature   string
	Provider  string
	Framework string
	Language  string
	ops       []Operation
}

// Operations returns a copy of the planned operations in execution order.
func (p Plan) Operations() []Operation {
	out := make([]Operation, len(p.ops))
	copy(out, p.ops)
	return out
}

// Len returns the number of planned operations.
func (p Plan) Len() int {
	return len(p.ops)
}

// Build resolves featureID for the given stack. providerID may be empty when
// the feature has exactly one provider; otherwise the choice is required.
// File operations are ordered before dependency installs so config files
// exist before any install step that might reference them; within each
// partition, manifest declaration order is kept.
func Build(m *manifest.Manifest, featureID string, providerID string, st stack.ProjectStack) (Plan, error) {
	def, ok := m.Get(featureID)
	if !ok {
		return Plan{}, fmt.Errorf(messages.PlanUnknownFeatureFmt, ErrUnsupportedFeature, featureID)
	}
	if !def.SupportsFramework(st.Framework) {
		return Plan{}, fmt.Errorf(messages.PlanFrameworkUnsupportedFmt, ErrUnsupportedFeature, featureID, st.Framework)
	}
	if !def.SupportsLanguage(st.Language) {
		return Plan{}, fmt.Errorf(messages.PlanLanguageUnsupportedFmt, ErrUnsupportedFeature, featureID, st.Language)
	}

	provider, err := selectProvider(def, featureID, providerID)
	if err != nil {
		return Plan{}, err
	}

	fw, resolvedFramework, ok := provider.ResolveFramework(st.Framework)
	if !ok {
		return Plan{}, fmt.Errorf(messages.PlanFrameworkNotInTreeFmt,
			ErrUnsupportedFeature, featureID, provider.ID, st.Framework)
	}
	set, ok := fw.Language(st.Language)
	if !ok {
		return Plan{}, fmt.Errorf(messages.PlanLanguageNotInTreeFmt,
			ErrUnsupportedFeature, featureID, provider.ID, resolvedFramework, st.Language)
	}

	p := Plan{
		Feature:   featureID,
		Provider:  provider.ID,
		Framework: resolvedFramework,
		Language:  st.Language,
	}
	sourceRoot := gopath.Join("features", featureID, provider.ID, resolvedFramework, st.Language)

	// Stable partition: files first, dependency installs last.
	for _, entry := range set.Files {
		if entry.Action.Kind == manifest.ActionInstallDependency {
			continue
		}
		p.ops = append(p.ops, operationFor(sourceRoot, entry))
	}
	for _, entry := range set.Files {
		if entry.Action.Kind != manifest.ActionInstallDependency {
			continue
		}
		p.ops = append(p.ops, operationFor(sourceRoot, entry))
	}
	return p, nil
}

func selectProvider(def manifest.FeatureDefinition, featureID string, providerID string) (manifest.Provider, error) {
	providers := def.Providers()
	if providerID != "" {
		provider, ok := def.Provider(providerID)
		if !ok {
			return manifest.Provider{}, fmt.Errorf(messages.PlanUnknownProviderFmt,
				ErrUnsupportedFeature, featureID, providerID)
		}
		return provider, nil
	}
	switch len(providers) {
	case 0:
		return manifest.Provider{}, fmt.Errorf(messages.PlanNoProvidersFmt, ErrUnsupportedFeature, featureID)
	case 1:
		provider, _ := def.Provider(providers[0])
		return provider, nil
	default:
		return manifest.Provider{}, fmt.Errorf(messages.PlanProviderChoicesFmt,
			ErrAmbiguousProvider, featureID, strings.Join(providers, ", "))
	}
}

func operationFor(sourceRoot string, entry manifest.FileEntry) Operation {
	return Operation{
		SourcePath: gopath.Join(sourceRoot, entry.SourceName()),
		TargetPath: entry.Path,
		Action:     entry.Action,
	}
}

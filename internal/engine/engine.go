// Package engine is the caller-facing facade over detection, planning, and
// application. It owns no global state; every call takes or returns explicit
// values, so several engines can coexist in one process.
package engine

import (
	"io"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/candorops/retrofit/internal/apply"
	"github.com/candorops/retrofit/internal/logging"
	"github.com/candorops/retrofit/internal/manifest"
	"github.com/candorops/retrofit/internal/plan"
	"github.com/candorops/retrofit/internal/report"
	"github.com/candorops/retrofit/internal/stack"
	"github.com/candorops/retrofit/internal/templates"
)

// Engine wires the feature registry, template tree, and filesystem together.
type Engine struct {
	manifest  *manifest.Manifest
	templates fs.FS
	system    apply.System
	warn      io.Writer
	log       *zap.Logger
}

// New builds an engine. Any nil argument falls back to the embedded manifest,
// the embedded template tree, the real filesystem, a discarded warn stream,
// or a no-op logger respectively.
func New(m *manifest.Manifest, tmpl fs.FS, sys apply.System, warn io.Writer, log *zap.Logger) (*Engine, error) {
	if m == nil {
		var err error
		m, err = manifest.Default()
		if err != nil {
			return nil, err
		}
	}
	if tmpl == nil {
		tmpl = templates.FS()
	}
	if sys == nil {
		sys = apply.RealSystem{}
	}
	if warn == nil {
		warn = io.Discard
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Engine{manifest: m, templates: tmpl, system: sys, warn: warn, log: log}, nil
}

// DetectStack detects the stack of the project at root, honoring a
// retrofit.toml signature override inside the project.
func (e *Engine) DetectStack(root string) (stack.ProjectStack, error) {
	fsys := os.DirFS(root)
	sigs, err := stack.LoadSignatures(fsys)
	if err != nil {
		return stack.ProjectStack{}, err
	}
	st, err := stack.Detect(fsys, root, sigs, e.warn)
	if err != nil {
		return stack.ProjectStack{}, err
	}
	e.log.Debug("stack detected",
		zap.String("framework", st.Framework),
		zap.String("language", st.Language),
		zap.String("packageManager", st.PackageManager))
	return st, nil
}

// ListFeatures returns every feature definition sorted by id.
func (e *Engine) ListFeatures() []manifest.FeatureDefinition {
	return e.manifest.Features()
}

// PlanFeature resolves the feature against a detected stack without touching
// the filesystem.
func (e *Engine) PlanFeature(featureID string, providerID string, st stack.ProjectStack) (plan.Plan, error) {
	p, err := plan.Build(e.manifest, featureID, providerID, st)
	if err != nil {
		return plan.Plan{}, err
	}
	e.log.Debug("plan built",
		zap.String("feature", p.Feature),
		zap.String("provider", p.Provider),
		zap.Int("operations", p.Len()))
	return p, nil
}

// ApplyPlan executes the plan against the stack's project root and summarizes
// the outcome. The error is non-nil only for whole-plan rejections.
func (e *Engine) ApplyPlan(st stack.ProjectStack, p plan.Plan, opts apply.Options) (report.Summary, error) {
	exec, err := apply.NewExecutor(e.system, e.templates, st.Root)
	if err != nil {
		return report.Summary{}, err
	}
	results, err := exec.Apply(p, opts)
	if err != nil {
		return report.Summary{}, err
	}
	summary := report.Summarize(results)
	e.log.Debug("plan applied",
		zap.Int("applied", summary.Applied),
		zap.Int("skipped", summary.Skipped),
		zap.Int("conflicts", summary.Conflicts),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

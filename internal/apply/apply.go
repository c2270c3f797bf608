// Package apply executes an integration plan against the filesystem. Each
// operation reaches a terminal status on its own; conflicts and I/O failures
// never abort the remaining plan. Execution is strictly sequential: the
// append/prepend idempotency check reads the on-disk content immediately
// before writing, which is only race-free with a single writer.
package apply

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/candorops/retrofit/internal/depmanifest"
	"github.com/candorops/retrofit/internal/manifest"
	"github.com/candorops/retrofit/internal/messages"
	"github.com/candorops/retrofit/internal/plan"
)

// Options controls executor behavior for one Apply call.
type Options struct {
	// Overwrite lets create operations replace targets whose content
	// differs; without it such targets are conflicts.
	Overwrite bool
	// DiffMaxLines caps conflict diff previews. Zero means the default.
	DiffMaxLines int
}

// Executor applies planned operations under a single project root.
type Executor struct {
	sys       System
	templates fs.FS
	root      string
}

// NewExecutor returns an executor writing under root, reading sources from
// templates.
func NewExecutor(sys System, templates fs.FS, root string) (*Executor, error) {
	if sys == nil {
		return nil, fmt.Errorf(messages.ApplySystemRequired)
	}
	if templates == nil {
		return nil, fmt.Errorf(messages.ApplyTemplatesRequired)
	}
	if root == "" {
		return nil, fmt.Errorf(messages.ApplyRootRequired)
	}
	return &Executor{sys: sys, templates: templates, root: root}, nil
}

// Apply runs the plan. The returned slice has one result per operation in
// plan order. The error is non-nil only for whole-plan rejections
// (ErrPathTraversal), which happen before any write.
func (e *Executor) Apply(p plan.Plan, opts Options) ([]Result, error) {
	ops := p.Operations()
	if err := checkPlanPaths(e.root, ops); err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(ops))
	for _, op := range ops {
		results = append(results, e.applyOne(op, opts))
	}
	return results, nil
}

func (e *Executor) applyOne(op plan.Operation, opts Options) Result {
	target, err := resolveTarget(e.root, op.TargetPath)
	if err != nil {
		// Unreachable after checkPlanPaths; kept as a terminal failure so a
		// future caller bypassing the guard cannot write outside the root.
		return Result{TargetPath: op.TargetPath, Status: StatusFailed, Reason: err.Error()}
	}
	switch op.Action.Kind {
	case manifest.ActionCreate:
		return e.applyCreate(op, target, opts)
	case manifest.ActionAppend:
		return e.applyBlock(op, target, false)
	case manifest.ActionPrepend:
		return e.applyBlock(op, target, true)
	case manifest.ActionInstallDependency:
		return e.applyInstallDependency(op, target)
	default:
		return Result{
			TargetPath: op.TargetPath,
			Status:     StatusFailed,
			Reason:     fmt.Sprintf("unknown action kind %s", op.Action.Kind),
		}
	}
}

func (e *Executor) applyCreate(op plan.Operation, target string, opts Options) Result {
	source, res, ok := e.readSource(op)
	if !ok {
		return res
	}

	existing, err := e.sys.ReadFile(target)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return e.write(op, target, source)
	case err != nil:
		return Result{TargetPath: op.TargetPath, Status: StatusFailed,
			Reason: fmt.Sprintf(messages.ApplyReadTargetFailedFmt, op.TargetPath, err)}
	}

	if bytes.Equal(existing, source) {
		return Result{TargetPath: op.TargetPath, Status: StatusSkipped, Reason: messages.ApplyReasonUpToDate}
	}
	if opts.Overwrite {
		res := e.write(op, target, source)
		if res.Status == StatusApplied {
			res.Reason = messages.ApplyReasonOverwritten
		}
		return res
	}
	return Result{
		TargetPath: op.TargetPath,
		Status:     StatusConflict,
		Reason:     messages.ApplyReasonExistsDiffers,
		Diff:       diffPreview(op.TargetPath, string(existing), string(source), opts.DiffMaxLines),
	}
}

// applyBlock handles append and prepend: both ensure the target exists and
// insert the source block exactly once.
func (e *Executor) applyBlock(op plan.Operation, target string, prepend bool) Result {
	source, res, ok := e.readSource(op)
	if !ok {
		return res
	}
	block := ensureTrailingNewline(string(source))

	existing, err := e.sys.ReadFile(target)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Result{TargetPath: op.TargetPath, Status: StatusFailed,
			Reason: fmt.Sprintf(messages.ApplyReadTargetFailedFmt, op.TargetPath, err)}
	}

	content := string(existing)
	if content != "" && containsBlock(ensureTrailingNewline(content), block) {
		return Result{TargetPath: op.TargetPath, Status: StatusSkipped, Reason: messages.ApplyReasonBlockPresent}
	}

	var updated string
	if prepend {
		updated = insertAfterPreamble(content, block)
	} else {
		if content != "" {
			content = ensureTrailingNewline(content)
		}
		updated = content + block
	}
	return e.write(op, target, []byte(updated))
}

func (e *Executor) applyInstallDependency(op plan.Operation, target string) Result {
	dep := op.Action.Dependency
	if dep == nil {
		return Result{TargetPath: op.TargetPath, Status: StatusFailed,
			Reason: "install-dependency operation carries no dependency metadata"}
	}
	merge, res, ok := e.mergeDependency(op, target, dep)
	if !ok {
		return res
	}
	switch merge.Outcome {
	case depmanifest.OutcomeAdded:
		return e.write(op, target, merge.Content)
	case depmanifest.OutcomeUnchanged:
		return Result{TargetPath: op.TargetPath, Status: StatusSkipped,
			Reason: fmt.Sprintf(messages.ApplyReasonDependencyExists, merge.Existing)}
	default:
		reason := fmt.Sprintf(messages.ApplyReasonDependencyDiffers, dep.Name, merge.Existing, dep.Version)
		if merge.Downgrade {
			reason = fmt.Sprintf(messages.ApplyReasonDependencyDowngr, dep.Name, merge.Existing, dep.Version)
		}
		return Result{TargetPath: op.TargetPath, Status: StatusConflict, Reason: reason}
	}
}

// readSource loads the operation's template content. ok=false carries the
// failure result.
func (e *Executor) readSource(op plan.Operation) ([]byte, Result, bool) {
	source, err := fs.ReadFile(e.templates, op.SourcePath)
	if err != nil {
		return nil, Result{TargetPath: op.TargetPath, Status: StatusFailed,
			Reason: fmt.Sprintf(messages.ApplyReadTemplateFailedFmt, op.SourcePath, err)}, false
	}
	return source, Result{}, true
}

func (e *Executor) write(op plan.Operation, target string, data []byte) Result {
	if err := e.sys.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Result{TargetPath: op.TargetPath, Status: StatusFailed,
			Reason: fmt.Sprintf(messages.ApplyWriteTargetFailedFmt, op.TargetPath, err)}
	}
	if err := e.sys.WriteFileAtomic(target, data, 0o644); err != nil {
		return Result{TargetPath: op.TargetPath, Status: StatusFailed,
			Reason: fmt.Sprintf(messages.ApplyWriteTargetFailedFmt, op.TargetPath, err)}
	}
	return Result{TargetPath: op.TargetPath, Status: StatusApplied}
}

// containsBlock reports whether block occurs in content starting at a line
// boundary. Both arguments are newline-terminated, so the end of the match is
// line-anchored already; a bare substring check would let a longer line
// (EXPORT=1) swallow a planned shorter one (PORT=1).
func containsBlock(content string, block string) bool {
	return strings.HasPrefix(content, block) || strings.Contains(content, "\n"+block)
}

func ensureTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// insertAfterPreamble places the block at position zero, or just after a
// leading line that must stay first (shebang, XML declaration).
func insertAfterPreamble(content string, block string) string {
	if !strings.HasPrefix(content, "#!") && !strings.HasPrefix(content, "<?xml") {
		return block + content
	}
	idx := strings.IndexByte(content, '\n')
	if idx < 0 {
		return content + "\n" + block
	}
	return content[:idx+1] + block + content[idx+1:]
}

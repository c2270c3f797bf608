package apply

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/candorops/retrofit/internal/depmanifest"
	"github.com/candorops/retrofit/internal/manifest"
	"github.com/candorops/retrofit/internal/messages"
	"github.com/candorops/retrofit/internal/plan"
)

// depMerge augments the manifest merge with the downgrade direction so the
// conflict reason can say which way the versions point.
type depMerge struct {
	depmanifest.Merge
	Downgrade bool
}

// mergeDependency dispatches on the dependency manifest's file name and
// performs the structural merge in memory. ok=false carries the failure
// result; nothing is written here.
func (e *Executor) mergeDependency(op plan.Operation, target string, dep *manifest.DependencySpec) (depMerge, Result, bool) {
	base := filepath.Base(target)

	content, err := e.sys.ReadFile(target)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return depMerge{}, Result{TargetPath: op.TargetPath, Status: StatusFailed,
				Reason: fmt.Sprintf(messages.ApplyReadTargetFailedFmt, op.TargetPath, err)}, false
		}
		// A requirements file can be started from scratch; a structured
		// manifest like package.json cannot be invented by this engine.
		if base != "requirements.txt" {
			return depMerge{}, Result{TargetPath: op.TargetPath, Status: StatusFailed,
				Reason: fmt.Sprintf(messages.ApplyReasonManifestMissing, op.TargetPath)}, false
		}
		content = nil
	}

	var merge depmanifest.Merge
	switch base {
	case "package.json":
		merge, err = depmanifest.MergeJSONDependency(content, "dependencies", dep.Name, dep.Version)
		if err != nil {
			return depMerge{}, Result{TargetPath: op.TargetPath, Status: StatusFailed, Reason: err.Error()}, false
		}
	case "requirements.txt":
		merge = depmanifest.MergeRequirementLine(string(content), dep.Name, dep.Version)
	case "go.mod":
		merge = depmanifest.MergeGoRequirement(string(content), dep.Name, dep.Version)
	default:
		return depMerge{}, Result{TargetPath: op.TargetPath, Status: StatusFailed,
			Reason: fmt.Sprintf(messages.ApplyReasonUnsupportedDepFile, base)}, false
	}

	out := depMerge{Merge: merge}
	if merge.Outcome == depmanifest.OutcomeConflict {
		out.Downgrade = depmanifest.IsDowngrade(merge.Existing, dep.Version)
	}
	return out, Result{}, true
}

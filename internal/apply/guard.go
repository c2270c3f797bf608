package apply

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/candorops/retrofit/internal/messages"
	"github.com/candorops/retrofit/internal/plan"
)

// ErrPathTraversal reports that a planned target escapes the project root.
// It fails the whole plan before any write happens.
var ErrPathTraversal = errors.New(messages.ApplyPathTraversal)

// checkPlanPaths canonicalizes every target and rejects the plan when any
// resolves outside the root. Running this up front keeps a poisoned plan from
// performing even one write.
func checkPlanPaths(root string, ops []plan.Operation) error {
	for _, op := range ops {
		if _, err := resolveTarget(root, op.TargetPath); err != nil {
			return err
		}
	}
	return nil
}

// resolveTarget joins the relative target onto root and verifies the result
// stays a strict descendant of root.
func resolveTarget(root string, target string) (string, error) {
	if target == "" || filepath.IsAbs(target) || strings.HasPrefix(filepath.ToSlash(target), "/") {
		return "", fmt.Errorf(messages.ApplyPathTraversalTargetFmt, ErrPathTraversal, target)
	}
	cleanRoot := filepath.Clean(root)
	joined := filepath.Clean(filepath.Join(cleanRoot, filepath.FromSlash(target)))
	if joined == cleanRoot || !strings.HasPrefix(joined, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf(messages.ApplyPathTraversalTargetFmt, ErrPathTraversal, target)
	}
	if err := checkSymlinkEscape(cleanRoot, joined, target); err != nil {
		return "", err
	}
	return joined, nil
}

// checkSymlinkEscape follows symlinks on the already existing part of the
// target's directory path and rejects targets whose real location leaves the
// root. The lexical check cannot see a symlinked directory pointing outside.
func checkSymlinkEscape(root string, joined string, target string) error {
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		// Nothing on disk yet; the first write creates the tree under the
		// lexical root.
		return nil
	}
	ancestor := filepath.Dir(joined)
	for {
		resolved, err := filepath.EvalSymlinks(ancestor)
		if err == nil {
			if resolved != resolvedRoot && !strings.HasPrefix(resolved, resolvedRoot+string(filepath.Separator)) {
				return fmt.Errorf(messages.ApplyPathTraversalTargetFmt, ErrPathTraversal, target)
			}
			return nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			return nil
		}
		ancestor = parent
	}
}

package stack

import (
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/candorops/retrofit/internal/messages"
)

// Detect inspects a project rooted at fsys and returns its stack. root is the
// OS path recorded on the result; fsys must be rooted at the same directory.
// When no framework or language signature matches, the error wraps
// ErrUnresolved. Lock-file anomalies (several present at once) are reported
// on warn and never fail detection.
func Detect(fsys fs.FS, root string, sigs Signatures, warn io.Writer) (ProjectStack, error) {
	if fsys == nil {
		return ProjectStack{}, fmt.Errorf(messages.StackFSRequired)
	}
	if root == "" {
		return ProjectStack{}, fmt.Errorf(messages.StackRootRequired)
	}

	st := ProjectStack{Root: root, Framework: FrameworkNone}

	for _, fw := range sigs.Frameworks {
		if matchAny(fsys, fw.Markers) {
			st.Framework = fw.ID
			st.Language = fw.Language
			break
		}
	}

	if st.Language == "" {
		for _, lang := range sigs.Languages {
			if lang.Refines != "" {
				// Refinements only specialize an already detected language.
				continue
			}
			if matchAny(fsys, lang.Markers) {
				st.Language = lang.ID
				break
			}
		}
	}
	if st.Language == "" {
		return ProjectStack{}, fmt.Errorf("%w (root %s)", ErrUnresolved, root)
	}

	for _, lang := range sigs.Languages {
		if lang.Refines == st.Language && matchAny(fsys, lang.Markers) {
			st.Language = lang.ID
			break
		}
	}

	st.PackageManager = detectPackageManager(fsys, st.Language, sigs, warn)
	return st, nil
}

// detectPackageManager applies the lock-file priority list, falling back to
// the detected language's default package manager.
func detectPackageManager(fsys fs.FS, language string, sigs Signatures, warn io.Writer) string {
	var present []LockFileSignature
	for _, lock := range sigs.LockFiles {
		if exists(fsys, lock.File) {
			present = append(present, lock)
		}
	}
	if len(present) > 0 {
		chosen := present[0]
		if len(present) > 1 && warn != nil {
			names := make([]string, 0, len(present))
			for _, lock := range present {
				names = append(names, lock.File)
			}
			_, _ = fmt.Fprintf(warn, messages.StackMultipleLockFilesFmt,
				strings.Join(names, ", "), chosen.File, chosen.PackageManager)
		}
		return chosen.PackageManager
	}
	for _, lang := range sigs.Languages {
		if lang.ID == language {
			return lang.PackageManager
		}
	}
	return ""
}

// matchAny reports whether any marker matches. A marker without glob
// metacharacters is a plain relative path; otherwise it is a doublestar
// pattern evaluated against the project tree.
func matchAny(fsys fs.FS, markers []string) bool {
	for _, marker := range markers {
		if marker == "" {
			continue
		}
		if !strings.ContainsAny(marker, "*?[{") {
			if exists(fsys, marker) {
				return true
			}
			continue
		}
		matches, err := doublestar.Glob(fsys, marker)
		if err == nil && len(matches) > 0 {
			return true
		}
	}
	return false
}

func exists(fsys fs.FS, name string) bool {
	_, err := fs.Stat(fsys, name)
	return err == nil
}

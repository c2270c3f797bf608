package apply

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candorops/retrofit/internal/manifest"
	"github.com/candorops/retrofit/internal/plan"
	"github.com/candorops/retrofit/internal/stack"
	"github.com/candorops/retrofit/internal/testutil"
)

// buildPlan resolves a single-feature manifest whose files array is given as
// raw JSON, against a framework-less JavaScript stack.
func buildPlan(t *testing.T, files string) plan.Plan {
	t.Helper()
	payload := fmt.Sprintf(`{
		"version": 1,
		"features": {
			"web": {
				"providers": {
					"base": {
						"frameworks": {
							"none": {"languages": {"javascript": {"files": %s}}}
						}
					}
				}
			}
		}
	}`, files)
	m, err := manifest.Load([]byte(payload))
	require.NoError(t, err)
	st := stack.ProjectStack{Framework: stack.FrameworkNone, Language: "javascript"}
	p, err := plan.Build(m, "web", "", st)
	require.NoError(t, err)
	return p
}

// templatesFor maps template names under the fixture plan's source root.
func templatesFor(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys["features/web/base/none/javascript/"+name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func newExecutor(t *testing.T, templates fstest.MapFS) (*Executor, string) {
	t.Helper()
	root := t.TempDir()
	exec, err := NewExecutor(RealSystem{}, templates, root)
	require.NoError(t, err)
	return exec, root
}

func TestNewExecutorValidates(t *testing.T) {
	tmpl := fstest.MapFS{}
	_, err := NewExecutor(nil, tmpl, "/tmp/x")
	assert.Error(t, err)
	_, err = NewExecutor(RealSystem{}, nil, "/tmp/x")
	assert.Error(t, err)
	_, err = NewExecutor(RealSystem{}, tmpl, "")
	assert.Error(t, err)
}

func TestApplyCreateWritesAbsentTarget(t *testing.T) {
	p := buildPlan(t, `[{"path": "src/config.js"}]`)
	exec, root := newExecutor(t, templatesFor(map[string]string{"src/config.js": "module.exports = {};\n"}))

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, "src/config.js", results[0].TargetPath)
	assert.Equal(t, "module.exports = {};\n", testutil.ReadFile(t, root, "src/config.js"))
}

func TestApplyCreateSkipsIdenticalTarget(t *testing.T) {
	p := buildPlan(t, `[{"path": "config.js"}]`)
	exec, root := newExecutor(t, templatesFor(map[string]string{"config.js": "same\n"}))
	testutil.WriteFile(t, root, "config.js", "same\n")

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Equal(t, "already up to date", results[0].Reason)
}

func TestApplyCreateConflictLeavesTargetUntouched(t *testing.T) {
	p := buildPlan(t, `[{"path": "config.js"}]`)
	exec, root := newExecutor(t, templatesFor(map[string]string{"config.js": "planned\n"}))
	testutil.WriteFile(t, root, "config.js", "existing\n")

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusConflict, results[0].Status)
	assert.Equal(t, "existing\n", testutil.ReadFile(t, root, "config.js"))
	assert.Contains(t, results[0].Diff, "config.js (existing)")
	assert.Contains(t, results[0].Diff, "-existing")
	assert.Contains(t, results[0].Diff, "+planned")
}

func TestApplyCreateOverwriteReplacesTarget(t *testing.T) {
	p := buildPlan(t, `[{"path": "config.js"}]`)
	exec, root := newExecutor(t, templatesFor(map[string]string{"config.js": "planned\n"}))
	testutil.WriteFile(t, root, "config.js", "existing\n")

	results, err := exec.Apply(p, Options{Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, "existing content overwritten", results[0].Reason)
	assert.Equal(t, "planned\n", testutil.ReadFile(t, root, "config.js"))
}

func TestApplyCreateUsesSourceOverride(t *testing.T) {
	p := buildPlan(t, `[{"path": ".dockerignore", "source": "dockerignore"}]`)
	exec, root := newExecutor(t, templatesFor(map[string]string{"dockerignore": "node_modules\n"}))

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, "node_modules\n", testutil.ReadFile(t, root, ".dockerignore"))
}

func TestApplyAppendIsIdempotent(t *testing.T) {
	p := buildPlan(t, `[{"path": "compose.yml", "action": "append"}]`)
	exec, root := newExecutor(t, templatesFor(map[string]string{"compose.yml": "services:\n  db: {}\n"}))
	testutil.WriteFile(t, root, "compose.yml", "version: \"3\"")

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, "version: \"3\"\nservices:\n  db: {}\n", testutil.ReadFile(t, root, "compose.yml"))

	results, err = exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Equal(t, "content block already present", results[0].Reason)
	assert.Equal(t, 1, strings.Count(testutil.ReadFile(t, root, "compose.yml"), "db: {}"))
}

func TestApplyAppendCreatesMissingTarget(t *testing.T) {
	p := buildPlan(t, `[{"path": ".env", "action": "append", "source": "env"}]`)
	exec, root := newExecutor(t, templatesFor(map[string]string{"env": "API_KEY=\n"}))

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, "API_KEY=\n", testutil.ReadFile(t, root, ".env"))
}

func TestApplyAppendAnchorsBlockAtLineStart(t *testing.T) {
	p := buildPlan(t, `[{"path": ".env", "action": "append", "source": "env"}]`)
	exec, root := newExecutor(t, templatesFor(map[string]string{"env": "PORT=3000\n"}))
	// EXPORT=3000 contains PORT=3000 as a substring but not as a line.
	testutil.WriteFile(t, root, ".env", "EXPORT=3000\n")

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, "EXPORT=3000\nPORT=3000\n", testutil.ReadFile(t, root, ".env"))
}

func TestApplyAppendSkipsBlockAlreadyMidFile(t *testing.T) {
	p := buildPlan(t, `[{"path": ".env", "action": "append", "source": "env"}]`)
	exec, root := newExecutor(t, templatesFor(map[string]string{"env": "PORT=3000\n"}))
	before := "HOST=localhost\nPORT=3000\nDEBUG=1\n"
	testutil.WriteFile(t, root, ".env", before)

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Equal(t, before, testutil.ReadFile(t, root, ".env"))
}

func TestApplyPrependKeepsShebangFirst(t *testing.T) {
	p := buildPlan(t, `[{"path": "run.sh", "action": "prepend"}]`)
	exec, root := newExecutor(t, templatesFor(map[string]string{"run.sh": "set -e\n"}))
	testutil.WriteFile(t, root, "run.sh", "#!/bin/sh\necho hi\n")

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, "#!/bin/sh\nset -e\necho hi\n", testutil.ReadFile(t, root, "run.sh"))
}

func TestApplyPrependWithoutPreamble(t *testing.T) {
	p := buildPlan(t, `[{"path": "notes.md", "action": "prepend"}]`)
	exec, root := newExecutor(t, templatesFor(map[string]string{"notes.md": "# Header\n"}))
	testutil.WriteFile(t, root, "notes.md", "body\n")

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, "# Header\nbody\n", testutil.ReadFile(t, root, "notes.md"))
}

func TestApplyInstallDependencyAddsToPackageJSON(t *testing.T) {
	p := buildPlan(t, `[{
		"path": "package.json",
		"action": "install-dependency",
		"dependency": {"name": "pg", "version": "8.11.0"}
	}]`)
	exec, root := newExecutor(t, templatesFor(nil))
	testutil.WriteFile(t, root, "package.json", "{\n  \"name\": \"app\",\n  \"dependencies\": {\n    \"express\": \"4.18.0\"\n  }\n}\n")

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, results[0].Status)
	content := testutil.ReadFile(t, root, "package.json")
	assert.Contains(t, content, `"pg": "8.11.0"`)
	assert.Contains(t, content, `"express": "4.18.0"`)
	assert.Contains(t, content, `"name": "app"`)
}

func TestApplyInstallDependencySameVersionSkips(t *testing.T) {
	p := buildPlan(t, `[{
		"path": "package.json",
		"action": "install-dependency",
		"dependency": {"name": "pg", "version": "8.11.0"}
	}]`)
	exec, root := newExecutor(t, templatesFor(nil))
	before := "{\n  \"dependencies\": {\n    \"pg\": \"^8.11.0\"\n  }\n}\n"
	testutil.WriteFile(t, root, "package.json", before)

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Equal(t, before, testutil.ReadFile(t, root, "package.json"))
}

func TestApplyInstallDependencyRefusesDowngrade(t *testing.T) {
	p := buildPlan(t, `[{
		"path": "package.json",
		"action": "install-dependency",
		"dependency": {"name": "pg", "version": "1.0.0"}
	}]`)
	exec, root := newExecutor(t, templatesFor(nil))
	before := "{\n  \"dependencies\": {\n    \"pg\": \"2.0.0\"\n  }\n}\n"
	testutil.WriteFile(t, root, "package.json", before)

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusConflict, results[0].Status)
	assert.Contains(t, results[0].Reason, "refusing downgrade")
	assert.Equal(t, before, testutil.ReadFile(t, root, "package.json"))
}

func TestApplyInstallDependencyVersionDiffersConflicts(t *testing.T) {
	p := buildPlan(t, `[{
		"path": "package.json",
		"action": "install-dependency",
		"dependency": {"name": "pg", "version": "9.0.0"}
	}]`)
	exec, root := newExecutor(t, templatesFor(nil))
	before := "{\n  \"dependencies\": {\n    \"pg\": \"8.0.0\"\n  }\n}\n"
	testutil.WriteFile(t, root, "package.json", before)

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusConflict, results[0].Status)
	assert.Contains(t, results[0].Reason, "pinned at 8.0.0")
	assert.Equal(t, before, testutil.ReadFile(t, root, "package.json"))
}

func TestApplyInstallDependencyMissingManifestFails(t *testing.T) {
	p := buildPlan(t, `[{
		"path": "package.json",
		"action": "install-dependency",
		"dependency": {"name": "pg", "version": "8.11.0"}
	}]`)
	exec, root := newExecutor(t, templatesFor(nil))

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Contains(t, results[0].Reason, "does not exist")
	assert.False(t, testutil.Exists(root, "package.json"))
}

func TestApplyInstallDependencyStartsRequirementsFile(t *testing.T) {
	p := buildPlan(t, `[{
		"path": "requirements.txt",
		"action": "install-dependency",
		"dependency": {"name": "psycopg2-binary", "version": "2.9.9"}
	}]`)
	exec, root := newExecutor(t, templatesFor(nil))

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, "psycopg2-binary==2.9.9\n", testutil.ReadFile(t, root, "requirements.txt"))
}

func TestApplyOrdersFilesBeforeDependencyInstalls(t *testing.T) {
	p := buildPlan(t, `[
		{"path": "package.json", "action": "install-dependency", "dependency": {"name": "pg", "version": "8.11.0"}},
		{"path": "db/client.js"}
	]`)
	exec, root := newExecutor(t, templatesFor(map[string]string{"db/client.js": "client\n"}))
	testutil.WriteFile(t, root, "package.json", "{\n  \"dependencies\": {}\n}\n")

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "db/client.js", results[0].TargetPath)
	assert.Equal(t, "package.json", results[1].TargetPath)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, StatusApplied, results[1].Status)
}

func TestApplyMissingTemplateFailsOperation(t *testing.T) {
	p := buildPlan(t, `[{"path": "config.js"}, {"path": "other.js"}]`)
	exec, root := newExecutor(t, templatesFor(map[string]string{"other.js": "ok\n"}))

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Contains(t, results[0].Reason, "read template")
	assert.Equal(t, StatusApplied, results[1].Status)
	assert.Equal(t, "ok\n", testutil.ReadFile(t, root, "other.js"))
}

// failingSystem fails atomic writes whose path contains the marker, so a
// single broken operation can be injected mid-plan.
type failingSystem struct {
	RealSystem
	failOn string
}

func (s failingSystem) WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	if strings.Contains(filename, s.failOn) {
		return errors.New("disk full")
	}
	return s.RealSystem.WriteFileAtomic(filename, data, perm)
}

func TestApplyWriteFailureIsIsolated(t *testing.T) {
	p := buildPlan(t, `[{"path": "broken.js"}, {"path": "fine.js"}]`)
	root := t.TempDir()
	tmpl := templatesFor(map[string]string{"broken.js": "a\n", "fine.js": "b\n"})
	exec, err := NewExecutor(failingSystem{failOn: "broken.js"}, tmpl, root)
	require.NoError(t, err)

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Contains(t, results[0].Reason, "disk full")
	assert.Equal(t, StatusApplied, results[1].Status)
	assert.Equal(t, "b\n", testutil.ReadFile(t, root, "fine.js"))
}

func TestApplySymlinkedDirEscapeRejectsWholePlan(t *testing.T) {
	outside := t.TempDir()
	root := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "sneaky")))

	p := buildPlan(t, `[{"path": "sneaky/config.js"}, {"path": "fine.js"}]`)
	tmpl := templatesFor(map[string]string{"sneaky/config.js": "a\n", "fine.js": "b\n"})
	exec, err := NewExecutor(RealSystem{}, tmpl, root)
	require.NoError(t, err)

	_, err = exec.Apply(p, Options{})
	require.ErrorIs(t, err, ErrPathTraversal)
	assert.False(t, testutil.Exists(root, "fine.js"))
	entries, readErr := os.ReadDir(outside)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestApplySymlinkedDirInsideRootIsAllowed(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "real"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")))

	p := buildPlan(t, `[{"path": "alias/config.js"}]`)
	exec, err := NewExecutor(RealSystem{}, templatesFor(map[string]string{"alias/config.js": "ok\n"}), root)
	require.NoError(t, err)

	results, err := exec.Apply(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, results[0].Status)
	assert.Equal(t, "ok\n", testutil.ReadFile(t, root, "real/config.js"))
}

func TestResolveTargetRejectsEscapes(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{name: "parent traversal", target: "../outside.txt"},
		{name: "nested traversal", target: "src/../../outside.txt"},
		{name: "absolute path", target: "/etc/passwd"},
		{name: "empty target", target: ""},
		{name: "root itself", target: "."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveTarget("/project", tt.target)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrPathTraversal)
		})
	}
}

func TestCheckPlanPathsRejectsWholePlan(t *testing.T) {
	ops := []plan.Operation{
		{TargetPath: "safe.txt"},
		{TargetPath: "../escape.txt"},
	}
	err := checkPlanPaths("/project", ops)
	assert.ErrorIs(t, err, ErrPathTraversal)
}

func TestResolveTargetAcceptsNestedPaths(t *testing.T) {
	got, err := resolveTarget("/project", "src/db/client.js")
	require.NoError(t, err)
	assert.Equal(t, "/project/src/db/client.js", got)
}

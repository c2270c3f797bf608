package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/candorops/retrofit/internal/plan"
	"github.com/candorops/retrofit/internal/stack"
	"github.com/candorops/retrofit/internal/testutil"
)

// runCLI executes the CLI with args the way main does, capturing both
// streams.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errBuf bytes.Buffer
	err := execute(append([]string{"retrofit"}, args...), &out, &errBuf)
	return out.String(), errBuf.String(), err
}

func TestDetectCommand(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "package.json", "{}\n")
	testutil.WriteFile(t, root, "tsconfig.json", "{}\n")

	out, _, err := runCLI(t, "detect", "--root", root)

	require.NoError(t, err)
	assert.Contains(t, out, "framework:       none")
	assert.Contains(t, out, "language:        typescript")
	assert.Contains(t, out, "package manager: npm")
}

func TestDetectCommandUnresolved(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "README.md", "# nothing here\n")

	_, _, err := runCLI(t, "detect", "--root", root)

	assert.ErrorIs(t, err, stack.ErrUnresolved)
}

func TestFeaturesCommand(t *testing.T) {
	out, _, err := runCLI(t, "features")

	require.NoError(t, err)
	assert.Contains(t, out, "database")
	assert.Contains(t, out, "postgres")
	assert.Contains(t, out, "docker")
}

func TestPlanCommand(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "package.json", "{}\n")

	out, _, err := runCLI(t, "plan", "database", "--provider", "postgres", "--root", root)

	require.NoError(t, err)
	assert.Contains(t, out, `Plan for feature "database" (provider "postgres") on none/javascript`)
	assert.Contains(t, out, "create")
	assert.Contains(t, out, "db/index.js")
	assert.Contains(t, out, "install-dependency")
	assert.Contains(t, out, "pg@^8.11.3")

	// Planning writes nothing.
	assert.False(t, testutil.Exists(root, "db/index.js"))
}

func TestPlanCommandAmbiguousProvider(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "package.json", "{}\n")

	_, _, err := runCLI(t, "plan", "database", "--root", root)

	assert.ErrorIs(t, err, plan.ErrAmbiguousProvider)
}

func TestAddCommand(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "package.json", "{\n  \"dependencies\": {}\n}\n")

	out, _, err := runCLI(t, "add", "database", "--provider", "postgres", "--root", root)

	require.NoError(t, err)
	assert.Contains(t, out, "2 applied, 0 skipped, 0 conflicts, 0 failed")
	assert.True(t, testutil.Exists(root, "db/index.js"))
	assert.Contains(t, testutil.ReadFile(t, root, "package.json"), `"pg": "^8.11.3"`)
}

func TestAddCommandFrameworkProject(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "next.config.js", "module.exports = {};\n")
	testutil.WriteFile(t, root, "package.json", "{\n  \"dependencies\": {}\n}\n")

	out, _, err := runCLI(t, "add", "auth", "--provider", "jwt", "--root", root)

	require.NoError(t, err)
	assert.NotContains(t, out, "0 applied")
	assert.True(t, testutil.Exists(root, "middleware/auth.js"))
	assert.Contains(t, testutil.ReadFile(t, root, "package.json"), "jsonwebtoken")
}

func TestAddCommandConflictHint(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "package.json", "{\n  \"dependencies\": {}\n}\n")
	testutil.WriteFile(t, root, "db/index.js", "my own client\n")

	out, errOut, err := runCLI(t, "add", "database", "--provider", "postgres", "--root", root)

	require.NoError(t, err)
	assert.Contains(t, out, "conflict")
	assert.Contains(t, errOut, "--overwrite")
	assert.Equal(t, "my own client\n", testutil.ReadFile(t, root, "db/index.js"))
}

func TestAddCommandOverwrite(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "package.json", "{\n  \"dependencies\": {}\n}\n")
	testutil.WriteFile(t, root, "db/index.js", "my own client\n")

	out, _, err := runCLI(t, "add", "database", "--provider", "postgres", "--overwrite", "--root", root)

	require.NoError(t, err)
	assert.Contains(t, out, "2 applied")
	assert.NotEqual(t, "my own client\n", testutil.ReadFile(t, root, "db/index.js"))
}

func TestAddCommandFailureExitsSilently(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "package.json", "{\n  \"dependencies\": {}\n}\n")
	// A directory where the planned file goes makes that operation fail.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "db", "index.js"), 0o755))

	out, _, err := runCLI(t, "add", "database", "--provider", "postgres", "--root", root)

	var silent *SilentExitError
	require.ErrorAs(t, err, &silent)
	assert.Equal(t, 1, silent.Code)
	assert.Contains(t, out, "failed")
}

func TestResolveRootDefaultsToCwd(t *testing.T) {
	orig := getwd
	t.Cleanup(func() { getwd = orig })
	getwd = func() (string, error) { return "/work/project", nil }

	opts := &cliOptions{}
	got, err := opts.resolveRoot()

	require.NoError(t, err)
	assert.Equal(t, "/work/project", got)
}

func TestResolveRootExpandsHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	opts := &cliOptions{root: "~/project"}
	got, err := opts.resolveRoot()

	require.NoError(t, err)
	assert.Equal(t, "/home/tester/project", got)
}

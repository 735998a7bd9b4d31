package environment_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sagebind/rote/internal/environment"
)

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "rotefile.lua")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEnvironment_LoadRegistersTasksAndRules(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, `
desc("builds the thing")
task("build", {"clean"}, function() end)
task("clean", {}, function() end)

rule("%.o", {"%.c"}, function(name) end)

default("build")
`)

	env := environment.New()
	require.NoError(t, env.Load(path))
	defer env.Close()

	build, ok := env.GetTask("build")
	require.True(t, ok)
	require.Equal(t, []string{"clean"}, build.Dependencies())

	def, ok := env.DefaultTask()
	require.True(t, ok)
	require.Equal(t, "build", def)

	require.Len(t, env.Rules(), 1)
	require.True(t, env.Rules()[0].Matches("foo.o"))
}

func TestEnvironment_DuplicateTaskNameFails(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, `
task("a", {}, function() end)
task("a", {}, function() end)
`)

	env := environment.New()
	err := env.Load(path)
	require.Error(t, err)
}

func TestEnvironment_VarPrefersProcessEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, `task("noop", {}, function() end)`)

	t.Setenv("ROTE_TEST_VAR", "from-process")

	env := environment.New()
	env.SetVar("ROTE_TEST_VAR", "from-script")
	require.NoError(t, env.Load(path))
	defer env.Close()

	require.Equal(t, "from-process", env.Var("ROTE_TEST_VAR"))
}

func TestEnvironment_SetVarBeforeLoadIsVisibleAsGlobal(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, `
task("show", {}, function()
  rote.export("SEEN_NAME", NAME)
end)
default("show")
`)

	env := environment.New()
	env.SetVar("NAME", "widget")
	require.NoError(t, env.Load(path))
	defer env.Close()

	task, ok := env.GetTask("show")
	require.True(t, ok)
	require.NoError(t, task.Run())
	require.Equal(t, "widget", os.Getenv("SEEN_NAME"))
}

func TestEnvironment_DirectoryAndPathAreAbsolute(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, `task("noop", {}, function() end)`)

	env := environment.New()
	require.NoError(t, env.Load(path))
	defer env.Close()

	require.True(t, filepath.IsAbs(env.Path()))
	require.True(t, filepath.IsAbs(env.Directory()))
	require.Equal(t, filepath.Dir(env.Path()), env.Directory())
}

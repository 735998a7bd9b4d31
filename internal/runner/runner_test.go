package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sagebind/rote/internal/environment"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rotefile.lua")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func factoryFor(path string) EnvFactory {
	return func() (*environment.Environment, error) {
		env := environment.New()
		if err := env.Load(path); err != nil {
			return nil, err
		}
		return env, nil
	}
}

func TestRunner_RunsDependenciesBeforeDependents(t *testing.T) {
	path := writeScript(t, `
task("a", {}, function()
  rote.pipe(nil, "sh", "-c", "true")
end)

task("b", {"a"}, function() end)

default("b")
`)

	r := New(factoryFor(path), nil)
	res, err := r.Run(context.Background(), nil, Options{Jobs: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, res.Order)
}

func TestRunner_DryRunDoesNotInvokeActions(t *testing.T) {
	path := writeScript(t, `
task("a", {}, function()
  error("should not run under dry-run")
end)
default("a")
`)

	r := New(factoryFor(path), nil)
	res, err := r.Run(context.Background(), nil, Options{DryRun: true})
	require.NoError(t, err)
	require.Empty(t, res.Failed)
}

func TestRunner_FailStopAbortsRemainingTasks(t *testing.T) {
	path := writeScript(t, `
task("boom", {}, function()
  error("boom failed")
end)

task("after", {"boom"}, function() end)

task("independent", {}, function() end)

task("all", {"boom", "after", "independent"}, function() end)
`)

	r := New(factoryFor(path), nil)
	res, err := r.Run(context.Background(), []string{"all"}, Options{Jobs: 3})
	require.Error(t, err)
	require.Contains(t, res.Failed, "boom")
}

func TestRunner_KeepGoingSkipsOnlyFailedSubtree(t *testing.T) {
	path := writeScript(t, `
task("boom", {}, function()
  error("boom failed")
end)

task("after", {"boom"}, function() end)

task("independent", {}, function() end)

task("all", {"boom", "after", "independent"}, function() end)
`)

	r := New(factoryFor(path), nil)
	res, err := r.Run(context.Background(), []string{"all"}, Options{Jobs: 3, KeepGoing: true})
	require.Error(t, err)
	require.Contains(t, res.Failed, "boom")
	require.Contains(t, res.Skipped, "after")
	require.Contains(t, res.Order, "independent")
}

func TestRunner_NoTargetsUsesDefaultTask(t *testing.T) {
	path := writeScript(t, `
task("only", {}, function() end)
default("only")
`)

	r := New(factoryFor(path), nil)
	res, err := r.Run(context.Background(), nil, Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"only"}, res.Order)
}

func TestRunner_UnknownTargetFails(t *testing.T) {
	path := writeScript(t, `task("only", {}, function() end)`)

	r := New(factoryFor(path), nil)
	_, err := r.Run(context.Background(), []string{"missing"}, Options{})
	require.Error(t, err)
}

func TestRunner_NoTargetNoDefaultFails(t *testing.T) {
	path := writeScript(t, `task("only", {}, function() end)`)

	r := New(factoryFor(path), nil)
	_, err := r.Run(context.Background(), nil, Options{})
	require.Error(t, err)
}

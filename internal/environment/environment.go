// Package environment implements the per-thread scripting host plus its
// task/rule registry: the Environment type described by §4.3. It is
// created once per script load, mutated only while the script evaluates,
// and read-only afterward.
package environment

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/sagebind/rote/internal/model"
	"github.com/sagebind/rote/internal/rterr"
	"github.com/sagebind/rote/internal/stdlib"
)

// Environment is a process-scoped registry: one per loaded script. Every
// worker in the parallel scheduler owns an independently constructed
// Environment re-evaluated from the same script file, so none of its
// state is ever shared across goroutines.
type Environment struct {
	tasks     map[string]*model.NamedTask
	taskOrder []string
	rules     []*model.Rule

	defaultTask string

	scriptPath   string
	scriptDir    string
	includePaths []string

	vars map[string]string

	l *lua.LState

	// runID correlates this Environment's log lines across a run; it is
	// never consulted for scheduling or freshness decisions, preserving
	// "no persisted state" between invocations.
	runID uuid.UUID
}

// New returns an Environment with no script loaded yet.
func New() *Environment {
	return &Environment{
		tasks: make(map[string]*model.NamedTask),
		vars:  make(map[string]string),
		runID: uuid.New(),
	}
}

// RunID returns the correlation id for this Environment's lifetime.
func (e *Environment) RunID() uuid.UUID { return e.runID }

// IncludePath prepends dir to the script host's Lua `require` search
// path. Calling it before Load affects the script about to be evaluated.
func (e *Environment) IncludePath(dir string) {
	e.includePaths = append([]string{dir}, e.includePaths...)
}

// Load evaluates the script at path in a fresh Lua state, opening the
// standard library first so that task/rule/etc. are bound before any
// script code runs.
func (e *Environment) Load(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return rterr.Wrap(rterr.ScriptLoad, err, "resolving script path %q", path)
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return rterr.Wrap(rterr.ScriptLoad, err, "script %q is not a readable file", path)
	}

	e.scriptPath = abs
	e.scriptDir = filepath.Dir(abs)

	e.l = lua.NewState()
	e.l.OpenLibs()
	stdlib.Open(e.l, e)
	e.applyIncludePaths()
	e.flushPendingVars()

	if err := e.l.DoFile(abs); err != nil {
		return rterr.Wrap(rterr.ScriptError, err, "evaluating %s", abs)
	}
	return nil
}

// Close releases the underlying Lua state. Go's garbage collector already
// reclaims every value reachable only from Lua once the state is
// unreferenced; Close additionally frees the VM's internal buffers
// promptly rather than waiting on a GC cycle.
func (e *Environment) Close() {
	if e.l != nil {
		e.l.Close()
	}
}

func (e *Environment) applyIncludePaths() {
	pkg, ok := e.l.GetGlobal("package").(*lua.LTable)
	if !ok {
		return
	}

	dirs := append(append([]string{}, e.includePaths...), e.scriptDir)
	parts := make([]string, 0, len(dirs))
	for _, d := range dirs {
		parts = append(parts, filepath.Join(d, "?.lua"))
	}

	existing, _ := pkg.RawGetString("path").(lua.LString)
	newPath := strings.Join(parts, ";")
	if existing != "" {
		newPath = newPath + ";" + string(existing)
	}
	pkg.RawSetString("path", lua.LString(newPath))
}

func (e *Environment) flushPendingVars() {
	for name, value := range e.vars {
		e.l.SetGlobal(name, lua.LString(value))
	}
}

// --- Registry contract (§4.3) -------------------------------------------

// CreateTask registers a NamedTask. Implements stdlib.Host.
func (e *Environment) CreateTask(name, desc string, deps []string, action func() error) error {
	if name == "" {
		return rterr.New(rterr.ScriptError, "task name must not be empty")
	}
	if _, exists := e.tasks[name]; exists {
		return rterr.New(rterr.ScriptError, "duplicate task name: %q", name)
	}
	e.tasks[name] = &model.NamedTask{TaskName: name, Desc: desc, Deps: deps, Action: action}
	e.taskOrder = append(e.taskOrder, name)
	return nil
}

// CreateRule registers a Rule. Implements stdlib.Host.
func (e *Environment) CreateRule(pattern string, deps []string, action func(name string) error) error {
	r, err := model.NewRule(pattern, deps, action)
	if err != nil {
		return rterr.Wrap(rterr.ScriptError, err, "invalid rule pattern %q", pattern)
	}
	e.rules = append(e.rules, r)
	return nil
}

// GetTask looks up a registered NamedTask by name.
func (e *Environment) GetTask(name string) (model.Task, bool) {
	t, ok := e.tasks[name]
	if !ok {
		return nil, false
	}
	return t, true
}

// Tasks returns registered tasks in script textual (registration) order.
func (e *Environment) Tasks() []*model.NamedTask {
	out := make([]*model.NamedTask, 0, len(e.taskOrder))
	for _, name := range e.taskOrder {
		out = append(out, e.tasks[name])
	}
	return out
}

// Rules returns the registered rules in insertion (first-match-wins)
// order.
func (e *Environment) Rules() []*model.Rule {
	return append([]*model.Rule{}, e.rules...)
}

// SetDefaultTask implements stdlib.Host.
func (e *Environment) SetDefaultTask(name string) { e.defaultTask = name }

// DefaultTask returns the name set via default(), if any.
func (e *Environment) DefaultTask() (string, bool) {
	return e.defaultTask, e.defaultTask != ""
}

// Path returns the canonicalized absolute script path.
func (e *Environment) Path() string { return e.scriptPath }

// Directory returns the canonicalized absolute script directory.
func (e *Environment) Directory() string { return e.scriptDir }

// Var implements stdlib.Host: the process environment always takes
// precedence, then a script-global with that name -- either one set via
// SetVar/-D or a plain Lua global assignment the script made itself
// (e.g. "FOO = \"bar\"").
func (e *Environment) Var(name string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	if e.l != nil {
		if g := e.l.GetGlobal(name); g != lua.LNil {
			if s, ok := g.(lua.LString); ok {
				return string(s)
			}
			return g.String()
		}
	}
	return e.vars[name]
}

// SetVar writes to the script-global namespace; if the Lua state already
// exists the global is set immediately, otherwise it is flushed once
// Load creates the state (used by the CLI's -D/--var flag, applied
// before the script is evaluated).
func (e *Environment) SetVar(name, value string) {
	e.vars[name] = value
	if e.l != nil {
		e.l.SetGlobal(name, lua.LString(value))
	}
}

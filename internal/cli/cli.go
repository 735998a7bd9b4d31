// Package cli wires the engine's flags onto a cobra.Command and maps
// the result of a run onto the exit-code contract: 0 success, 1 any
// core failure, 2 CLI parsing error.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sagebind/rote/internal/environment"
	"github.com/sagebind/rote/internal/rlog"
	"github.com/sagebind/rote/internal/runner"
	"github.com/sagebind/rote/internal/rterr"
)

const (
	ExitSuccess       = 0
	ExitFailure       = 1
	ExitInvalidUsage  = 2
	defaultScriptName = "Rotefile"
)

// Flags holds every documented command-line option.
type Flags struct {
	File         string
	Directory    string
	Jobs         int
	DryRun       bool
	RunAll       bool
	KeepGoing    bool
	List         bool
	Vars         []string
	IncludePaths []string
	LogFile      string
}

// NewRootCommand builds the cobra command tree. Positional arguments
// are requested task names.
func NewRootCommand() *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:           "rote [targets...]",
		Short:         "rote runs Lua-scripted tasks and file rules",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), flags, args)
		},
	}

	pf := cmd.Flags()
	pf.StringVarP(&flags.File, "file", "f", "", "path to the script (default: "+defaultScriptName+" in the working directory)")
	pf.StringVarP(&flags.Directory, "directory", "C", "", "change to this directory before doing anything else")
	pf.IntVarP(&flags.Jobs, "jobs", "j", 0, "worker-thread cap (default: max(1, cpus-1))")
	pf.BoolVarP(&flags.DryRun, "dry-run", "n", false, "print what would run without running it")
	pf.BoolVarP(&flags.RunAll, "run-all", "B", false, "ignore freshness, run every resolved task")
	pf.BoolVarP(&flags.KeepGoing, "keep-going", "k", false, "continue past failures instead of stopping")
	pf.BoolVarP(&flags.List, "list", "l", false, "list available tasks and exit")
	pf.StringArrayVarP(&flags.Vars, "var", "D", nil, "set a script global before evaluation (NAME=VALUE, repeatable)")
	pf.StringArrayVarP(&flags.IncludePaths, "include-path", "I", nil, "prepend a directory to the Lua require search path (repeatable)")
	pf.StringVar(&flags.LogFile, "log-file", "", "also write a JSON-formatted log to this path, fanned out alongside the console log")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return usageError("%v", err)
	})

	return cmd
}

// Main is the process entrypoint's body: it runs the root command and
// returns the process exit code.
func Main(args []string) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintln(os.Stderr, err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

func run(ctx context.Context, flags Flags, targets []string) error {
	if flags.Directory != "" {
		if err := os.Chdir(flags.Directory); err != nil {
			return usageError("cannot change to directory %q: %v", flags.Directory, err)
		}
	}

	scriptPath := flags.File
	if scriptPath == "" {
		scriptPath = defaultScriptName
	}

	vars, err := parseVars(flags.Vars)
	if err != nil {
		return usageError("%v", err)
	}

	loadDotEnv(filepath.Dir(scriptPath))

	var logOpts rlog.Options
	if flags.LogFile != "" {
		f, err := os.OpenFile(flags.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return usageError("cannot open --log-file %q: %v", flags.LogFile, err)
		}
		defer f.Close()
		logOpts.File = f
	}
	logger := rlog.New(logOpts)

	factory := func() (*environment.Environment, error) {
		env := environment.New()
		for name, value := range vars {
			env.SetVar(name, value)
		}
		for _, dir := range flags.IncludePaths {
			env.IncludePath(dir)
		}
		if err := env.Load(scriptPath); err != nil {
			return nil, err
		}
		return env, nil
	}

	if flags.List {
		return listTasks(factory, logger)
	}

	r := runner.New(factory, logger)
	opts := runner.Options{
		Jobs:      flags.Jobs,
		DryRun:    flags.DryRun,
		AlwaysRun: flags.RunAll,
		KeepGoing: flags.KeepGoing,
	}

	res, runErr := r.Run(ctx, targets, opts)
	if runErr != nil {
		return runErr
	}
	logger.Debug("run complete", "ran", len(res.Order), "skipped", len(res.Skipped))
	return nil
}

// listTasks implements -l/--list (§10): tasks are printed alphabetically
// with their desc() text, and the default task is marked.
func listTasks(factory runner.EnvFactory, logger *slog.Logger) error {
	env, err := factory()
	if err != nil {
		return err
	}
	defer env.Close()

	tasks := env.Tasks()
	names := make([]string, 0, len(tasks))
	byName := make(map[string]string, len(tasks))
	for _, t := range tasks {
		names = append(names, t.TaskName)
		byName[t.TaskName] = t.Desc
	}
	sort.Strings(names)

	def, hasDefault := env.DefaultTask()

	for _, name := range names {
		marker := "  "
		if hasDefault && name == def {
			marker = "* "
		}
		if desc := byName[name]; desc != "" {
			fmt.Printf("%s%-20s %s\n", marker, name, desc)
		} else {
			fmt.Printf("%s%s\n", marker, name)
		}
	}
	return nil
}

func parseVars(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, entry := range raw {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid -D/--var %q: expected NAME=VALUE", entry)
		}
		out[name] = value
	}
	return out, nil
}

// loadDotEnv loads a .env file from dir, if present, before any task
// runs. It is a pure convenience layer: os.LookupEnv always wins over
// it in var()'s documented precedence.
func loadDotEnv(dir string) {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

func usageError(format string, args ...any) error {
	return &usageErr{msg: fmt.Sprintf(format, args...)}
}

type usageErr struct{ msg string }

func (e *usageErr) Error() string { return e.msg }

func exitCodeFor(err error) int {
	var u *usageErr
	if errors.As(err, &u) {
		return ExitInvalidUsage
	}
	return rterr.ExitCode(err)
}

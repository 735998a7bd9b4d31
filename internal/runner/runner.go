// Package runner implements the parallel scheduler (§4.7): it resolves
// requested task names against an Environment into a dependency graph,
// solves it into a schedule, and dispatches that schedule onto a bounded
// worker pool, each worker owning its own independently re-evaluated
// Environment since the script host is not shareable across threads.
package runner

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/sagebind/rote/internal/environment"
	"github.com/sagebind/rote/internal/model"
	"github.com/sagebind/rote/internal/rlog"
	"github.com/sagebind/rote/internal/rterr"
)

// Options carries the flags that shape a single invocation.
type Options struct {
	// Jobs caps worker count. Zero selects the default, max(1, NumCPU-1).
	Jobs int

	// DryRun performs resolution, pruning, and dispatch ordering but
	// skips every task's Run, logging "would run <name>" instead.
	DryRun bool

	// AlwaysRun disables satisfied-pruning (graph.Solve's
	// prune_satisfied = false), forcing every resolved task to run
	// regardless of freshness.
	AlwaysRun bool

	// KeepGoing continues scheduling tasks whose dependencies are all
	// completed even after an earlier failure, skipping only the
	// failed subtree. Without it, the dispatcher is fail-stop: it lets
	// in-flight work finish and then aborts with the first error.
	KeepGoing bool
}

// EnvFactory builds a fresh, independently loaded Environment. The
// Runner calls it once for resolution and once per worker.
type EnvFactory func() (*environment.Environment, error)

// Runner resolves and schedules a script's tasks.
type Runner struct {
	newEnv EnvFactory
	logger *slog.Logger
}

// New returns a Runner that builds Environments via factory.
func New(factory EnvFactory, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = rlog.New(rlog.Options{})
	}
	return &Runner{newEnv: factory, logger: logger}
}

// Result summarizes a completed (possibly partial, under keep-going)
// dispatch.
type Result struct {
	// Order lists tasks in the order their Run completed successfully.
	Order []string

	// Failed maps a task name to the error its Run returned.
	Failed map[string]error

	// Skipped maps a task name to the upstream failure that kept it
	// from ever dispatching (keep-going mode only).
	Skipped map[string]string
}

// Run resolves targets (or the default task, if targets is empty),
// solves the schedule, and dispatches it.
func (r *Runner) Run(ctx context.Context, targets []string, opts Options) (*Result, error) {
	primary, err := r.newEnv()
	if err != nil {
		return nil, err
	}
	defer primary.Close()

	names := targets
	if len(names) == 0 {
		def, ok := primary.DefaultTask()
		if !ok {
			return nil, rterr.New(rterr.OptionMissing, "no target specified and no default task registered")
		}
		names = []string{def}
	}

	g, err := buildGraph(primary, names)
	if err != nil {
		return nil, err
	}

	schedule, err := g.Solve(!opts.AlwaysRun)
	if err != nil {
		return nil, err
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = defaultJobs()
	}
	workers := jobs
	if workers > len(schedule) {
		workers = len(schedule)
	}
	if workers < 1 {
		workers = 1
	}

	logger := rlog.WithRunID(r.logger, primary.RunID().String())
	return r.dispatch(ctx, schedule, workers, opts, logger)
}

// defaultJobs implements §4.9's resolved Open Question: the default
// worker count leaves one core free for the dispatcher and OS.
func defaultJobs() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

type taskResult struct {
	name string
	err  error
}

// dispatch implements §4.7's single dispatcher / bounded-worker-pool
// protocol: a task is popped off the front of the queue only once every
// scheduled dependency has completed; a dependency that was pruned from
// the schedule (never in allScheduled) counts as already satisfied.
func (r *Runner) dispatch(ctx context.Context, schedule []model.Task, workers int, opts Options, logger *slog.Logger) (*Result, error) {
	allScheduled := make(map[string]bool, len(schedule))
	for _, t := range schedule {
		allScheduled[t.Name()] = true
	}

	workCh := make(chan model.Task)
	doneCh := make(chan taskResult)

	var wg sync.WaitGroup
	envs := make([]*environment.Environment, 0, workers)
	for i := 0; i < workers; i++ {
		run, env, err := r.workerFunc(opts.DryRun, logger)
		if err != nil {
			close(workCh)
			wg.Wait()
			for _, e := range envs {
				e.Close()
			}
			return nil, err
		}
		if env != nil {
			envs = append(envs, env)
		}

		wg.Add(1)
		go func(run func(model.Task) error) {
			defer wg.Done()
			for t := range workCh {
				doneCh <- taskResult{name: t.Name(), err: run(t)}
			}
		}(run)
	}
	defer func() {
		for _, e := range envs {
			e.Close()
		}
	}()

	completed := make(map[string]bool, len(schedule))
	failed := make(map[string]error)
	skipped := make(map[string]string)

	order := make([]string, 0, len(schedule))
	idx := 0
	inFlight := 0
	stopDispatch := false

	ready := func(t model.Task) bool {
		for _, dep := range t.Dependencies() {
			if !allScheduled[dep] {
				continue
			}
			if !completed[dep] {
				return false
			}
		}
		return true
	}

	blockedByFailure := func(t model.Task) (string, bool) {
		for _, dep := range t.Dependencies() {
			if !allScheduled[dep] {
				continue
			}
			if _, failed := failed[dep]; failed {
				return dep, true
			}
			if cause, wasSkipped := skipped[dep]; wasSkipped {
				return cause, true
			}
		}
		return "", false
	}

	for idx < len(schedule) || inFlight > 0 {
		for !stopDispatch && idx < len(schedule) && inFlight < workers {
			t := schedule[idx]

			if cause, blocked := blockedByFailure(t); blocked {
				skipped[t.Name()] = cause
				idx++
				continue
			}
			if !ready(t) {
				break
			}

			idx++
			inFlight++
			select {
			case workCh <- t:
			case <-ctx.Done():
				stopDispatch = true
				inFlight--
			}
		}

		if inFlight == 0 {
			if stopDispatch || idx >= len(schedule) {
				break
			}
			// Front of queue isn't ready yet and nothing is running:
			// the solver guarantees this cannot happen for an acyclic
			// schedule, but break rather than spin forever.
			break
		}

		select {
		case res := <-doneCh:
			inFlight--
			taskLogger := rlog.WithTask(logger, res.name)
			if res.err != nil {
				taskLogger.Error("task failed", "error", res.err)
				failed[res.name] = res.err
				if !opts.KeepGoing {
					stopDispatch = true
				}
			} else {
				taskLogger.Debug("task completed")
				completed[res.name] = true
				order = append(order, res.name)
			}
		case <-ctx.Done():
			stopDispatch = true
		}
	}

	close(workCh)
	wg.Wait()

	result := &Result{Order: order, Failed: failed, Skipped: skipped}

	if err := ctx.Err(); err != nil {
		return result, rterr.Wrap(rterr.ActionFailure, err, "run cancelled")
	}
	if len(failed) == 0 {
		return result, nil
	}
	if !opts.KeepGoing {
		for _, name := range scheduleNames(schedule) {
			if e, ok := failed[name]; ok {
				return result, e
			}
		}
	}
	return result, rterr.New(rterr.ActionFailure, "%d task(s) failed", len(failed))
}

func scheduleNames(schedule []model.Task) []string {
	out := make([]string, len(schedule))
	for i, t := range schedule {
		out[i] = t.Name()
	}
	return out
}

// workerFunc returns the per-worker execution function. For a dry run it
// never touches Lua and simply logs; for a real run it constructs a
// fresh Environment (the script host is not shareable across threads)
// and resolves each dispatched name within it before calling Run.
func (r *Runner) workerFunc(dryRun bool, logger *slog.Logger) (func(model.Task) error, *environment.Environment, error) {
	if dryRun {
		return func(t model.Task) error {
			rlog.WithTask(logger, t.Name()).Info("would run")
			return nil
		}, nil, nil
	}

	env, err := r.newEnv()
	if err != nil {
		return nil, nil, err
	}

	return func(t model.Task) error {
		rlog.WithTask(logger, t.Name()).Debug("running")
		local, err := Resolve(env, t.Name())
		if err != nil {
			return err
		}
		return local.Run()
	}, env, nil
}

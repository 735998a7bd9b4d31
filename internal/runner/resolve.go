package runner

import (
	"github.com/sagebind/rote/internal/graph"
	"github.com/sagebind/rote/internal/model"
	"github.com/sagebind/rote/internal/rterr"
)

// Resolver is the subset of Environment the resolution phase needs: a
// lookup of registered named tasks plus the ordered rule list used to
// synthesize file tasks on demand.
type Resolver interface {
	GetTask(name string) (model.Task, bool)
	Rules() []*model.Rule
}

// Resolve maps a requested name to a Task: first against the registered
// named tasks, then against rules in registration order (first match
// wins), synthesizing a FileTask.
func Resolve(env Resolver, name string) (model.Task, error) {
	if t, ok := env.GetTask(name); ok {
		return t, nil
	}
	for _, r := range env.Rules() {
		if t, ok := r.CreateTask(name); ok {
			return t, nil
		}
	}
	return nil, rterr.Unknown(name, nil)
}

// buildGraph resolves every requested target and its transitive
// dependencies into a Graph, ready for Solve. Resolution failures
// (including an unknown name reached only through a chain of
// dependencies) carry the chain that led to the offending name.
func buildGraph(env Resolver, targets []string) (*graph.Graph, error) {
	g := graph.New()

	var resolveOne func(name string, chain []string) error
	resolveOne = func(name string, chain []string) error {
		if g.Contains(name) {
			return nil
		}

		t, err := Resolve(env, name)
		if err != nil {
			return rterr.Unknown(name, chain)
		}
		g.Insert(t)

		next := append(append([]string{}, chain...), name)
		for _, dep := range t.Dependencies() {
			if err := resolveOne(dep, next); err != nil {
				return err
			}
		}
		return nil
	}

	for _, name := range targets {
		if err := resolveOne(name, nil); err != nil {
			return nil, err
		}
	}
	return g, nil
}

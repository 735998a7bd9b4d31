// Package graph holds the dependency DAG and the DFS-based topological
// solver described by the engine's scheduling contract: depth-first
// postorder traversal with cycle detection and an "up-to-date"
// short-circuit for recursively satisfied subgraphs.
package graph

import (
	"sort"

	"github.com/sagebind/rote/internal/model"
	"github.com/sagebind/rote/internal/rterr"
)

// Graph holds a name-to-task mapping. Nodes are inserted by resolution and
// never removed.
type Graph struct {
	tasks map[string]model.Task
	// insertion records node names in insertion order, independent of Go's
	// randomized map iteration. No method exposes it; Solve scans names
	// in sorted order instead.
	insertion []string
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{tasks: make(map[string]model.Task)}
}

// Insert adds a task to the graph. Inserting a task whose name already
// exists is a no-op, keeping resolution idempotent.
func (g *Graph) Insert(t model.Task) {
	if _, exists := g.tasks[t.Name()]; exists {
		return
	}
	g.tasks[t.Name()] = t
	g.insertion = append(g.insertion, t.Name())
}

// Contains reports whether name has already been inserted.
func (g *Graph) Contains(name string) bool {
	_, ok := g.tasks[name]
	return ok
}

// Get returns the task registered under name.
func (g *Graph) Get(name string) (model.Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// Len returns the number of nodes currently in the graph.
func (g *Graph) Len() int { return len(g.tasks) }

// visitState tracks a node's position in the DFS per §4.6.
type visitState int8

const (
	unvisited visitState = iota
	inProgress
	done
)

// Solve performs a depth-first topological sort, producing a postorder
// queue (dependencies before dependents). When pruneSatisfied is true,
// any task that is recursively satisfied -- locally satisfied and every
// transitive dependency locally satisfied -- is omitted from the
// schedule along with its already-satisfied subgraph.
//
// Iteration over the underlying map is sorted so that, for a fixed graph,
// repeated calls to Solve yield the same schedule.
func (g *Graph) Solve(pruneSatisfied bool) ([]model.Task, error) {
	names := make([]string, 0, len(g.tasks))
	for n := range g.tasks {
		names = append(names, n)
	}
	sort.Strings(names)

	state := make(map[string]visitState, len(g.tasks))
	satisfied := make(map[string]bool, len(g.tasks))
	var path []string
	var queue []model.Task

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case inProgress:
			cycle := append(append([]string{}, path...), name)
			return rterr.Cycle(trimCycle(cycle, name))
		}

		t, ok := g.tasks[name]
		if !ok {
			return rterr.Unknown(name, path)
		}

		state[name] = inProgress
		path = append(path, name)

		deps := t.Dependencies()
		depsSatisfied := true
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
			if !satisfied[dep] {
				depsSatisfied = false
			}
		}

		path = path[:len(path)-1]
		state[name] = done

		localOK, err := t.Satisfied()
		if err != nil {
			return err
		}
		satisfied[name] = localOK && depsSatisfied

		if pruneSatisfied && satisfied[name] {
			return nil
		}
		queue = append(queue, t)
		return nil
	}

	for _, n := range names {
		if err := visit(n); err != nil {
			return nil, err
		}
	}

	return queue, nil
}

// trimCycle trims a recorded DFS path down to the cycle itself: from the
// first occurrence of the repeated name to its second occurrence.
func trimCycle(path []string, repeated string) []string {
	for i, n := range path {
		if n == repeated {
			return path[i:]
		}
	}
	return path
}

package graph

import (
	"errors"
	"testing"

	"github.com/sagebind/rote/internal/model"
	"github.com/sagebind/rote/internal/rterr"
)

func index(tasks []model.Task, name string) int {
	for i, t := range tasks {
		if t.Name() == name {
			return i
		}
	}
	return -1
}

func TestGraph_TopologicalSoundness(t *testing.T) {
	g := New()
	g.Insert(&model.NamedTask{TaskName: "a"})
	g.Insert(&model.NamedTask{TaskName: "b", Deps: []string{"a"}})

	sched, err := g.Solve(false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index(sched, "a") >= index(sched, "b") {
		t.Fatalf("expected a before b, got %v", names(sched))
	}
}

func TestGraph_CycleDetection(t *testing.T) {
	g := New()
	g.Insert(&model.NamedTask{TaskName: "x", Deps: []string{"y"}})
	g.Insert(&model.NamedTask{TaskName: "y", Deps: []string{"x"}})

	_, err := g.Solve(false)
	if err == nil {
		t.Fatalf("expected a cyclic dependency error")
	}
	if !errors.Is(err, rterr.CyclicDependency) {
		t.Fatalf("expected CyclicDependency kind, got %v", err)
	}
	if msg := err.Error(); !(contains(msg, "x") && contains(msg, "y")) {
		t.Fatalf("expected cycle message to contain both endpoints, got %q", msg)
	}
}

func TestGraph_UnknownDependencyFails(t *testing.T) {
	g := New()
	g.Insert(&model.NamedTask{TaskName: "a", Deps: []string{"missing"}})

	_, err := g.Solve(false)
	if !errors.Is(err, rterr.UnknownTarget) {
		t.Fatalf("expected UnknownTarget kind, got %v", err)
	}
}

type alwaysSatisfied struct{ model.NamedTask }

func (a *alwaysSatisfied) Satisfied() (bool, error) { return true, nil }

func TestGraph_PruneSatisfiedOmitsRecursivelySatisfiedSubgraph(t *testing.T) {
	g := New()
	a := &alwaysSatisfied{model.NamedTask{TaskName: "a"}}
	g.Insert(a)
	g.Insert(&model.NamedTask{TaskName: "b", Deps: []string{"a"}})

	sched, err := g.Solve(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index(sched, "a") != -1 {
		t.Fatalf("expected satisfied leaf to be pruned, got %v", names(sched))
	}
	if index(sched, "b") == -1 {
		t.Fatalf("expected unsatisfied dependent to remain scheduled")
	}
}

func TestGraph_ResolutionIsIdempotent(t *testing.T) {
	g := New()
	g.Insert(&model.NamedTask{TaskName: "a"})
	g.Insert(&model.NamedTask{TaskName: "a"})
	if g.Len() != 1 {
		t.Fatalf("expected duplicate insert to be a no-op, got %d nodes", g.Len())
	}
}

func names(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Name()
	}
	return out
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// Package model defines the uniform task/rule abstraction the engine
// schedules: a polymorphic Task capability with two variants (NamedTask,
// FileTask) plus the Rule template that synthesizes FileTasks on demand.
package model

// Task is the uniform operation surface every schedulable unit of work
// implements, regardless of whether it was declared with task() or
// synthesized from a rule() pattern.
type Task interface {
	// Name is stable and cheap; it is the task's identity within an
	// Environment.
	Name() string

	// Dependencies returns the same sequence on every call.
	Dependencies() []string

	// Satisfied is side-effect-free. Named tasks are never satisfied;
	// file tasks consult only filesystem metadata.
	Satisfied() (bool, error)

	// Run executes the task's effect. Invoked at most once per scheduler
	// invocation.
	Run() error
}

// NamedTask is a task registered via the script's task() builtin. It may
// carry no action at all, in which case it exists only to aggregate its
// dependencies (a "phony" grouping task).
type NamedTask struct {
	TaskName string
	Desc     string
	Deps     []string
	Action   func() error
}

func (t *NamedTask) Name() string             { return t.TaskName }
func (t *NamedTask) Dependencies() []string   { return t.Deps }
func (t *NamedTask) Satisfied() (bool, error) { return false, nil }

func (t *NamedTask) Run() error {
	if t.Action == nil {
		return nil
	}
	return t.Action()
}

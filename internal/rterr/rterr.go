// Package rterr defines the closed set of error kinds the engine can raise,
// each a sentinel wrapped in a {Kind, Msg, Cause} error value that the
// graph, runner and environment packages all return.
package rterr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds. Use errors.Is(err, rterr.CyclicDependency) etc. to classify a
// returned error; use errors.As for the richer *Error when the chain/path
// is needed.
var (
	ScriptLoad       = errors.New("script load error")
	ScriptError      = errors.New("script evaluation error")
	UnknownTarget    = errors.New("unknown target")
	CyclicDependency = errors.New("cyclic dependency")
	ActionFailure    = errors.New("action failure")
	OptionMissing    = errors.New("option missing")
	IO               = errors.New("io error")
)

// Error wraps a sentinel Kind with a human-readable message and an optional
// cause, so callers can both pattern-match on Kind and print a full
// diagnostic.
type Error struct {
	Kind  error
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Msg == "" && e.Cause == nil:
		return e.Kind.Error()
	case e.Cause == nil:
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Kind.Error(), e.Msg, e.Cause.Error())
	}
}

func (e *Error) Unwrap() error { return e.Kind }

// Is lets errors.Is(err, rterr.CyclicDependency) succeed without requiring
// callers to unwrap Cause separately.
func (e *Error) Is(target error) bool { return errors.Is(e.Kind, target) }

func Wrap(kind error, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func New(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Unknown builds an <UnknownTarget> error naming the offending target and,
// when known, the chain of names that led to it.
func Unknown(name string, chain []string) error {
	if len(chain) == 0 {
		return New(UnknownTarget, "no task or rule matches %q", name)
	}
	return New(UnknownTarget, "no task or rule matches %q (via %s)", name, strings.Join(chain, " -> "))
}

// Cycle builds a <CyclicDependency> error naming the full cycle path.
func Cycle(path []string) error {
	if len(path) == 0 {
		return New(CyclicDependency, "cycle detected")
	}
	return New(CyclicDependency, "%s", strings.Join(path, " -> "))
}

// ExitCode maps an engine error to a process exit code: 0 for nil and 1
// for any error, whatever its kind. Exit code 2 for CLI parsing errors is
// assigned by the cli package, not here.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

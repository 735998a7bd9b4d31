package stdlib

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/sagebind/rote/internal/rterr"
)

// fnExec implements exec(cmd, ...args): runs a process synchronously,
// inheriting the parent's stdio. A non-zero exit always surfaces as an
// <ActionFailure> -- the engine's resolved answer to the "should exec
// selectively fail" open question.
func fnExec(L *lua.LState) (int, error) {
	host, err := HostFromState(L)
	if err != nil {
		return 0, err
	}

	parts, err := expandedArgs(L, host, 1)
	if err != nil {
		return 0, err
	}
	if len(parts) == 0 {
		return 0, fmt.Errorf("exec requires a command")
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Dir = host.Directory()
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	runErr := cmd.Run()
	code, err := exitCode(runErr)
	if err != nil {
		return 0, err
	}
	if code != 0 {
		return 0, rterr.New(rterr.ActionFailure, "%s: exit code %d", parts[0], code)
	}

	L.Push(lua.LNumber(code))
	return 1, nil
}

// fnPipe implements pipe(input, cmd, ...args): spawns a process, writes
// input to stdin when non-nil, and captures stdout/stderr rather than
// inheriting them. Unlike exec, a non-zero exit is reported to the
// script via the returned exit code rather than raised as an error, so
// callers can inspect failures.
func fnPipe(L *lua.LState) (int, error) {
	host, err := HostFromState(L)
	if err != nil {
		return 0, err
	}

	var stdin *string
	switch v := L.Get(1).(type) {
	case lua.LString:
		s := string(v)
		stdin = &s
	case *lua.LNilType:
		// no stdin
	default:
		return 0, fmt.Errorf("pipe: input must be a string or nil")
	}

	parts, err := expandedArgs(L, host, 2)
	if err != nil {
		return 0, err
	}
	if len(parts) == 0 {
		return 0, fmt.Errorf("pipe requires a command")
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Dir = host.Directory()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = strings.NewReader(*stdin)
	}

	runErr := cmd.Run()
	code, err := exitCode(runErr)
	if err != nil {
		return 0, err
	}

	L.Push(lua.LString(stdout.String()))
	L.Push(lua.LString(stderr.String()))
	L.Push(lua.LNumber(code))
	return 3, nil
}

func expandedArgs(L *lua.LState, host Host, from int) ([]string, error) {
	top := L.GetTop()
	out := make([]string, 0, top-from+1)
	for i := from; i <= top; i++ {
		out = append(out, ExpandString(host, L.CheckString(i)))
	}
	return out, nil
}

// exitCode extracts a process exit code from the error cmd.Run() returns,
// treating anything other than a clean non-zero exit (e.g. failure to
// start the process at all) as an infrastructure error.
func exitCode(runErr error) (int, error) {
	if runErr == nil {
		return 0, nil
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return 0, rterr.Wrap(rterr.IO, runErr, "failed to execute command")
}

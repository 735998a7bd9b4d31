// Package luabridge exposes gopher-lua's native-function interface to the
// engine while hiding its raw stack-manipulation details: function/closure
// binding, registry-backed scratch storage, and table iteration into Go
// slices.
package luabridge

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// HostFunc is an engine function invoked from Lua. A non-nil error is
// raised into the host as a script-level error, annotated with the
// calling script's source location; HostFunc must never let a Go panic
// escape across the boundary.
type HostFunc func(L *lua.LState) (nret int, err error)

// Bind wraps an engine HostFunc as a lua.LGFunction. Every exported
// engine function must leave the host stack with exactly its declared
// return count above the argument frame -- satisfied here because the
// wrapper always returns exactly what fn reports, and panics are
// converted to host errors rather than propagated.
func Bind(fn HostFunc) lua.LGFunction {
	return func(L *lua.LState) int {
		n, err := safeCall(L, fn)
		if err != nil {
			L.RaiseError("%s: %s", L.Where(1), err.Error())
			return 0
		}
		return n
	}
}

func safeCall(L *lua.LState, fn HostFunc) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return fn(L)
}

// NewClosure wraps a stateful Go closure the same way Bind wraps a plain
// function. The closure's captured state is owned entirely by the Go
// runtime: unlike a C Lua binding, there is no finalizer to register --
// gopher-lua's LFunction is itself Go-GC'd once the script drops its last
// reference.
func NewClosure(L *lua.LState, fn HostFunc) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		n, err := safeCall(L, fn)
		if err != nil {
			L.RaiseError("%s: %s", L.Where(1), err.Error())
			return 0
		}
		return n
	})
}

// --- Registry -----------------------------------------------------------

// SetRegistry stores v under key in the host's own registry table, for
// tagged scratch state such as the pending task description.
func SetRegistry(L *lua.LState, key string, v lua.LValue) {
	L.SetField(L.G.Registry, key, v)
}

// GetRegistry returns the value stored under key, or lua.LNil if unset.
func GetRegistry(L *lua.LState, key string) lua.LValue {
	return L.GetField(L.G.Registry, key)
}

// TakeRegistryString returns the string stored under key and clears the
// slot, or ("", false) if the slot held no string. Used by desc(): the
// pending description is consumed and cleared by the next task() call.
func TakeRegistryString(L *lua.LState, key string) (string, bool) {
	v := GetRegistry(L, key)
	SetRegistry(L, key, lua.LNil)
	s, ok := v.(lua.LString)
	if !ok {
		return "", false
	}
	return string(s), true
}

// --- Table iteration ------------------------------------------------------

// KV is one key/value pair observed while iterating a Lua table.
type KV struct {
	Key   lua.LValue
	Value lua.LValue
}

// Pairs produces the (key, value) pairs of tbl. The pairs are reified
// into a Go slice up front rather than driven incrementally off the Lua
// stack: gopher-lua's Table.ForEach walks the table's Go-side storage
// without pushing anything onto the Lua stack, so no stack-depth
// bookkeeping is required here.
func Pairs(tbl *lua.LTable) []KV {
	var out []KV
	tbl.ForEach(func(k, v lua.LValue) {
		out = append(out, KV{Key: k, Value: v})
	})
	return out
}

// Strings extracts a flat []string from an array-like table of strings,
// used for task/rule dependency lists. Non-string entries are an error.
func Strings(tbl *lua.LTable) ([]string, error) {
	if tbl == nil {
		return nil, nil
	}
	out := make([]string, 0, tbl.Len())
	var elemErr error
	tbl.ForEach(func(_, v lua.LValue) {
		if elemErr != nil {
			return
		}
		s, ok := v.(lua.LString)
		if !ok {
			elemErr = fmt.Errorf("expected a string dependency, got %s", v.Type().String())
			return
		}
		out = append(out, string(s))
	})
	if elemErr != nil {
		return nil, elemErr
	}
	return out, nil
}

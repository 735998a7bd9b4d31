// Package stdlib implements the engine's built-in script functions:
// task, rule, desc, default, glob, exec, pipe, expand, env, export,
// current_dir, change_dir, merge, version, print.
package stdlib

import (
	lua "github.com/yuin/gopher-lua"
)

// Host is the subset of Environment behavior the standard library needs.
// Defining it here -- rather than importing the environment package --
// keeps stdlib free of a dependency on its only caller; environment
// implements Host and passes itself in via Open.
type Host interface {
	CreateTask(name, desc string, deps []string, action func() error) error
	CreateRule(pattern string, deps []string, action func(name string) error) error
	SetDefaultTask(name string)
	Var(name string) string
	SetVar(name, value string)
	Directory() string
}

const envRegistryKey = "rote.environment"

// Bind stores host in L's registry under a private key so that any
// exported function, however deeply nested in a user callback, can
// recover its owning Environment from only the Lua state.
func Bind(L *lua.LState, host Host) {
	ud := L.NewUserData()
	ud.Value = host
	L.SetField(L.G.Registry, envRegistryKey, ud)
}

// HostFromState recovers the Host bound to L via Bind.
func HostFromState(L *lua.LState) (Host, error) {
	v := L.GetField(L.G.Registry, envRegistryKey)
	ud, ok := v.(*lua.LUserData)
	if !ok {
		return nil, errNoHost
	}
	h, ok := ud.Value.(Host)
	if !ok {
		return nil, errNoHost
	}
	return h, nil
}

var errNoHost = bindError("no Environment bound to this Lua state")

type bindError string

func (e bindError) Error() string { return string(e) }

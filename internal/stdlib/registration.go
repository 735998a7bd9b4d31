package stdlib

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/sagebind/rote/internal/luabridge"
)

const descRegistryKey = "rote.nextDescription"

// parseNameDepsFn parses the common (name, [deps], [fn]) shape shared by
// task() and rule(). deps, when given, is an array-like table of
// strings; fn, when given, is a Lua function.
func parseNameDepsFn(L *lua.LState) (name string, deps []string, fn *lua.LFunction, err error) {
	name = L.CheckString(1)
	top := L.GetTop()
	idx := 2

	if idx <= top {
		if tbl, ok := L.Get(idx).(*lua.LTable); ok {
			if deps, err = luabridge.Strings(tbl); err != nil {
				return "", nil, nil, err
			}
			idx++
		}
	}

	if idx <= top {
		if f, ok := L.Get(idx).(*lua.LFunction); ok {
			fn = f
		}
	}

	return name, deps, fn, nil
}

func fnTask(L *lua.LState) (int, error) {
	host, err := HostFromState(L)
	if err != nil {
		return 0, err
	}

	name, deps, fn, err := parseNameDepsFn(L)
	if err != nil {
		return 0, err
	}

	desc, _ := luabridge.TakeRegistryString(L, descRegistryKey)

	var action func() error
	if fn != nil {
		action = func() error {
			return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
		}
	}

	if err := host.CreateTask(name, desc, deps, action); err != nil {
		return 0, err
	}
	return 0, nil
}

func fnRule(L *lua.LState) (int, error) {
	host, err := HostFromState(L)
	if err != nil {
		return 0, err
	}

	pattern, deps, fn, err := parseNameDepsFn(L)
	if err != nil {
		return 0, err
	}

	var action func(name string) error
	if fn != nil {
		action = func(name string) error {
			return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LString(name))
		}
	}

	if err := host.CreateRule(pattern, deps, action); err != nil {
		return 0, err
	}
	return 0, nil
}

func fnDesc(L *lua.LState) (int, error) {
	text := L.CheckString(1)
	luabridge.SetRegistry(L, descRegistryKey, lua.LString(text))
	return 0, nil
}

func fnDefault(L *lua.LState) (int, error) {
	host, err := HostFromState(L)
	if err != nil {
		return 0, err
	}
	host.SetDefaultTask(L.CheckString(1))
	return 0, nil
}

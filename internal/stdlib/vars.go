package stdlib

import (
	"fmt"
	"os"
	"regexp"

	lua "github.com/yuin/gopher-lua"
)

// expandPattern matches a single leading '$' followed by word characters.
// expand_string performs exactly one pass over the input -- it never
// recurses into the replacement text, which would risk a
// non-terminating expansion.
var expandPattern = regexp.MustCompile(`\$(\w+)`)

// ExpandString substitutes every "$name" in s with host.Var(name),
// falling back to the empty string for undefined names.
func ExpandString(host Host, s string) string {
	return expandPattern.ReplaceAllStringFunc(s, func(m string) string {
		name := m[1:]
		return host.Var(name)
	})
}

func fnExpand(L *lua.LState) (int, error) {
	host, err := HostFromState(L)
	if err != nil {
		return 0, err
	}
	L.Push(lua.LString(ExpandString(host, L.CheckString(1))))
	return 1, nil
}

func fnEnv(L *lua.LState) (int, error) {
	name := L.CheckString(1)
	if v, ok := os.LookupEnv(name); ok {
		L.Push(lua.LString(v))
		return 1, nil
	}
	L.Push(lua.LNil)
	return 1, nil
}

func fnExport(L *lua.LState) (int, error) {
	host, err := HostFromState(L)
	if err != nil {
		return 0, err
	}
	key := L.CheckString(1)
	value := ExpandString(host, L.CheckString(2))
	if err := os.Setenv(key, value); err != nil {
		return 0, err
	}
	return 0, nil
}

func fnCurrentDir(L *lua.LState) (int, error) {
	wd, err := os.Getwd()
	if err != nil {
		return 0, err
	}
	L.Push(lua.LString(wd))
	return 1, nil
}

func fnChangeDir(L *lua.LState) (int, error) {
	path := L.CheckString(1)
	if err := os.Chdir(path); err != nil {
		return 0, fmt.Errorf("failed to change directory: %w", err)
	}
	return 0, nil
}

package stdlib

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Version is the engine version string reported by the script-visible
// version() builtin.
const Version = "0.1.0"

func fnVersion(L *lua.LState) (int, error) {
	L.Push(lua.LString(Version))
	return 1, nil
}

func fnPrint(L *lua.LState) (int, error) {
	host, err := HostFromState(L)
	if err != nil {
		return 0, err
	}
	fmt.Println(ExpandString(host, L.CheckString(1)))
	return 0, nil
}

// fnMerge implements merge(t1, t2, ...): a deep-copy merge of one or more
// tables into a freshly allocated table. Later tables take precedence
// over earlier ones on key collision.
func fnMerge(L *lua.LState) (int, error) {
	top := L.GetTop()
	out := L.NewTable()
	for i := 1; i <= top; i++ {
		tbl, ok := L.Get(i).(*lua.LTable)
		if !ok {
			return 0, fmt.Errorf("merge: argument %d is not a table", i)
		}
		mergeInto(L, out, tbl)
	}
	L.Push(out)
	return 1, nil
}

func mergeInto(L *lua.LState, dst, src *lua.LTable) {
	src.ForEach(func(k, v lua.LValue) {
		if tbl, ok := v.(*lua.LTable); ok {
			existing, ok := dst.RawGet(k).(*lua.LTable)
			if !ok {
				existing = L.NewTable()
				dst.RawSet(k, existing)
			}
			mergeInto(L, existing, tbl)
			return
		}
		dst.RawSet(k, v)
	})
}

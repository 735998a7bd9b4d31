package stdlib

import (
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	lua "github.com/yuin/gopher-lua"

	"github.com/sagebind/rote/internal/luabridge"
)

// fnGlob implements glob(pattern): a lazy iterator of absolute path
// strings, rooted at the Environment's script directory for relative
// patterns. Expansion supports doublestar's "**" in addition to the
// single-level wildcards spec callers expect.
func fnGlob(L *lua.LState) (int, error) {
	host, err := HostFromState(L)
	if err != nil {
		return 0, err
	}

	pattern := L.CheckString(1)
	fullPattern := pattern
	if !filepath.IsAbs(pattern) {
		fullPattern = filepath.Join(host.Directory(), pattern)
	}
	fullPattern = filepath.ToSlash(fullPattern)

	matches, err := doublestar.FilepathGlob(fullPattern)
	if err != nil {
		return 0, err
	}
	sort.Strings(matches)

	abs := make([]string, len(matches))
	for i, m := range matches {
		a, err := filepath.Abs(m)
		if err != nil {
			a = m
		}
		abs[i] = a
	}

	i := 0
	iter := luabridge.NewClosure(L, func(L *lua.LState) (int, error) {
		if i >= len(abs) {
			L.Push(lua.LNil)
			return 1, nil
		}
		v := abs[i]
		i++
		L.Push(lua.LString(v))
		return 1, nil
	})

	L.Push(iter)
	return 1, nil
}

package stdlib

import (
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/sagebind/rote/internal/luabridge"
)

const moduleName = "rote"

// functions lists every builtin bound both as a bare global and as a
// member of the "rote" module table.
var functions = map[string]luabridge.HostFunc{
	"task":        fnTask,
	"rule":        fnRule,
	"desc":        fnDesc,
	"default":     fnDefault,
	"glob":        fnGlob,
	"exec":        fnExec,
	"pipe":        fnPipe,
	"expand":      fnExpand,
	"env":         fnEnv,
	"export":      fnExport,
	"current_dir": fnCurrentDir,
	"change_dir":  fnChangeDir,
	"print":       fnPrint,
}

// moduleOnly additionally appears in the "rote" module table but is not
// bound as a bare global, per the stdlib contract (§4.5/§6).
var moduleOnly = map[string]luabridge.HostFunc{
	"merge":   fnMerge,
	"version": fnVersion,
}

// Open binds host into L's registry and installs the standard library:
// every builtin as a global, plus a "rote" module table carrying all of
// them alongside merge() and version(). Reading any other global falls
// back to env(name) via the global table's metatable.
func Open(L *lua.LState, host Host) {
	Bind(L, host)

	module := L.NewTable()
	for name, fn := range functions {
		f := luabridge.Bind(fn)
		L.SetGlobal(name, f)
		L.SetField(module, name, f)
	}
	for name, fn := range moduleOnly {
		L.SetField(module, name, luabridge.Bind(fn))
	}
	L.SetGlobal(moduleName, module)

	installGlobalEnvFallback(L)
}

// installGlobalEnvFallback arranges for any undefined global read to
// fall back to the process environment, per §6: "Reading any other
// global falls back to env(name) via the host's global-table
// metatable."
func installGlobalEnvFallback(L *lua.LState) {
	mt := L.NewTable()
	mt.RawSetString("__index", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(2)
		if v, ok := os.LookupEnv(key); ok {
			L.Push(lua.LString(v))
			return 1
		}
		L.Push(lua.LNil)
		return 1
	}))
	L.G.Global.Metatable = mt
}

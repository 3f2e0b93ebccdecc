package lua

import (
	"strings"

	"github.com/hashicorp/go-hclog"
	lua "github.com/yuin/gopher-lua"
)

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// io, os, debug and package stay closed.
}

// installSandbox removes loaders from the base library and routes output
// to the logger.
func installSandbox(L *lua.LState, logger hclog.Logger) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		logger.Info(joinArgs(L, 1))
		return 0
	}))

	// log(level, msg, ...) with level one of trace/debug/info/warn/error.
	L.SetGlobal("log", L.NewFunction(func(L *lua.LState) int {
		level := hclog.LevelFromString(L.CheckString(1))
		if level == hclog.NoLevel {
			level = hclog.Info
		}
		logger.Log(level, joinArgs(L, 2))
		return 0
	}))
}

func joinArgs(L *lua.LState, from int) string {
	parts := make([]string, 0, L.GetTop())
	for i := from; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	return strings.Join(parts, " ")
}

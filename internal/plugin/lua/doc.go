// Package lua runs Lua scripts as event listeners.
//
// This package wraps the gopher-lua library to provide:
//   - Sandboxed Lua state management
//   - Go-Lua type conversion bridge
//   - Script listeners that mutate events
//
// # Scripts
//
// A script defines a global function (on_event by default) that receives
// the event as a table:
//
//	script, err := lua.LoadScript("scripts/discount.lua", "")
//	if err != nil {
//	    return err
//	}
//	defer script.Close()
//
//	dispatch.ListenAsync(d, lua.Listener[OrderPlaced](script))
//
// The event is encoded with its JSON field names. After the call the table
// (or the table the function returned) is decoded back into the event, so
// script edits are visible to the listeners that run after it.
//
// # Sandbox
//
// Only the base, table, string and math libraries are opened. dofile,
// loadfile, load, loadstring and require are removed. print and
// log(level, ...) write to the hclog logger passed with WithLogger.
//
// # Timeouts
//
// Each call runs under the listener's context, bounded by the state's
// execution timeout. gopher-lua aborts the call when the context is done.
package lua

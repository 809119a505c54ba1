// Package lua runs Lua plugins on gopher-lua.
//
// A Lua plugin is a script that defines two globals:
//
//	function plugin_init(ctx)            -- runs once at load
//	function plugin_receive(envelope)    -- runs per delivered envelope
//
// The ctx table exposes the host API (send, broadcast, resolve, log,
// allocate, id). The envelope arrives as a table with seq, opcode,
// source, destination, and payload fields; the payload is a string
// copy, so mutating it never touches the queued message.
//
// gopher-lua states are not goroutine-safe. The runtime serializes
// every entry into the interpreter behind one mutex.
//
// The state is sandboxed: io, os, debug, and package are never opened.
package lua

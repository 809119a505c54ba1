package lua

import (
	"context"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/courier/internal/dispatcher/handler"
	"github.com/dshills/courier/internal/hostapi"
	"github.com/dshills/courier/internal/plugin"
	"github.com/dshills/courier/internal/protocol"
)

// Lua globals a plugin script must define.
const (
	initFunc    = "plugin_init"
	receiveFunc = "plugin_receive"
)

// Runtime executes one Lua plugin script.
type Runtime struct {
	mu     sync.Mutex
	L      *lua.LState
	closed bool
}

// Factory builds a Lua runtime for a manifest. It loads the script and
// verifies both entry globals before the plugin owns any endpoint.
func Factory(m *plugin.Manifest) (plugin.Runtime, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	if err := L.DoFile(m.EntryPoint()); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading %s: %w", m.EntryPoint(), err)
	}
	if _, ok := L.GetGlobal(initFunc).(*lua.LFunction); !ok {
		L.Close()
		return nil, ErrMissingInit
	}
	if _, ok := L.GetGlobal(receiveFunc).(*lua.LFunction); !ok {
		L.Close()
		return nil, ErrMissingReceive
	}
	return &Runtime{L: L}, nil
}

// openSafeLibraries opens base, table, string, and math. io, os,
// debug, and package stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// Init calls plugin_init with the host context table.
func (r *Runtime) Init(hctx *hostapi.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrStateClosed
	}

	ctxTable := newContextTable(r.L, hctx)
	fn := r.L.GetGlobal(initFunc)
	if err := r.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, ctxTable); err != nil {
		return fmt.Errorf("%s: %w", initFunc, err)
	}

	// A truthy error return also fails the load.
	ret := r.L.Get(-1)
	r.L.Pop(1)
	if s, ok := ret.(lua.LString); ok && s != "" {
		return fmt.Errorf("%s: %s", initFunc, string(s))
	}
	return nil
}

// Receive calls plugin_receive with the envelope as a table.
func (r *Runtime) Receive(ctx context.Context, env *protocol.Envelope) handler.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return handler.Rejected(ErrStateClosed.Error())
	}

	fn := r.L.GetGlobal(receiveFunc)
	err := r.L.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true}, envelopeTable(r.L, env))
	if err != nil {
		// A Lua error inside the handler is a fault, not a rejection.
		panic(fmt.Sprintf("%s: %v", receiveFunc, err))
	}

	reason := r.L.Get(-1)
	status := r.L.Get(-2)
	r.L.Pop(2)

	if status == lua.LFalse {
		if s, ok := reason.(lua.LString); ok {
			return handler.Rejected(string(s))
		}
		return handler.Rejected("rejected by script")
	}
	return handler.Handled()
}

// Close releases the interpreter.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.L.Close()
	return nil
}

// envelopeTable renders an envelope for Lua. The payload is a string
// copy.
func envelopeTable(L *lua.LState, env *protocol.Envelope) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "seq", lua.LNumber(env.Seq))
	L.SetField(t, "opcode", lua.LNumber(env.OpCode))
	L.SetField(t, "source", lua.LNumber(env.Source))
	L.SetField(t, "destination", lua.LNumber(env.Destination))
	L.SetField(t, "payload", lua.LString(env.Payload))
	return t
}

// newContextTable exposes the host API to the script. Failures come
// back as an error string; success returns nil.
func newContextTable(L *lua.LState, hctx *hostapi.Context) *lua.LTable {
	t := L.NewTable()

	L.SetField(t, "id", lua.LNumber(hctx.ID()))

	L.SetField(t, "send", L.NewFunction(func(L *lua.LState) int {
		op := protocol.OpCode(L.CheckInt64(1))
		dest := protocol.EndpointID(L.CheckInt64(2))
		payload := []byte(L.OptString(3, ""))
		if err := hctx.Send(op, dest, payload); err != nil {
			L.Push(lua.LString(err.Error()))
			return 1
		}
		L.Push(lua.LNil)
		return 1
	}))

	L.SetField(t, "broadcast", L.NewFunction(func(L *lua.LState) int {
		op := protocol.OpCode(L.CheckInt64(1))
		payload := []byte(L.OptString(2, ""))
		if err := hctx.Broadcast(op, payload); err != nil {
			L.Push(lua.LString(err.Error()))
			return 1
		}
		L.Push(lua.LNil)
		return 1
	}))

	L.SetField(t, "resolve", L.NewFunction(func(L *lua.LState) int {
		id, err := hctx.Resolve(L.CheckString(1))
		if err != nil {
			L.Push(lua.LNil)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		L.Push(lua.LNumber(id))
		return 1
	}))

	L.SetField(t, "allocate", L.NewFunction(func(L *lua.LState) int {
		buf := hctx.Allocate(L.CheckInt(1))
		L.Push(lua.LString(buf))
		return 1
	}))

	L.SetField(t, "log", L.NewFunction(func(L *lua.LState) int {
		hctx.Log(L.CheckString(1), L.CheckString(2))
		return 0
	}))

	return t
}

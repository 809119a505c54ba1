package native

import (
	"context"
	"errors"
	"fmt"
	goplugin "plugin"
	"sync"

	"github.com/dshills/courier/internal/dispatcher/handler"
	"github.com/dshills/courier/internal/hostapi"
	"github.com/dshills/courier/internal/plugin"
	"github.com/dshills/courier/internal/protocol"
)

// Exported symbol names a native plugin must define.
const (
	initSymbol    = "PluginInit"
	receiveSymbol = "PluginReceive"
)

// InitFunc is the required type of the PluginInit symbol.
type InitFunc = func(self uint32,
	send func(op, destination uint32, payload []byte) error,
	resolve func(name string) (uint32, error),
	log func(level, msg string)) error

// ReceiveFunc is the required type of the PluginReceive symbol.
type ReceiveFunc = func(op, source, destination uint32, payload []byte) error

var (
	// ErrBadSymbol indicates a symbol exists with the wrong type.
	ErrBadSymbol = errors.New("plugin symbol has wrong type")

	// ErrRuntimeClosed indicates a call after Close.
	ErrRuntimeClosed = errors.New("native runtime closed")
)

// Runtime executes one native plugin.
type Runtime struct {
	mu      sync.Mutex
	init    InitFunc
	receive ReceiveFunc
	closed  bool
}

// Factory opens the shared object and resolves both entry symbols.
func Factory(m *plugin.Manifest) (plugin.Runtime, error) {
	so, err := goplugin.Open(m.EntryPoint())
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", m.EntryPoint(), err)
	}

	initSym, err := so.Lookup(initSymbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.EntryPoint(), err)
	}
	initPtr, ok := initSym.(*InitFunc)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBadSymbol, initSymbol)
	}

	recvSym, err := so.Lookup(receiveSymbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.EntryPoint(), err)
	}
	recvPtr, ok := recvSym.(*ReceiveFunc)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBadSymbol, receiveSymbol)
	}

	if *initPtr == nil || *recvPtr == nil {
		return nil, fmt.Errorf("%w: entry symbols must be assigned", ErrBadSymbol)
	}
	return &Runtime{init: *initPtr, receive: *recvPtr}, nil
}

// Init hands the plugin its host capabilities as plain closures.
func (r *Runtime) Init(hctx *hostapi.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRuntimeClosed
	}

	send := func(op, destination uint32, payload []byte) error {
		return hctx.Send(protocol.OpCode(op), protocol.EndpointID(destination), payload)
	}
	resolve := func(name string) (uint32, error) {
		id, err := hctx.Resolve(name)
		return uint32(id), err
	}
	log := func(level, msg string) {
		hctx.Log(level, msg)
	}
	return r.init(uint32(hctx.ID()), send, resolve, log)
}

// Receive delivers one envelope. The plugin gets its own payload copy.
func (r *Runtime) Receive(ctx context.Context, env *protocol.Envelope) handler.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return handler.Rejected(ErrRuntimeClosed.Error())
	}

	var payload []byte
	if len(env.Payload) > 0 {
		payload = make([]byte, len(env.Payload))
		copy(payload, env.Payload)
	}
	err := r.receive(uint32(env.OpCode), uint32(env.Source), uint32(env.Destination), payload)
	if err != nil {
		return handler.Rejected(err.Error())
	}
	return handler.Handled()
}

// Close drops the runtime's references. The shared object itself stays
// mapped; the loader has no unload.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.init = nil
	r.receive = nil
	return nil
}

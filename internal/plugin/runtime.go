package plugin

import (
	"context"

	"github.com/dshills/courier/internal/dispatcher/handler"
	"github.com/dshills/courier/internal/hostapi"
	"github.com/dshills/courier/internal/protocol"
)

// Runtime is the execution engine behind one plugin instance. The
// manager calls Init exactly once before any Receive, and Close
// exactly once after the endpoint has fully drained.
type Runtime interface {
	// Init runs the plugin's initializer with its host context.
	Init(hctx *hostapi.Context) error

	// Receive delivers one envelope to the plugin.
	Receive(ctx context.Context, env *protocol.Envelope) handler.Outcome

	// Close releases the runtime. Receive is never called after Close.
	Close() error
}

// Factory builds a runtime from a validated manifest.
type Factory func(m *Manifest) (Runtime, error)

package registry

import (
	"github.com/dshills/courier/internal/dispatcher/handler"
	"github.com/dshills/courier/internal/protocol"
)

// Endpoint is one registered subsystem or plugin. All mutable fields are
// guarded by the owning Registry's lock; an Endpoint handed out by
// Resolve is a stable snapshot of identity plus a handler reference.
type Endpoint struct {
	id      protocol.EndpointID
	name    string
	handler handler.Handler

	state State

	// done closes when the endpoint reaches StateUnregistered.
	done chan struct{}
}

// ID returns the endpoint's bus address.
func (e *Endpoint) ID() protocol.EndpointID { return e.id }

// Name returns the endpoint's registered name.
func (e *Endpoint) Name() string { return e.name }

// Handler returns the endpoint's handler. The handler reference is fixed
// at registration and never swapped, so reading it is safe without the
// registry lock.
func (e *Endpoint) Handler() handler.Handler { return e.handler }

// Done returns a channel that closes when the endpoint reaches
// StateUnregistered.
func (e *Endpoint) Done() <-chan struct{} { return e.done }

package hostapi

import (
	"log/slog"

	"github.com/dshills/courier/internal/mailbox"
	"github.com/dshills/courier/internal/protocol"
)

// Context is a plugin's capability handle into the host. The source
// address of every outbound envelope is forced to the owning endpoint,
// and payloads are copied at the boundary so the plugin runtime cannot
// mutate a message after it has been queued.
type Context struct {
	id  protocol.EndpointID
	mb  *mailbox.Mailbox
	log *slog.Logger
}

// New binds a context to an endpoint.
func New(id protocol.EndpointID, mb *mailbox.Mailbox, log *slog.Logger) *Context {
	return &Context{id: id, mb: mb, log: log}
}

// ID returns the endpoint address this context is bound to.
func (c *Context) ID() protocol.EndpointID { return c.id }

// Send routes an envelope to destination. The payload is copied before
// queuing.
func (c *Context) Send(op protocol.OpCode, destination protocol.EndpointID, payload []byte) error {
	var p []byte
	if len(payload) > 0 {
		p = make([]byte, len(payload))
		copy(p, payload)
	}
	return c.mb.Post(op, c.id, destination, p)
}

// Broadcast routes an envelope to every endpoint active at the moment
// of the call, the sender included.
func (c *Context) Broadcast(op protocol.OpCode, payload []byte) error {
	return c.Send(op, protocol.Broadcast, payload)
}

// Allocate returns a zeroed scratch buffer. Plugins fill it and hand
// it back through Send; the host owns nothing about its lifetime.
func (c *Context) Allocate(size int) []byte {
	if size <= 0 {
		return nil
	}
	return make([]byte, size)
}

// Resolve looks up an endpoint address by registered name.
func (c *Context) Resolve(name string) (protocol.EndpointID, error) {
	return c.mb.Registry().ResolveName(name)
}

// Log writes a message to the host log at the given level. Unknown
// levels land at INFO.
func (c *Context) Log(level, msg string) {
	switch level {
	case "DEBUG", "debug":
		c.log.Debug(msg)
	case "WARN", "warn":
		c.log.Warn(msg)
	case "ERROR", "error":
		c.log.Error(msg)
	default:
		c.log.Info(msg)
	}
}

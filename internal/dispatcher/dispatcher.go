package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/tidwall/sjson"

	"github.com/dshills/courier/internal/dispatcher/handler"
	"github.com/dshills/courier/internal/mailbox"
	"github.com/dshills/courier/internal/protocol"
	"github.com/dshills/courier/internal/registry"
)

// Dispatcher is the mailbox consumer: one goroutine per destination
// queue, running from activation until the queue drains.
type Dispatcher struct {
	mb  *mailbox.Mailbox
	log *slog.Logger
	ctx context.Context

	// supervisor is the destination for FAULT reports. Kept as int64
	// so "unset" (-1) is distinguishable from bus address 0.
	supervisor atomic.Int64

	wg sync.WaitGroup

	delivered atomic.Uint64
	handled   atomic.Uint64
	rejected  atomic.Uint64
	deferred  atomic.Uint64
	faults    atomic.Uint64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithContext sets the base context passed to handlers.
func WithContext(ctx context.Context) Option {
	return func(d *Dispatcher) {
		if ctx != nil {
			d.ctx = ctx
		}
	}
}

// New creates a dispatcher bound to the mailbox. The caller is expected
// to pass it to mailbox.Bind before activating endpoints.
func New(mb *mailbox.Mailbox, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		mb:  mb,
		log: slog.Default(),
		ctx: context.Background(),
	}
	d.supervisor.Store(-1)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetSupervisor routes FAULT reports to the given endpoint. Without a
// supervisor, faults are only logged.
func (d *Dispatcher) SetSupervisor(id protocol.EndpointID) {
	d.supervisor.Store(int64(id))
}

// Consume implements mailbox.Consumer. It spawns the destination's
// worker and returns immediately.
func (d *Dispatcher) Consume(ep *registry.Endpoint, queue <-chan *protocol.Envelope) {
	d.wg.Add(1)
	go d.drain(ep, queue)
}

// drain delivers until the queue closes and empties, then finalizes the
// endpoint. No queued envelope is discarded mid-drain.
func (d *Dispatcher) drain(ep *registry.Endpoint, queue <-chan *protocol.Envelope) {
	defer d.wg.Done()

	for env := range queue {
		d.deliver(ep, env)
	}

	if err := d.mb.Finalize(ep.ID()); err != nil {
		d.log.Warn("finalize after drain failed",
			"endpoint", ep.Name(), "id", uint32(ep.ID()), "error", err)
	}
}

// deliver invokes the handler for one envelope, isolating any panic.
func (d *Dispatcher) deliver(ep *registry.Endpoint, env *protocol.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			d.faults.Add(1)
			d.reportFault(ep, env, r, debug.Stack())
		}
	}()

	d.delivered.Add(1)
	out := ep.Handler().Handle(d.ctx, env)

	switch out.Status {
	case handler.StatusHandled:
		d.handled.Add(1)
	case handler.StatusDeferred:
		d.deferred.Add(1)
	case handler.StatusRejected:
		d.rejected.Add(1)
		// No retry. If the sender cares, the handler NACKs it.
		d.log.Debug("envelope rejected",
			"endpoint", ep.Name(), "opcode", env.OpCode.String(),
			"seq", env.Seq, "reason", out.Reason)
	}
}

// reportFault surfaces a handler panic as a system envelope to the
// supervisor, keeping failure reporting on the same channel the
// application communicates through.
func (d *Dispatcher) reportFault(ep *registry.Endpoint, env *protocol.Envelope, cause any, stack []byte) {
	d.log.Error("handler fault",
		"endpoint", ep.Name(), "id", uint32(ep.ID()),
		"opcode", env.OpCode.String(), "seq", env.Seq,
		"panic", fmt.Sprint(cause), "stack", string(stack))

	sup := d.supervisor.Load()
	if sup < 0 {
		return
	}

	body := []byte(`{}`)
	body, _ = sjson.SetBytes(body, "endpoint", uint32(ep.ID()))
	body, _ = sjson.SetBytes(body, "name", ep.Name())
	body, _ = sjson.SetBytes(body, "opcode", uint32(env.OpCode))
	body, _ = sjson.SetBytes(body, "seq", env.Seq)
	body, _ = sjson.SetBytes(body, "panic", fmt.Sprint(cause))

	if err := d.mb.Post(protocol.OpFault, ep.ID(), protocol.EndpointID(sup), body); err != nil {
		// The fault channel itself failed; the operator log is all
		// that is left.
		d.log.Warn("fault report undeliverable", "error", err)
	}
}

// Wait blocks until every worker has exited or the context expires.
// Meaningful only after the mailbox is closed or all endpoints drained.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats is a point-in-time snapshot of dispatcher counters.
type Stats struct {
	Delivered uint64
	Handled   uint64
	Rejected  uint64
	Deferred  uint64
	Faults    uint64
}

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Delivered: d.delivered.Load(),
		Handled:   d.handled.Load(),
		Rejected:  d.rejected.Load(),
		Deferred:  d.deferred.Load(),
		Faults:    d.faults.Load(),
	}
}

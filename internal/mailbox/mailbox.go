package mailbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dshills/courier/internal/dispatcher/handler"
	"github.com/dshills/courier/internal/protocol"
	"github.com/dshills/courier/internal/registry"
)

// Consumer drains activated endpoints. Consume is called once per
// activation and must return quickly, draining the channel from its own
// goroutine; when the channel closes and the backlog is flushed, the
// consumer calls Finalize on the mailbox.
type Consumer interface {
	Consume(ep *registry.Endpoint, queue <-chan *protocol.Envelope)
}

// Mailbox is the process-wide routing hub. Created once at startup, it
// owns the registry and all per-destination queues, and is torn down
// only after every endpoint reaches StateUnregistered.
type Mailbox struct {
	reg      *registry.Registry
	consumer Consumer

	capacity   int
	maxPayload int
	tracer     Tracer

	mu     sync.RWMutex
	queues map[protocol.EndpointID]*queue

	closed atomic.Bool
	seq    atomic.Uint64

	accepted       atomic.Uint64
	rejected       atomic.Uint64
	broadcasts     atomic.Uint64
	broadcastDrops atomic.Uint64
}

// New creates a mailbox with the given options. A consumer must be
// bound before any endpoint is activated.
func New(opts ...Option) *Mailbox {
	m := &Mailbox{
		reg:        registry.New(),
		capacity:   DefaultQueueCapacity,
		maxPayload: DefaultMaxPayload,
		queues:     make(map[protocol.EndpointID]*queue),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry exposes the endpoint registry for resolution and state
// queries. Lifecycle mutations go through the mailbox.
func (m *Mailbox) Registry() *registry.Registry { return m.reg }

// Bind attaches the consumer that drains activated queues. Must be
// called exactly once, before the first Activate.
func (m *Mailbox) Bind(c Consumer) { m.consumer = c }

// Register creates an endpoint in StateRegistered and returns its bus
// address.
func (m *Mailbox) Register(name string, hint protocol.EndpointID, h handler.Handler) (protocol.EndpointID, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	return m.reg.Register(name, hint, h)
}

// Activate opens the endpoint's delivery queue and hands it to the
// consumer. Only valid from StateRegistered.
func (m *Mailbox) Activate(id protocol.EndpointID) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.consumer == nil {
		return ErrNoConsumer
	}

	ep, err := m.reg.Resolve(id)
	if err != nil {
		return err
	}

	// The queue is visible before the state flips to Active so a
	// concurrent Send that observes Active always finds it.
	q := newQueue(m.capacity)
	m.mu.Lock()
	m.queues[id] = q
	m.mu.Unlock()

	if err := m.reg.Activate(id); err != nil {
		m.mu.Lock()
		delete(m.queues, id)
		m.mu.Unlock()
		return err
	}

	m.consumer.Consume(ep, q.ch)
	return nil
}

// Unregister moves the endpoint to StateDraining: future sends are
// rejected while already-queued envelopes still flow. The endpoint
// reaches StateUnregistered once its queue empties; an endpoint that was
// never activated is finalized immediately.
func (m *Mailbox) Unregister(id protocol.EndpointID) error {
	if err := m.reg.Drain(id); err != nil {
		return err
	}

	m.mu.RLock()
	q := m.queues[id]
	m.mu.RUnlock()

	if q == nil {
		// Never activated; nothing queued, nothing to drain.
		return m.Finalize(id)
	}
	q.beginDrain()
	return nil
}

// Finalize marks a drained endpoint StateUnregistered and releases its
// queue. Called by the consumer after the queue's backlog is flushed.
func (m *Mailbox) Finalize(id protocol.EndpointID) error {
	if err := m.reg.Finalize(id); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.queues, id)
	m.mu.Unlock()
	return nil
}

// WaitUnregistered blocks until the endpoint reaches StateUnregistered
// or the context is cancelled.
func (m *Mailbox) WaitUnregistered(ctx context.Context, id protocol.EndpointID) error {
	return m.reg.WaitUnregistered(ctx, id)
}

// Send validates the envelope and enqueues it for its destination. Never
// blocks: a full queue fails with ErrMailboxFull. Ownership of the
// payload transfers to the mailbox on a nil return.
func (m *Mailbox) Send(env *protocol.Envelope) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if !env.OpCode.Valid() {
		m.rejected.Add(1)
		return fmt.Errorf("%w: 0x%04X", protocol.ErrInvalidOpcode, uint32(env.OpCode))
	}
	if len(env.Payload) > m.maxPayload {
		m.rejected.Add(1)
		return fmt.Errorf("%w: %d bytes", protocol.ErrPayloadTooLarge, len(env.Payload))
	}

	env.Seq = m.seq.Add(1)
	if m.tracer != nil {
		m.tracer(env)
	}

	if env.Destination == protocol.Broadcast {
		return m.broadcast(env)
	}
	return m.sendOne(env)
}

// Post constructs and sends an envelope in one call.
func (m *Mailbox) Post(op protocol.OpCode, source, destination protocol.EndpointID, payload []byte) error {
	env, err := protocol.New(op, source, destination, payload)
	if err != nil {
		m.rejected.Add(1)
		return err
	}
	return m.Send(env)
}

func (m *Mailbox) sendOne(env *protocol.Envelope) error {
	if _, err := m.reg.Resolve(env.Destination); err != nil {
		m.rejected.Add(1)
		return err
	}

	m.mu.RLock()
	q := m.queues[env.Destination]
	m.mu.RUnlock()

	if q == nil {
		// Registered but not yet activated, or finalized between the
		// resolve and the lookup.
		m.rejected.Add(1)
		st, err := m.reg.State(env.Destination)
		if err != nil || st == registry.StateUnregistered {
			return fmt.Errorf("%w: 0x%02X", registry.ErrNotFound, uint32(env.Destination))
		}
		return ErrNotActive
	}

	if err := q.push(env); err != nil {
		m.rejected.Add(1)
		return err
	}
	m.accepted.Add(1)
	return nil
}

// broadcast expands the envelope to every endpoint that is Active right
// now. Each recipient gets its own payload copy. A full recipient queue
// drops that copy only; the broadcast itself succeeds.
func (m *Mailbox) broadcast(env *protocol.Envelope) error {
	m.broadcasts.Add(1)

	for _, ep := range m.reg.Active() {
		m.mu.RLock()
		q := m.queues[ep.ID()]
		m.mu.RUnlock()
		if q == nil {
			m.broadcastDrops.Add(1)
			continue
		}

		c := env.Clone()
		c.Destination = ep.ID()
		if err := q.push(c); err != nil {
			m.broadcastDrops.Add(1)
			continue
		}
		m.accepted.Add(1)
	}
	return nil
}

// QueueDepth reports the backlog for one destination. Diagnostics only.
func (m *Mailbox) QueueDepth(id protocol.EndpointID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if q := m.queues[id]; q != nil {
		return q.depth()
	}
	return 0
}

// Close refuses new traffic, drains every endpoint to
// StateUnregistered, and returns once the mailbox is fully torn down or
// the context expires.
func (m *Mailbox) Close(ctx context.Context) error {
	if m.closed.Swap(true) {
		return ErrClosed
	}

	live := m.reg.Live()
	for _, ep := range live {
		// Best effort; a concurrent unregister is fine.
		_ = m.Unregister(ep.ID())
	}
	for _, ep := range live {
		if err := m.reg.WaitUnregistered(ctx, ep.ID()); err != nil {
			return fmt.Errorf("draining endpoint %q: %w", ep.Name(), err)
		}
	}
	return nil
}

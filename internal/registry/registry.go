package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/courier/internal/dispatcher/handler"
	"github.com/dshills/courier/internal/protocol"
)

// Registry maps bus addresses to endpoints and serializes all lifecycle
// mutations under one narrow lock. It never guards queue traffic; that
// is the mailbox's job.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[protocol.EndpointID]*Endpoint
	byName    map[string]protocol.EndpointID

	// used records every address ever allocated. Addresses are never
	// handed out twice, even after their holder unregisters.
	used   map[protocol.EndpointID]struct{}
	nextID protocol.EndpointID
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		endpoints: make(map[protocol.EndpointID]*Endpoint),
		byName:    make(map[string]protocol.EndpointID),
		used:      make(map[protocol.EndpointID]struct{}),
	}
}

// Register creates an endpoint in StateRegistered and returns its bus
// address. The hint is honored only if that address was never used;
// otherwise a fresh one is allocated. Two concurrent registrations never
// receive the same address.
func (r *Registry) Register(name string, hint protocol.EndpointID, h handler.Handler) (protocol.EndpointID, error) {
	if h == nil {
		return 0, ErrNilHandler
	}
	if hint == protocol.Broadcast {
		return 0, ErrReservedID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if name != "" {
		if _, taken := r.byName[name]; taken {
			return 0, fmt.Errorf("%w: %q", ErrNameTaken, name)
		}
	}

	id := r.allocateLocked(hint)
	ep := &Endpoint{
		id:      id,
		name:    name,
		handler: h,
		state:   StateRegistered,
		done:    make(chan struct{}),
	}
	r.endpoints[id] = ep
	if name != "" {
		r.byName[name] = id
	}
	return id, nil
}

// allocateLocked picks a never-used address. Caller holds r.mu.
func (r *Registry) allocateLocked(hint protocol.EndpointID) protocol.EndpointID {
	if _, seen := r.used[hint]; !seen && hint != protocol.Broadcast {
		r.used[hint] = struct{}{}
		return hint
	}
	for {
		id := r.nextID
		r.nextID++
		if id == protocol.Broadcast {
			continue
		}
		if _, seen := r.used[id]; seen {
			continue
		}
		r.used[id] = struct{}{}
		return id
	}
}

// Activate moves an endpoint from StateRegistered to StateActive.
func (r *Registry) Activate(id protocol.EndpointID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.endpoints[id]
	if !ok {
		return fmt.Errorf("%w: 0x%02X", ErrNotFound, uint32(id))
	}
	if ep.state != StateRegistered {
		return fmt.Errorf("%w: activate from %s", ErrInvalidTransition, ep.state)
	}
	ep.state = StateActive
	return nil
}

// Drain moves an endpoint to StateDraining so it stops accepting new
// envelopes. Already-queued envelopes still flow until Finalize.
func (r *Registry) Drain(id protocol.EndpointID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.endpoints[id]
	if !ok {
		return fmt.Errorf("%w: 0x%02X", ErrNotFound, uint32(id))
	}
	switch ep.state {
	case StateRegistered, StateActive:
		ep.state = StateDraining
		return nil
	case StateDraining:
		return nil // already draining
	default:
		return fmt.Errorf("%w: drain from %s", ErrInvalidTransition, ep.state)
	}
}

// Finalize moves a draining endpoint to StateUnregistered, frees its
// name, and wakes anyone blocked in WaitUnregistered. The bus address
// stays burned forever.
func (r *Registry) Finalize(id protocol.EndpointID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.endpoints[id]
	if !ok {
		return fmt.Errorf("%w: 0x%02X", ErrNotFound, uint32(id))
	}
	if ep.state != StateDraining {
		return fmt.Errorf("%w: finalize from %s", ErrInvalidTransition, ep.state)
	}
	ep.state = StateUnregistered
	if ep.name != "" {
		delete(r.byName, ep.name)
	}
	close(ep.done)
	return nil
}

// Resolve returns the endpoint at the given address. Unknown and
// unregistered addresses both fail with ErrNotFound: once an endpoint is
// gone it is indistinguishable from one that never existed.
func (r *Registry) Resolve(id protocol.EndpointID) (*Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ep, ok := r.endpoints[id]
	if !ok || ep.state == StateUnregistered {
		return nil, fmt.Errorf("%w: 0x%02X", ErrNotFound, uint32(id))
	}
	return ep, nil
}

// ResolveName returns the bus address registered under name.
func (r *Registry) ResolveName(name string) (protocol.EndpointID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return id, nil
}

// State returns the lifecycle state of an endpoint, including
// unregistered tombstones.
func (r *Registry) State(id protocol.EndpointID) (State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ep, ok := r.endpoints[id]
	if !ok {
		return 0, fmt.Errorf("%w: 0x%02X", ErrNotFound, uint32(id))
	}
	return ep.state, nil
}

// Active returns a snapshot of all endpoints currently in StateActive.
// Broadcast expansion uses this; an endpoint registered after the
// snapshot does not retroactively receive the broadcast.
func (r *Registry) Active() []*Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		if ep.state == StateActive {
			out = append(out, ep)
		}
	}
	return out
}

// Live returns a snapshot of every endpoint that has not reached
// StateUnregistered.
func (r *Registry) Live() []*Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		if ep.state != StateUnregistered {
			out = append(out, ep)
		}
	}
	return out
}

// WaitUnregistered blocks until the endpoint reaches StateUnregistered
// or the context is cancelled. Waiting on an unknown address is an
// error; waiting on an already-unregistered one returns immediately.
func (r *Registry) WaitUnregistered(ctx context.Context, id protocol.EndpointID) error {
	r.mu.RLock()
	ep, ok := r.endpoints[id]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: 0x%02X", ErrNotFound, uint32(id))
	}
	select {
	case <-ep.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

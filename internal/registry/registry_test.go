package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dshills/courier/internal/dispatcher/handler"
	"github.com/dshills/courier/internal/protocol"
)

func nopHandler() handler.Handler {
	return handler.Func(func(context.Context, *protocol.Envelope) handler.Outcome {
		return handler.Handled()
	})
}

func TestRegistry_Register(t *testing.T) {
	r := New()

	id, err := r.Register("core", 0, nopHandler())
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if id != 0 {
		t.Errorf("first hint-0 registration got id %d, want 0", id)
	}

	st, err := r.State(id)
	if err != nil {
		t.Fatalf("State() failed: %v", err)
	}
	if st != StateRegistered {
		t.Errorf("state = %v, want registered", st)
	}
}

func TestRegistry_RegisterNilHandler(t *testing.T) {
	r := New()
	if _, err := r.Register("x", 0, nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("expected ErrNilHandler, got %v", err)
	}
}

func TestRegistry_RegisterBroadcastHint(t *testing.T) {
	r := New()
	if _, err := r.Register("x", protocol.Broadcast, nopHandler()); !errors.Is(err, ErrReservedID) {
		t.Errorf("expected ErrReservedID, got %v", err)
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := New()
	if _, err := r.Register("core", 0, nopHandler()); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if _, err := r.Register("core", 0, nopHandler()); !errors.Is(err, ErrNameTaken) {
		t.Errorf("expected ErrNameTaken, got %v", err)
	}
}

// Addresses must never be reused, even across unregister cycles.
func TestRegistry_IDsNeverReused(t *testing.T) {
	r := New()
	seen := make(map[protocol.EndpointID]bool)

	for i := 0; i < 100; i++ {
		id, err := r.Register("", 0, nopHandler())
		if err != nil {
			t.Fatalf("Register() #%d failed: %v", i, err)
		}
		if seen[id] {
			t.Fatalf("address %d handed out twice", id)
		}
		seen[id] = true

		// Tear the endpoint all the way down between registrations.
		if err := r.Drain(id); err != nil {
			t.Fatalf("Drain() failed: %v", err)
		}
		if err := r.Finalize(id); err != nil {
			t.Fatalf("Finalize() failed: %v", err)
		}
	}
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	r := New()

	const n = 64
	ids := make([]protocol.EndpointID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := r.Register("", 5, nopHandler()) // everyone asks for the same hint
			if err != nil {
				t.Errorf("Register() failed: %v", err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[protocol.EndpointID]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("concurrent registrations shared address %d", id)
		}
		seen[id] = true
	}
}

func TestRegistry_Lifecycle(t *testing.T) {
	r := New()
	id, _ := r.Register("plug", 0, nopHandler())

	if err := r.Activate(id); err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}
	if st, _ := r.State(id); st != StateActive {
		t.Errorf("state = %v, want active", st)
	}

	// Activate is only valid from Registered.
	if err := r.Activate(id); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	if err := r.Drain(id); err != nil {
		t.Fatalf("Drain() failed: %v", err)
	}
	if st, _ := r.State(id); st != StateDraining {
		t.Errorf("state = %v, want draining", st)
	}

	// Draining endpoints still resolve; queued envelopes are in flight.
	if _, err := r.Resolve(id); err != nil {
		t.Errorf("Resolve() during drain failed: %v", err)
	}

	if err := r.Finalize(id); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if _, err := r.Resolve(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after finalize, got %v", err)
	}
}

func TestRegistry_FinalizeRequiresDraining(t *testing.T) {
	r := New()
	id, _ := r.Register("plug", 0, nopHandler())
	if err := r.Finalize(id); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRegistry_ResolveName(t *testing.T) {
	r := New()
	id, _ := r.Register("renderer", 0, nopHandler())

	got, err := r.ResolveName("renderer")
	if err != nil {
		t.Fatalf("ResolveName() failed: %v", err)
	}
	if got != id {
		t.Errorf("ResolveName() = %d, want %d", got, id)
	}

	if _, err := r.ResolveName("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Name frees up after the endpoint is gone.
	r.Drain(id)
	r.Finalize(id)
	if _, err := r.ResolveName("renderer"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after finalize, got %v", err)
	}
	if _, err := r.Register("renderer", 0, nopHandler()); err != nil {
		t.Errorf("re-registering freed name failed: %v", err)
	}
}

func TestRegistry_ActiveSnapshot(t *testing.T) {
	r := New()
	a, _ := r.Register("a", 0, nopHandler())
	b, _ := r.Register("b", 0, nopHandler())
	r.Register("c", 0, nopHandler()) // never activated

	r.Activate(a)
	r.Activate(b)

	active := r.Active()
	if len(active) != 2 {
		t.Fatalf("Active() returned %d endpoints, want 2", len(active))
	}
}

func TestRegistry_WaitUnregistered(t *testing.T) {
	r := New()
	id, _ := r.Register("plug", 0, nopHandler())
	r.Activate(id)
	r.Drain(id)

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		done <- r.WaitUnregistered(ctx, id)
	}()

	time.Sleep(10 * time.Millisecond)
	if err := r.Finalize(id); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if err := <-done; err != nil {
		t.Errorf("WaitUnregistered() failed: %v", err)
	}
}

func TestRegistry_WaitUnregisteredCancel(t *testing.T) {
	r := New()
	id, _ := r.Register("plug", 0, nopHandler())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.WaitUnregistered(ctx, id); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

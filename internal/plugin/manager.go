package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/courier/internal/dispatcher/handler"
	"github.com/dshills/courier/internal/hostapi"
	"github.com/dshills/courier/internal/logging"
	"github.com/dshills/courier/internal/mailbox"
	"github.com/dshills/courier/internal/protocol"
)

// Instance is one loaded plugin.
type Instance struct {
	// ID is a unique instance identifier, fresh for every load.
	ID string

	// Manifest is the manifest the instance was loaded from.
	Manifest *Manifest

	// Endpoint is the instance's bus address.
	Endpoint protocol.EndpointID

	runtime Runtime

	mu    sync.Mutex
	state State
}

// State returns the instance's lifecycle state.
func (in *Instance) State() State {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state
}

func (in *Instance) setState(s State) {
	in.mu.Lock()
	in.state = s
	in.mu.Unlock()
}

// Manager loads and unloads plugins against a mailbox.
type Manager struct {
	mb        *mailbox.Mailbox
	log       *slog.Logger
	factories map[string]Factory

	mu     sync.Mutex
	loaded map[string]*Instance
}

// NewManager creates a manager with no runtimes registered. Callers
// wire kinds with RegisterKind before loading anything.
func NewManager(mb *mailbox.Mailbox, log *slog.Logger) *Manager {
	return &Manager{
		mb:        mb,
		log:       log,
		factories: make(map[string]Factory),
		loaded:    make(map[string]*Instance),
	}
}

// RegisterKind installs the factory for a manifest kind.
func (m *Manager) RegisterKind(kind string, f Factory) {
	m.factories[kind] = f
}

// Load loads the plugin whose manifest lives in dir. On any failure
// the plugin is fully unwound: no endpoint, no instance, no runtime.
func (m *Manager) Load(dir string) (*Instance, error) {
	man, err := LoadManifestFromDir(dir)
	if err != nil {
		return nil, err
	}
	return m.load(man)
}

func (m *Manager) load(man *Manifest) (*Instance, error) {
	m.mu.Lock()
	if _, dup := m.loaded[man.Name]; dup {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrAlreadyLoaded, man.Name)
	}
	m.mu.Unlock()

	factory, ok := m.factories[man.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, man.Kind)
	}

	rt, err := factory(man)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrLoadFailure, man.Name, err)
	}

	in := &Instance{
		ID:       uuid.NewString(),
		Manifest: man,
		runtime:  rt,
		state:    StateLoaded,
	}

	id, err := m.mb.Register(man.Name, man.Endpoint, receiveHandler(rt))
	if err != nil {
		_ = rt.Close()
		in.setState(StateError)
		return nil, fmt.Errorf("%w: %q: %v", ErrLoadFailure, man.Name, err)
	}
	in.Endpoint = id

	hctx := hostapi.New(id, m.mb, logging.ForPlugin(m.log, man.Name, in.ID))
	if err := rt.Init(hctx); err != nil {
		m.unwind(in)
		return nil, fmt.Errorf("%w: %q: %v", ErrInitFailure, man.Name, err)
	}
	in.setState(StateInitialized)

	if err := m.mb.Activate(id); err != nil {
		m.unwind(in)
		return nil, fmt.Errorf("%w: %q: %v", ErrLoadFailure, man.Name, err)
	}
	in.setState(StateActive)

	m.mu.Lock()
	m.loaded[man.Name] = in
	m.mu.Unlock()

	m.log.Info("plugin loaded",
		"plugin", man.Name,
		"version", man.Version,
		"kind", man.Kind,
		"endpoint", uint32(id),
		"instance", in.ID,
	)
	return in, nil
}

// unwind tears down a partially loaded instance. Its endpoint was
// registered but never activated, so the queue is empty and the drain
// completes inline.
func (m *Manager) unwind(in *Instance) {
	if err := m.mb.Unregister(in.Endpoint); err != nil {
		m.log.Warn("unwinding failed plugin", "plugin", in.Manifest.Name, "error", err)
	}
	if err := in.runtime.Close(); err != nil {
		m.log.Warn("closing failed plugin runtime", "plugin", in.Manifest.Name, "error", err)
	}
	in.setState(StateError)
}

// Unload drains the named plugin's endpoint, waits for in-flight
// envelopes to deliver, then closes the runtime.
func (m *Manager) Unload(ctx context.Context, name string) error {
	m.mu.Lock()
	in, ok := m.loaded[name]
	if ok {
		delete(m.loaded, name)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotLoaded, name)
	}

	in.setState(StateDraining)
	if err := m.mb.Unregister(in.Endpoint); err != nil {
		return fmt.Errorf("unloading %q: %w", name, err)
	}
	if err := m.mb.WaitUnregistered(ctx, in.Endpoint); err != nil {
		return fmt.Errorf("unloading %q: %w", name, err)
	}
	if err := in.runtime.Close(); err != nil {
		return fmt.Errorf("unloading %q: %w", name, err)
	}
	in.setState(StateUnloaded)

	m.log.Info("plugin unloaded", "plugin", name, "instance", in.ID)
	return nil
}

// UnloadAll unloads every live plugin. The first error is returned but
// the rest still unload.
func (m *Manager) UnloadAll(ctx context.Context) error {
	m.mu.Lock()
	names := make([]string, 0, len(m.loaded))
	for name := range m.loaded {
		names = append(names, name)
	}
	m.mu.Unlock()

	var first error
	for _, name := range names {
		if err := m.Unload(ctx, name); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Get returns the live instance for name.
func (m *Manager) Get(name string) (*Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.loaded[name]
	return in, ok
}

// Instances returns a snapshot of all live instances.
func (m *Manager) Instances() []*Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Instance, 0, len(m.loaded))
	for _, in := range m.loaded {
		out = append(out, in)
	}
	return out
}

// receiveHandler adapts a runtime to the dispatcher's handler shape.
func receiveHandler(rt Runtime) handler.Handler {
	return handler.Func(func(ctx context.Context, env *protocol.Envelope) handler.Outcome {
		return rt.Receive(ctx, env)
	})
}

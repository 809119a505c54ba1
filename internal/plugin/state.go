package plugin

// State tracks a plugin instance through its lifecycle.
type State int

const (
	// StateLoaded means the runtime exists but owns no endpoint yet.
	StateLoaded State = iota

	// StateInitialized means the initializer ran and the endpoint is
	// registered but not yet receiving.
	StateInitialized

	// StateActive means the plugin is receiving envelopes.
	StateActive

	// StateDraining means unload has begun; queued envelopes still
	// deliver.
	StateDraining

	// StateUnloaded means the runtime is closed and the endpoint gone.
	StateUnloaded

	// StateError means load or init failed and the instance was
	// unwound.
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateInitialized:
		return "initialized"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateUnloaded:
		return "unloaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

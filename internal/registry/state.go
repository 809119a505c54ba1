package registry

// State is the lifecycle state of an endpoint.
type State int

// Endpoint lifecycle states.
const (
	// StateRegistered - the endpoint exists but is not yet accepting
	// traffic.
	StateRegistered State = iota

	// StateActive - the endpoint accepts and receives envelopes.
	StateActive

	// StateDraining - no new envelopes are accepted; already-queued
	// ones still flow.
	StateDraining

	// StateUnregistered - terminal. The queue has fully drained and the
	// endpoint is gone.
	StateUnregistered
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateUnregistered:
		return "unregistered"
	default:
		return "unknown"
	}
}

// Live reports whether the endpoint may still receive queued envelopes.
func (s State) Live() bool {
	return s == StateActive || s == StateDraining
}

package registry

import "errors"

// Sentinel errors for the registry.
var (
	// ErrNotFound is returned when a bus address or name resolves to
	// nothing live.
	ErrNotFound = errors.New("endpoint not found")

	// ErrNameTaken is returned when a registration reuses a name that
	// is still held by a live endpoint.
	ErrNameTaken = errors.New("endpoint name already registered")

	// ErrNilHandler is returned when an endpoint registers without a
	// handler.
	ErrNilHandler = errors.New("endpoint handler cannot be nil")

	// ErrInvalidTransition is returned for lifecycle transitions the
	// state machine does not allow.
	ErrInvalidTransition = errors.New("invalid endpoint state transition")

	// ErrReservedID is returned when a registration hint asks for a
	// reserved bus address.
	ErrReservedID = errors.New("bus address is reserved")
)

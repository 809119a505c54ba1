package protocol

import "errors"

// Sentinel errors for envelope construction and decoding.
var (
	// ErrInvalidOpcode is returned when an opcode falls in a reserved,
	// unassigned range.
	ErrInvalidOpcode = errors.New("opcode outside assigned ranges")

	// ErrPayloadTooLarge is returned when a payload exceeds the maximum
	// envelope size.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum envelope size")

	// ErrTruncatedEnvelope is returned when a wire buffer is shorter
	// than its header claims.
	ErrTruncatedEnvelope = errors.New("envelope buffer shorter than declared length")

	// ErrShortHeader is returned when a wire buffer cannot hold a full
	// envelope header.
	ErrShortHeader = errors.New("buffer too small for envelope header")
)

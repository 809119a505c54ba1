package protocol

import "fmt"

// EndpointID is the bus address of a registered subsystem or plugin.
type EndpointID uint32

// Broadcast is the destination meaning "every live endpoint". The
// registry never allocates it.
const Broadcast EndpointID = 0xFFFFFFFF

// MaxPayload is the hard ceiling on payload size. The mailbox may be
// configured lower but never higher; one misbehaving sender must not be
// able to exhaust memory with a single envelope.
const MaxPayload = 16 << 20

// Envelope is the unit of communication between all parties.
//
// Ownership of Payload transfers to the mailbox on send and to the
// handler on delivery. A handler that needs the bytes beyond the
// handling call must take its own copy.
type Envelope struct {
	// Seq is a process-unique sequence number assigned at send time.
	// It exists for logging and deduplication and is not part of the
	// wire header.
	Seq uint64

	// OpCode selects the operation.
	OpCode OpCode

	// Source is the sender's bus address.
	Source EndpointID

	// Destination is the receiver's bus address, or Broadcast.
	Destination EndpointID

	// Payload is the opaque message body. May be nil for signal-only
	// messages.
	Payload []byte
}

// New constructs an envelope, validating the opcode range and payload
// size. A nil or empty payload is a valid signal-only message.
func New(op OpCode, source, destination EndpointID, payload []byte) (*Envelope, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: 0x%04X", ErrInvalidOpcode, uint32(op))
	}
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	return &Envelope{
		OpCode:      op,
		Source:      source,
		Destination: destination,
		Payload:     payload,
	}, nil
}

// Clone returns a deep copy of the envelope with its own payload buffer.
// Broadcast expansion uses this so each recipient owns its bytes.
func (e *Envelope) Clone() *Envelope {
	c := *e
	if e.Payload != nil {
		c.Payload = make([]byte, len(e.Payload))
		copy(c.Payload, e.Payload)
	}
	return &c
}

// String renders the envelope for logs without dumping the payload.
func (e *Envelope) String() string {
	return fmt.Sprintf("envelope{seq=%d op=%s src=0x%02X dst=0x%02X len=%d}",
		e.Seq, e.OpCode, uint32(e.Source), uint32(e.Destination), len(e.Payload))
}

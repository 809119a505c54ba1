package protocol

import "encoding/binary"

// HeaderSize is the fixed wire header length:
// opcode u32, source u32, destination u32, length u64, little-endian.
//
// This layout is the stability contract between independently compiled
// modules. It must not change within a major version.
const HeaderSize = 4 + 4 + 4 + 8

// MarshalBinary encodes the envelope into the stable wire form: the
// fixed header followed by the payload bytes. Seq is intentionally not
// encoded; it is host-local.
func (e *Envelope) MarshalBinary() ([]byte, error) {
	if !e.OpCode.Valid() {
		return nil, ErrInvalidOpcode
	}
	if len(e.Payload) > MaxPayload {
		return nil, ErrPayloadTooLarge
	}

	buf := make([]byte, HeaderSize+len(e.Payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(e.OpCode))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(e.Source))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(e.Destination))
	binary.LittleEndian.PutUint64(buf[12:20], uint64(len(e.Payload)))
	copy(buf[HeaderSize:], e.Payload)
	return buf, nil
}

// UnmarshalBinary decodes an envelope from its wire form. The payload is
// copied out of data; the caller may reuse the buffer afterward.
func (e *Envelope) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return ErrShortHeader
	}

	length := binary.LittleEndian.Uint64(data[12:20])
	if length > MaxPayload {
		return ErrPayloadTooLarge
	}
	if uint64(len(data)-HeaderSize) < length {
		return ErrTruncatedEnvelope
	}

	op := OpCode(binary.LittleEndian.Uint32(data[0:4]))
	if !op.Valid() {
		return ErrInvalidOpcode
	}

	e.Seq = 0
	e.OpCode = op
	e.Source = EndpointID(binary.LittleEndian.Uint32(data[4:8]))
	e.Destination = EndpointID(binary.LittleEndian.Uint32(data[8:12]))
	if length == 0 {
		e.Payload = nil
		return nil
	}
	e.Payload = make([]byte, length)
	copy(e.Payload, data[HeaderSize:HeaderSize+uint64(length)])
	return nil
}

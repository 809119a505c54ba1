package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestWire_RoundTrip(t *testing.T) {
	env, err := New(0x1002, 0x02, 0x01, []byte("FRAME_DATA"))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	wire, err := env.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() failed: %v", err)
	}
	if len(wire) != HeaderSize+10 {
		t.Fatalf("wire length = %d, want %d", len(wire), HeaderSize+10)
	}

	var got Envelope
	if err := got.UnmarshalBinary(wire); err != nil {
		t.Fatalf("UnmarshalBinary() failed: %v", err)
	}
	if got.OpCode != env.OpCode || got.Source != env.Source || got.Destination != env.Destination {
		t.Errorf("header round-trip mismatch: got %v, want %v", &got, env)
	}
	if !bytes.Equal(got.Payload, env.Payload) {
		t.Errorf("payload round-trip mismatch: got %q", got.Payload)
	}
}

// Payload sizes at the boundaries must survive byte-identically.
func TestWire_PayloadBoundaries(t *testing.T) {
	for _, n := range []int{0, 1, MaxPayload - 1, MaxPayload} {
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(i)
		}

		env, err := New(OpTick, 7, 8, payload)
		if err != nil {
			t.Fatalf("New() with %d bytes failed: %v", n, err)
		}
		wire, err := env.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary() with %d bytes failed: %v", n, err)
		}

		var got Envelope
		if err := got.UnmarshalBinary(wire); err != nil {
			t.Fatalf("UnmarshalBinary() with %d bytes failed: %v", n, err)
		}
		if len(got.Payload) != n {
			t.Fatalf("payload length = %d, want %d", len(got.Payload), n)
		}
		if !bytes.Equal(got.Payload, payload) {
			t.Errorf("payload corrupted at %d bytes", n)
		}
	}
}

// The header layout is an ABI promise: field order, width, and byte order
// are pinned here so an accidental change fails loudly.
func TestWire_HeaderLayout(t *testing.T) {
	env, _ := New(0x3001, 0xAABB, 0xCCDD, []byte{0xFE})
	wire, err := env.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() failed: %v", err)
	}

	if got := binary.LittleEndian.Uint32(wire[0:4]); got != 0x3001 {
		t.Errorf("opcode field = 0x%X, want 0x3001", got)
	}
	if got := binary.LittleEndian.Uint32(wire[4:8]); got != 0xAABB {
		t.Errorf("source field = 0x%X, want 0xAABB", got)
	}
	if got := binary.LittleEndian.Uint32(wire[8:12]); got != 0xCCDD {
		t.Errorf("destination field = 0x%X, want 0xCCDD", got)
	}
	if got := binary.LittleEndian.Uint64(wire[12:20]); got != 1 {
		t.Errorf("length field = %d, want 1", got)
	}
	if wire[20] != 0xFE {
		t.Errorf("payload byte = 0x%X, want 0xFE", wire[20])
	}
}

func TestWire_Truncated(t *testing.T) {
	env, _ := New(OpTick, 1, 2, []byte("hello"))
	wire, _ := env.MarshalBinary()

	var got Envelope
	if err := got.UnmarshalBinary(wire[:HeaderSize+2]); !errors.Is(err, ErrTruncatedEnvelope) {
		t.Errorf("expected ErrTruncatedEnvelope, got %v", err)
	}
	if err := got.UnmarshalBinary(wire[:HeaderSize-1]); !errors.Is(err, ErrShortHeader) {
		t.Errorf("expected ErrShortHeader, got %v", err)
	}
}

func TestWire_ZeroLengthHasNoPayloadBytes(t *testing.T) {
	env, _ := New(OpNoop, 0, 0, nil)
	wire, err := env.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() failed: %v", err)
	}
	if len(wire) != HeaderSize {
		t.Errorf("wire length = %d, want bare header %d", len(wire), HeaderSize)
	}
}

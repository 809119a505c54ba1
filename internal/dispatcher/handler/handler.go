// Package handler provides the handler contract for envelope dispatch.
//
// A handler owns the envelope payload for the duration of the call and
// must not retain it afterward without taking a copy. Handlers must not
// block on unbounded work: long-running work belongs on another
// goroutine that later sends a completion envelope.
package handler

import (
	"context"

	"github.com/dshills/courier/internal/protocol"
)

// Handler processes envelopes delivered to one endpoint.
type Handler interface {
	// Handle processes an envelope and returns a dispatch outcome.
	Handle(ctx context.Context, env *protocol.Envelope) Outcome
}

// Func is a function adapter for Handler.
type Func func(ctx context.Context, env *protocol.Envelope) Outcome

// Handle implements the Handler interface.
func (f Func) Handle(ctx context.Context, env *protocol.Envelope) Outcome {
	return f(ctx, env)
}

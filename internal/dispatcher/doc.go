// Package dispatcher drains destination queues and invokes endpoint
// handlers.
//
// Each destination gets exactly one worker goroutine, so a misbehaving
// handler can stall its own queue but never another destination's. A
// handler panic is recovered per envelope and reported to the
// supervising endpoint as a FAULT envelope; it never takes down the
// worker. Rejected and Deferred outcomes are never retried. Replies,
// acknowledgments, and completions are the handler's business, carried
// in new envelopes.
package dispatcher

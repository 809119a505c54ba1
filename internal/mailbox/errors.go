package mailbox

import "errors"

// Sentinel errors returned synchronously from Send.
var (
	// ErrMailboxFull is returned when the destination queue is at
	// capacity. The send is not queued; the caller decides whether to
	// retry or drop.
	ErrMailboxFull = errors.New("destination queue is full")

	// ErrDraining is returned when the destination no longer accepts
	// new envelopes but is still flushing queued ones.
	ErrDraining = errors.New("destination is draining")

	// ErrNotActive is returned when the destination is registered but
	// has not been activated yet.
	ErrNotActive = errors.New("destination is not active")

	// ErrClosed is returned after the mailbox has been torn down.
	ErrClosed = errors.New("mailbox is closed")

	// ErrNoConsumer is returned when an endpoint is activated before a
	// consumer was bound to drain its queue.
	ErrNoConsumer = errors.New("no consumer bound to mailbox")
)

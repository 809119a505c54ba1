package mailbox

// Stats is a point-in-time snapshot of mailbox counters.
type Stats struct {
	// Accepted counts envelopes enqueued for delivery, including each
	// broadcast fan-out copy.
	Accepted uint64

	// Rejected counts sends that failed synchronously (bad opcode,
	// oversized payload, unknown or non-accepting destination, full
	// queue).
	Rejected uint64

	// Broadcasts counts broadcast send calls.
	Broadcasts uint64

	// BroadcastDrops counts fan-out copies dropped because one
	// recipient's queue was full.
	BroadcastDrops uint64

	// Endpoints is the number of endpoints with an open queue.
	Endpoints int
}

// Stats returns a snapshot of the mailbox counters.
func (m *Mailbox) Stats() Stats {
	m.mu.RLock()
	endpoints := len(m.queues)
	m.mu.RUnlock()

	return Stats{
		Accepted:       m.accepted.Load(),
		Rejected:       m.rejected.Load(),
		Broadcasts:     m.broadcasts.Load(),
		BroadcastDrops: m.broadcastDrops.Load(),
		Endpoints:      endpoints,
	}
}

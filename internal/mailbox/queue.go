package mailbox

import (
	"sync"

	"github.com/dshills/courier/internal/protocol"
)

// queue is one destination's bounded delivery channel. The mutex guards
// the draining flag against the channel close, so a concurrent push can
// never hit a closed channel.
type queue struct {
	mu       sync.Mutex
	ch       chan *protocol.Envelope
	draining bool
}

func newQueue(capacity int) *queue {
	return &queue{ch: make(chan *protocol.Envelope, capacity)}
}

// push enqueues without blocking. Short critical section: a state check
// and a non-blocking channel send.
func (q *queue) push(env *protocol.Envelope) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.draining {
		return ErrDraining
	}
	select {
	case q.ch <- env:
		return nil
	default:
		return ErrMailboxFull
	}
}

// beginDrain rejects all future pushes and closes the channel so the
// consumer's range loop ends after the backlog flushes.
func (q *queue) beginDrain() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.draining {
		return
	}
	q.draining = true
	close(q.ch)
}

// depth reports the number of queued envelopes.
func (q *queue) depth() int {
	return len(q.ch)
}

package mailbox

import "github.com/dshills/courier/internal/protocol"

// Defaults for mailbox configuration.
const (
	// DefaultQueueCapacity bounds each destination queue.
	DefaultQueueCapacity = 256

	// DefaultMaxPayload bounds payload size at send time. Never above
	// protocol.MaxPayload.
	DefaultMaxPayload = 1 << 20
)

// Tracer observes every envelope the mailbox accepts. Used for debug
// traffic logging; must not retain the envelope.
type Tracer func(env *protocol.Envelope)

// Option configures a Mailbox.
type Option func(*Mailbox)

// WithQueueCapacity sets the per-destination queue bound.
func WithQueueCapacity(n int) Option {
	return func(m *Mailbox) {
		if n > 0 {
			m.capacity = n
		}
	}
}

// WithMaxPayload sets the send-time payload size limit, clamped to
// protocol.MaxPayload.
func WithMaxPayload(n int) Option {
	return func(m *Mailbox) {
		if n > 0 && n <= protocol.MaxPayload {
			m.maxPayload = n
		}
	}
}

// WithTracer installs a traffic tracer.
func WithTracer(t Tracer) Option {
	return func(m *Mailbox) {
		m.tracer = t
	}
}

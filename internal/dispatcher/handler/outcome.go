package handler

import "fmt"

// Status classifies a dispatch outcome.
type Status uint8

const (
	// StatusHandled indicates the envelope was processed.
	StatusHandled Status = iota

	// StatusRejected indicates the handler refused the envelope.
	// The dispatcher never retries; if the sender cares, the handler
	// communicates it with a NACK reply envelope.
	StatusRejected

	// StatusDeferred indicates the handler queued the work for later.
	// The dispatcher treats this exactly like Handled; completion is
	// communicated with a follow-up envelope.
	StatusDeferred
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHandled:
		return "handled"
	case StatusRejected:
		return "rejected"
	case StatusDeferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// Outcome is what a handler returns to the dispatcher.
type Outcome struct {
	// Status classifies the outcome.
	Status Status

	// Reason explains a rejection. Empty otherwise.
	Reason string
}

// Handled returns a successful outcome.
func Handled() Outcome {
	return Outcome{Status: StatusHandled}
}

// Deferred returns an outcome for work that will complete later.
func Deferred() Outcome {
	return Outcome{Status: StatusDeferred}
}

// Rejected returns a rejection with a reason.
func Rejected(reason string) Outcome {
	return Outcome{Status: StatusRejected, Reason: reason}
}

// Rejectedf returns a rejection with a formatted reason.
func Rejectedf(format string, args ...any) Outcome {
	return Outcome{Status: StatusRejected, Reason: fmt.Sprintf(format, args...)}
}

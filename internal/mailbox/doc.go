// Package mailbox implements the routing kernel: a process-scoped hub
// that owns the endpoint registry and one bounded delivery queue per
// destination.
//
// Send never blocks. A full queue fails fast with ErrMailboxFull so a
// handler-invoked send can never deadlock the pipeline; callers retry or
// drop. Per destination, envelopes from one source are delivered in send
// order. No ordering is guaranteed across sources.
package mailbox

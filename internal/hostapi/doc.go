// Package hostapi defines the surface the host hands to plugin code.
//
// A Context is bound to one endpoint. Every call it offers goes
// through the mailbox or the host logger, so plugins never touch
// kernel internals and cannot forge a source address.
package hostapi

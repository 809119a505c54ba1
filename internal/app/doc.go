// Package app assembles the Courier runtime: mailbox, dispatcher,
// plugin manager, and the core supervisor endpoint.
package app

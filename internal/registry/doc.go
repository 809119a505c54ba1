// Package registry tracks every subsystem and plugin endpoint known to
// the mailbox: bus-address allocation, name resolution, and the
// Registered -> Active -> Draining -> Unregistered lifecycle.
//
// Bus addresses are never reused while the registry lives, even after
// their holder unregisters, so a stale address can never resolve to a
// newly loaded plugin.
package registry

// Package protocol defines the Courier envelope: the fixed-shape message
// unit exchanged between subsystems and plugins, the opcode space, and the
// binary wire representation that is stable across independently compiled
// plugin modules within a major version.
package protocol

package protocol

import "fmt"

// OpCode identifies the operation an envelope carries.
// The opcode space is partitioned into category-owned ranges; an opcode
// is never reassigned after it ships.
type OpCode uint32

// Well-known system opcodes. These are handled by the core supervisor
// endpoint and must never be claimed by plugins.
const (
	// OpNoop does nothing. Useful for liveness checks.
	OpNoop OpCode = 0

	// OpInit asks the destination to (re)initialize itself.
	OpInit OpCode = 1

	// OpTick advances the destination by one frame or event.
	OpTick OpCode = 2

	// OpReset returns the destination to its initial state.
	OpReset OpCode = 3

	// OpAck acknowledges an earlier envelope. Acknowledgment is an
	// application convention carried in reply envelopes; the kernel
	// never sends it on a handler's behalf.
	OpAck OpCode = 4

	// OpNack is the negative counterpart to OpAck.
	OpNack OpCode = 5

	// OpFault reports an isolated handler failure to the supervisor.
	OpFault OpCode = 6

	// OpLoadPlugin asks the supervisor to load a plugin module.
	// The payload is the module path.
	OpLoadPlugin OpCode = 8

	// OpProbe asks the supervisor for a stats report. The supervisor
	// replies with OpAck carrying a JSON body.
	OpProbe OpCode = 9
)

// Category-owned opcode ranges. Anything outside these is reserved.
const (
	SystemMin OpCode = 0x0000
	SystemMax OpCode = 0x0FFF
	RenderMin OpCode = 0x1000
	RenderMax OpCode = 0x1FFF
	UIMin     OpCode = 0x2000
	UIMax     OpCode = 0x2FFF
	AudioMin  OpCode = 0x3000
	AudioMax  OpCode = 0x3FFF
	PluginMin OpCode = 0x8000
	PluginMax OpCode = 0xFFFF
)

// Category names the owner of an opcode range.
type Category int

// Opcode categories.
const (
	CategorySystem Category = iota
	CategoryRender
	CategoryUI
	CategoryAudio
	CategoryPlugin
	CategoryReserved
)

// String returns a human-readable category name.
func (c Category) String() string {
	switch c {
	case CategorySystem:
		return "system"
	case CategoryRender:
		return "render"
	case CategoryUI:
		return "ui"
	case CategoryAudio:
		return "audio"
	case CategoryPlugin:
		return "plugin"
	default:
		return "reserved"
	}
}

// Category returns the category owning this opcode.
func (op OpCode) Category() Category {
	switch {
	case op <= SystemMax:
		return CategorySystem
	case op >= RenderMin && op <= RenderMax:
		return CategoryRender
	case op >= UIMin && op <= UIMax:
		return CategoryUI
	case op >= AudioMin && op <= AudioMax:
		return CategoryAudio
	case op >= PluginMin && op <= PluginMax:
		return CategoryPlugin
	default:
		return CategoryReserved
	}
}

// Valid reports whether the opcode falls inside an assigned range.
func (op OpCode) Valid() bool {
	return op.Category() != CategoryReserved
}

// opNames maps system opcodes to names for logging and diagnostics.
var opNames = map[OpCode]string{
	OpNoop:       "NOOP",
	OpInit:       "INIT",
	OpTick:       "TICK",
	OpReset:      "RESET",
	OpAck:        "ACK",
	OpNack:       "NACK",
	OpFault:      "FAULT",
	OpLoadPlugin: "LOAD_PLUGIN",
	OpProbe:      "PROBE",
}

// String returns the well-known name for system opcodes and a
// category-prefixed hex form for everything else.
func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("%s:0x%04X", op.Category(), uint32(op))
}

package logging

import (
	"encoding/hex"
	"log/slog"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/match"
	"github.com/tidwall/pretty"

	"github.com/dshills/courier/internal/mailbox"
	"github.com/dshills/courier/internal/protocol"
)

// previewLimit caps the payload preview attached to trace records.
const previewLimit = 256

// NewTracer returns a mailbox tracer that logs every accepted envelope
// at debug level. filter is a glob pattern matched against opcode names
// ("SYS_*", "FRAME_DATA"); an empty pattern or "*" traces everything.
func NewTracer(l *slog.Logger, filter string) mailbox.Tracer {
	return func(env *protocol.Envelope) {
		name := env.OpCode.String()
		if filter != "" && filter != "*" && !match.Match(name, filter) {
			return
		}
		l.Debug("envelope",
			"seq", env.Seq,
			"opcode", name,
			"category", env.OpCode.Category().String(),
			"source", uint32(env.Source),
			"destination", uint32(env.Destination),
			"broadcast", env.Destination == protocol.Broadcast,
			"length", len(env.Payload),
			"payload", payloadPreview(env.Payload),
		)
	}
}

// payloadPreview renders a short human-readable form of the payload.
// JSON payloads are compacted, printable text is passed through, and
// anything else is hex encoded.
func payloadPreview(p []byte) string {
	if len(p) == 0 {
		return ""
	}
	if gjson.ValidBytes(p) && (p[0] == '{' || p[0] == '[') {
		p = pretty.Ugly(p)
		return truncate(string(p))
	}
	if utf8.Valid(p) && printable(p) {
		return truncate(string(p))
	}
	return truncate(hex.EncodeToString(p))
}

func printable(p []byte) bool {
	for _, b := range p {
		if b < 0x20 && b != '\n' && b != '\t' {
			return false
		}
	}
	return true
}

func truncate(s string) string {
	if len(s) <= previewLimit {
		return s
	}
	return s[:previewLimit] + "..."
}

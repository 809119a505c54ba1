package app

import (
	"context"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/courier/internal/dispatcher/handler"
	"github.com/dshills/courier/internal/protocol"
)

// coreHandler is the supervisor endpoint. It loads plugins on request,
// answers probes with a stats report, and logs faults raised by the
// dispatcher.
func (a *App) coreHandler() handler.Handler {
	return handler.Func(func(ctx context.Context, env *protocol.Envelope) handler.Outcome {
		switch env.OpCode {
		case protocol.OpNoop:
			return handler.Handled()

		case protocol.OpInit:
			a.log.Info("core initialized")
			return handler.Handled()

		case protocol.OpTick, protocol.OpReset:
			return handler.Handled()

		case protocol.OpAck, protocol.OpNack:
			// Replies to earlier core sends. Nothing to do.
			return handler.Handled()

		case protocol.OpLoadPlugin:
			return a.handleLoadPlugin(env)

		case protocol.OpProbe:
			return a.handleProbe(env)

		case protocol.OpFault:
			return a.handleFault(env)

		default:
			return handler.Rejectedf("core does not handle %s", env.OpCode)
		}
	})
}

// handleLoadPlugin loads the plugin directory named by the payload and
// replies to the requester with ACK or NACK.
func (a *App) handleLoadPlugin(env *protocol.Envelope) handler.Outcome {
	dir := string(env.Payload)
	in, err := a.mgr.Load(dir)
	if err != nil {
		a.log.Error("load request failed", "dir", dir, "error", err)
		a.reply(env, protocol.OpNack, a.nackBody(err))
		return handler.Rejected(err.Error())
	}

	body, _ := sjson.SetBytes(nil, "plugin", in.Manifest.Name)
	body, _ = sjson.SetBytes(body, "endpoint", uint32(in.Endpoint))
	a.reply(env, protocol.OpAck, body)
	return handler.Handled()
}

// handleProbe replies with a JSON stats report.
func (a *App) handleProbe(env *protocol.Envelope) handler.Outcome {
	mbs := a.mb.Stats()
	ds := a.disp.Stats()

	body, _ := sjson.SetBytes(nil, "mailbox.accepted", mbs.Accepted)
	body, _ = sjson.SetBytes(body, "mailbox.rejected", mbs.Rejected)
	body, _ = sjson.SetBytes(body, "mailbox.broadcasts", mbs.Broadcasts)
	body, _ = sjson.SetBytes(body, "mailbox.broadcast_drops", mbs.BroadcastDrops)
	body, _ = sjson.SetBytes(body, "mailbox.endpoints", mbs.Endpoints)
	body, _ = sjson.SetBytes(body, "dispatcher.delivered", ds.Delivered)
	body, _ = sjson.SetBytes(body, "dispatcher.handled", ds.Handled)
	body, _ = sjson.SetBytes(body, "dispatcher.rejected", ds.Rejected)
	body, _ = sjson.SetBytes(body, "dispatcher.deferred", ds.Deferred)
	body, _ = sjson.SetBytes(body, "dispatcher.faults", ds.Faults)

	for _, in := range a.mgr.Instances() {
		body, _ = sjson.SetBytes(body, "plugins.-1", map[string]any{
			"name":     in.Manifest.Name,
			"state":    in.State().String(),
			"endpoint": uint32(in.Endpoint),
		})
	}

	a.reply(env, protocol.OpAck, body)
	return handler.Handled()
}

// handleFault logs a dispatcher fault report for the operator.
func (a *App) handleFault(env *protocol.Envelope) handler.Outcome {
	doc := gjson.ParseBytes(env.Payload)
	a.log.Error("endpoint fault",
		"endpoint", doc.Get("endpoint").Uint(),
		"name", doc.Get("name").String(),
		"opcode", doc.Get("opcode").String(),
		"seq", doc.Get("seq").Uint(),
		"panic", doc.Get("panic").String(),
	)
	return handler.Handled()
}

// reply sends a response envelope back to the requester. Replies to
// the core itself or to vanished endpoints are dropped.
func (a *App) reply(env *protocol.Envelope, op protocol.OpCode, body []byte) {
	if env.Source == a.core {
		return
	}
	if err := a.mb.Post(op, a.core, env.Source, body); err != nil {
		a.log.Debug("dropping reply", "to", uint32(env.Source), "error", err)
	}
}

func (a *App) nackBody(err error) []byte {
	body, _ := sjson.SetBytes(nil, "error", err.Error())
	return body
}

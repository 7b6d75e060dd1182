package orch

import (
	"errors"

	"github.com/dkeye/VideoRoom/internal/app"
	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/rs/zerolog/log"
)

// send is best effort: failures are logged and handed to the back-pressure policy.
func (o *Orchestrator) send(sid core.SessionID, msg core.Message) bool {
	sig, ok := o.Registry.Signal(sid)
	if !ok || sig == nil {
		return false
	}
	err := sig.TrySend(msg)
	switch {
	case err == nil:
		return true
	case errors.Is(err, core.ErrBackpressure):
		o.onBackpressure(sid, msg)
	default:
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("type", msg.Type()).Msg("send failed")
	}
	return false
}

// broadcast sends msg to every member except the given one.
func (o *Orchestrator) broadcast(members []core.SessionID, except core.SessionID, msg core.Message) int {
	n := 0
	for _, sid := range members {
		if sid == except {
			continue
		}
		if o.send(sid, msg) {
			n++
		}
	}
	return n
}

func (o *Orchestrator) sendError(sid core.SessionID, err error) {
	o.send(sid, ErrorMessage(err))
}

func (o *Orchestrator) onBackpressure(sid core.SessionID, msg core.Message) {
	action := app.DropMessage
	if o.Policy != nil {
		action = o.Policy.OnBackPressure(sid, msg)
	}
	log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("type", msg.Type()).
		Str("action", action.String()).Msg("outbound buffer full")
	if action == app.KickSession {
		o.Registry.Cancel(sid)
	}
}

package orch

import (
	"context"
	"errors"

	"github.com/dkeye/VideoRoom/internal/app/relay"
	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/dkeye/VideoRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) handleSignal(ctx context.Context, sid core.SessionID, kind relay.Kind, in core.Inbound) error {
	if in.TargetID == "" {
		return domain.ErrMissingTarget
	}
	target := core.SessionID(in.TargetID)

	payload := core.Message{}
	switch kind {
	case relay.Offer, relay.Answer:
		payload["sdp"] = in.SDP
	case relay.ICECandidate:
		payload["candidate"] = in.Candidate
	}

	if kind == relay.Offer && o.TrackLinks && o.Registry.IsOpen(target) {
		if _, err := o.Relay.EnsurePeerLink(ctx, sid, target); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("target", string(target)).
				Msg("peer link not tracked")
		}
	}

	err := o.Relay.Relay(kind, sid, target, payload)
	switch {
	case err == nil, errors.Is(err, domain.ErrTargetOffline):
	case errors.Is(err, core.ErrBackpressure):
		o.onBackpressure(target, core.Message{"type": string(kind)})
	default:
		log.Error().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("target", string(target)).Msg("relay failed")
	}
	return nil
}

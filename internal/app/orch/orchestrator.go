package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/VideoRoom/internal/app"
	"github.com/dkeye/VideoRoom/internal/app/recording"
	"github.com/dkeye/VideoRoom/internal/app/relay"
	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/dkeye/VideoRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Orchestrator routes inbound client events to the registries, the relay and the
// recorder, and fans notifications back out.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.RoomManager
	Relay    *relay.Relay
	Recorder *recording.Coordinator
	Policy   app.Policy

	// DefaultRoom is used by join_room events without a room id.
	DefaultRoom domain.RoomID
	// TrackLinks makes every relayed offer ensure a peer link for the pair.
	TrackLinks bool
}

// Connect registers a new session. cancel aborts its connection when the
// back-pressure policy kicks it.
func (o *Orchestrator) Connect(sid core.SessionID, sig core.SignalConnection, cancel context.CancelFunc, clientToken string) (core.SessionInfo, error) {
	info, err := o.Registry.Register(sid, sig, cancel, clientToken)
	if err != nil {
		return core.SessionInfo{}, fmt.Errorf("connect %s: %w", sid, err)
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("session connected")
	return info, nil
}

// Dispatch handles one decoded event. Errors go back to the sender only and never
// end the connection.
func (o *Orchestrator) Dispatch(ctx context.Context, sid core.SessionID, in core.Inbound) {
	var err error
	switch in.Type {
	case core.EventJoinRoom:
		err = o.handleJoin(sid, in)
	case core.EventLeaveRoom:
		err = o.handleLeave(sid)
	case core.EventOffer, core.EventAnswer, core.EventICECandidate:
		err = o.handleSignal(ctx, sid, relay.Kind(in.Type), in)
	case core.EventStartRecording:
		err = o.handleStartRecording(ctx, sid)
	case core.EventStopRecording:
		err = o.handleStopRecording(sid)
	default:
		err = fmt.Errorf("%w: %q", domain.ErrUnknownEventKind, in.Type)
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("type", in.Type).Msg("event rejected")
		o.sendError(sid, err)
	}
}

// Disconnect is the canonical teardown: leave with broadcast, recording cleanup
// for a deleted room, peer-link cleanup, then unregister.
func (o *Orchestrator) Disconnect(sid core.SessionID) {
	if res, ok := o.Rooms.Leave(sid); ok {
		o.afterLeave(sid, res)
	} else {
		o.Relay.CloseAllLinksFor(sid)
	}
	o.Registry.Unregister(sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("session disconnected")
}

// Shutdown tears down every live session and waits for peer-link watchers.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	sessions := o.Registry.All()
	for _, s := range sessions {
		o.Disconnect(s.ID)
	}
	log.Info().Str("module", "orch").Int("sessions", len(sessions)).Msg("all sessions torn down")

	done := make(chan struct{})
	go func() {
		o.Relay.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Stats struct {
	Connections app.ConnectionStats `json:"connections"`
	Rooms       app.RoomStats       `json:"rooms"`
	WebRTC      relay.Stats         `json:"webrtc"`
	Recordings  recording.Stats     `json:"recordings"`
}

func (o *Orchestrator) Stats() Stats {
	return Stats{
		Connections: o.Registry.Stats(),
		Rooms:       o.Rooms.Stats(),
		WebRTC:      o.Relay.Stats(),
		Recordings:  o.Recorder.Stats(),
	}
}

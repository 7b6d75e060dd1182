package orch

import (
	"github.com/dkeye/VideoRoom/internal/app"
	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/dkeye/VideoRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) handleJoin(sid core.SessionID, in core.Inbound) error {
	raw := in.RoomID
	if raw == "" {
		raw = string(o.DefaultRoom)
	}
	roomID, err := domain.NewRoomID(raw)
	if err != nil {
		return err
	}

	res, err := o.Rooms.JoinWithCapacity(sid, roomID, in.MaxUsers)
	if err != nil {
		return err
	}
	if res.Left != nil {
		o.afterLeave(sid, *res.Left)
	}

	o.send(sid, roomJoined(res.Room, sid))
	o.broadcast(res.Room.Members, sid, userJoined(sid, res.Room.MemberCount()))
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).
		Int("members", res.Room.MemberCount()).Int("max_users", res.Room.MaxUsers).Msg("user joined")
	return nil
}

func (o *Orchestrator) handleLeave(sid core.SessionID) error {
	res, ok := o.Rooms.Leave(sid)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("leave without a room")
		return nil
	}
	o.afterLeave(sid, res)
	o.send(sid, roomLeft(res.RoomID))
	return nil
}

// afterLeave runs the steps that follow a membership removal, in teardown order.
func (o *Orchestrator) afterLeave(sid core.SessionID, res app.LeaveResult) {
	o.broadcast(res.Remaining, sid, userLeft(sid))
	if res.Deleted {
		o.Recorder.CleanupRoom(res.RoomID)
	}
	o.Relay.CloseAllLinksFor(sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(res.RoomID)).
		Bool("room_deleted", res.Deleted).Msg("user left")
}

// Kick removes a session from its room as if it sent leave_room; it stays connected.
func (o *Orchestrator) Kick(sid core.SessionID) error {
	if !o.Registry.Exists(sid) {
		return domain.ErrSessionNotFound
	}
	if _, ok := o.Registry.RoomOf(sid); !ok {
		return domain.ErrNotInRoom
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("kicked from room")
	return o.handleLeave(sid)
}

// EvictRoom deletes the room and notifies every former member.
func (o *Orchestrator) EvictRoom(id domain.RoomID) (int, error) {
	info, ok := o.Rooms.ForceCleanup(id)
	if !ok {
		return 0, domain.ErrRoomNotFound
	}
	for _, sid := range info.Members {
		o.send(sid, roomLeft(id))
		o.broadcast(info.Members, sid, userLeft(sid))
	}
	o.Recorder.CleanupRoom(id)
	for _, sid := range info.Members {
		o.Relay.CloseAllLinksFor(sid)
	}
	log.Info().Str("module", "orch").Str("room", string(id)).Int("members", len(info.Members)).Msg("room evicted")
	return len(info.Members), nil
}

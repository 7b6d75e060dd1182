package orch

import (
	"context"

	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/dkeye/VideoRoom/internal/domain"
)

func (o *Orchestrator) handleStartRecording(ctx context.Context, sid core.SessionID) error {
	roomID, ok := o.Registry.RoomOf(sid)
	if !ok {
		return domain.ErrNotInRoom
	}
	folder, err := o.Recorder.Start(ctx, roomID)
	if err != nil {
		return err
	}
	o.send(sid, recordingStarted(folder, roomID))
	o.broadcast(o.Rooms.MembersOf(roomID), "", recordingStatus("started", folder))
	return nil
}

func (o *Orchestrator) handleStopRecording(sid core.SessionID) error {
	roomID, ok := o.Registry.RoomOf(sid)
	if !ok {
		return domain.ErrNotInRoom
	}
	rec, ok := o.Recorder.Stop(roomID)
	if !ok {
		return domain.ErrNoActiveRecording
	}
	o.send(sid, recordingStopped(rec))

	status := recordingStatus("stopped", rec.FolderID)
	status["duration"], _ = rec.DurationSeconds()
	o.broadcast(o.Rooms.MembersOf(roomID), "", status)
	return nil
}

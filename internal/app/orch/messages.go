package orch

import (
	"errors"

	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/dkeye/VideoRoom/internal/domain"
)

func roomJoined(room core.RoomInfo, sid core.SessionID) core.Message {
	return core.Message{
		"type":           core.MsgRoomJoined,
		"room_id":        string(room.ID),
		"user_id":        string(sid),
		"session_id":     string(room.FolderID),
		"existing_users": room.Others(sid),
		"max_users":      room.MaxUsers,
	}
}

func userJoined(sid core.SessionID, count int) core.Message {
	return core.Message{"type": core.MsgUserJoined, "user_id": string(sid), "user_count": count}
}

func userLeft(sid core.SessionID) core.Message {
	return core.Message{"type": core.MsgUserLeft, "user_id": string(sid)}
}

func roomLeft(id domain.RoomID) core.Message {
	return core.Message{"type": core.MsgRoomLeft, "room_id": string(id)}
}

func recordingStarted(folder domain.FolderID, id domain.RoomID) core.Message {
	return core.Message{"type": core.MsgRecordingStarted, "session_id": string(folder), "room_id": string(id)}
}

func recordingStopped(rec *domain.RecordingSession) core.Message {
	secs, _ := rec.DurationSeconds()
	return core.Message{"type": core.MsgRecordingStopped, "session_id": string(rec.FolderID), "duration": secs}
}

func recordingStatus(status string, folder domain.FolderID) core.Message {
	return core.Message{"type": core.MsgRecordingStatus, "status": status, "session_id": string(folder)}
}

// ErrorMessage is the outbound shape of every rejected event.
func ErrorMessage(err error) core.Message {
	return core.Message{"type": core.MsgError, "code": domain.ErrorCode(err), "message": errorText(err)}
}

func errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomFull):
		return "Room is full or unavailable"
	case errors.Is(err, domain.ErrNotInRoom):
		return "Not in a room"
	case errors.Is(err, domain.ErrNoActiveRecording):
		return "No active recording found"
	case errors.Is(err, domain.ErrMissingTarget):
		return "Missing target_id"
	case domain.ErrorCode(err) == "internal":
		return "Internal error"
	default:
		return err.Error()
	}
}

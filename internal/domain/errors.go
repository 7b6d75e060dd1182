package domain

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrDuplicateSession  = errors.New("duplicate session")
	ErrMissingTarget     = errors.New("missing target_id")
	ErrUnknownEventKind  = errors.New("unknown message type")
	ErrStorageFailure    = errors.New("storage failure")
	ErrSessionNotFound   = errors.New("session not found")
	ErrNotInRoom         = errors.New("not in a room")
	ErrNoActiveRecording = errors.New("no active recording found")
	ErrTargetOffline     = errors.New("target offline")
	ErrInvalidMessage    = errors.New("invalid message format")
	ErrRateLimited       = errors.New("too many requests")
	ErrInvalidFile       = errors.New("invalid file")
	ErrInvalidFolder     = errors.New("invalid session id")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrRoomNotFound, "room_not_found"},
	{ErrRoomFull, "room_full"},
	{ErrDuplicateSession, "duplicate_session"},
	{ErrMissingTarget, "missing_target"},
	{ErrUnknownEventKind, "unknown_event"},
	{ErrStorageFailure, "storage_failure"},
	{ErrSessionNotFound, "session_not_found"},
	{ErrNotInRoom, "not_in_room"},
	{ErrNoActiveRecording, "no_active_recording"},
	{ErrInvalidMessage, "invalid_message"},
	{ErrRateLimited, "rate_limited"},
	{ErrInvalidFile, "invalid_file"},
	{ErrInvalidFolder, "invalid_session_id"},
	{ErrRoomIDEmpty, "invalid_room"},
	{ErrRoomIDTooLong, "invalid_room"},
}

// ErrorCode maps an error onto the code sent in outbound error messages.
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}

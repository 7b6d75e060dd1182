package domain

import (
	"strings"
	"time"
)

type RecordingStatus string

const (
	RecordingActive  RecordingStatus = "active"
	RecordingStopped RecordingStatus = "stopped"
	RecordingError   RecordingStatus = "error"
)

// StoppedWith is the terminal status of a recording that was ended by the system.
func StoppedWith(reason string) RecordingStatus {
	return RecordingStatus(string(RecordingStopped) + " (" + reason + ")")
}

func (s RecordingStatus) IsStopped() bool {
	return strings.HasPrefix(string(s), string(RecordingStopped))
}

// RecordingSession references its room by value so it outlives the room.
type RecordingSession struct {
	FolderID  FolderID        `json:"session_id"`
	RoomID    RoomID          `json:"room_id"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   *time.Time      `json:"ended_at,omitempty"`
	Status    RecordingStatus `json:"status"`
	Files     []string        `json:"files"`
}

// Duration is only known once the session has ended.
func (r *RecordingSession) Duration() (time.Duration, bool) {
	if r.EndedAt == nil {
		return 0, false
	}
	return r.EndedAt.Sub(r.StartedAt), true
}

func (r *RecordingSession) DurationSeconds() (float64, bool) {
	d, ok := r.Duration()
	if !ok {
		return 0, false
	}
	return d.Seconds(), true
}

// IsActive holds until the session is ended; an error status does not end it.
func (r *RecordingSession) IsActive() bool {
	return r.EndedAt == nil
}

// Clone returns a deep copy safe to hand out of the coordinator.
func (r *RecordingSession) Clone() *RecordingSession {
	out := *r
	if r.EndedAt != nil {
		t := *r.EndedAt
		out.EndedAt = &t
	}
	out.Files = append([]string(nil), r.Files...)
	return &out
}

package core

import (
	"time"

	"github.com/dkeye/VideoRoom/internal/domain"
)

type SessionID string

// SessionInfo is a point-in-time view of a live session.
type SessionInfo struct {
	ID          SessionID     `json:"id"`
	ClientToken string        `json:"-"`
	RoomID      domain.RoomID `json:"room_id,omitempty"`
	Peers       []SessionID   `json:"peers"`
	Open        bool          `json:"open"`
	CreatedAt   time.Time     `json:"created_at"`
}

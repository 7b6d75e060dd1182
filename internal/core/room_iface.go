package core

import (
	"github.com/dkeye/VideoRoom/internal/domain"
)

// RoomInfo is a read-only snapshot of a room; Members keeps insertion order.
type RoomInfo struct {
	domain.Room
	Members []SessionID `json:"members"`
}

func (r RoomInfo) MemberCount() int { return len(r.Members) }

func (r RoomInfo) IsFull() bool { return len(r.Members) >= r.MaxUsers }

// Others returns the members except sid, preserving order.
func (r RoomInfo) Others(sid SessionID) []SessionID {
	out := make([]SessionID, 0, len(r.Members))
	for _, m := range r.Members {
		if m != sid {
			out = append(out, m)
		}
	}
	return out
}

// RoomLookup is the read side of the room registry.
type RoomLookup interface {
	Get(id domain.RoomID) (RoomInfo, bool)
}

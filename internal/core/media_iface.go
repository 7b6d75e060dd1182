package core

import (
	"context"
)

type PeerState int32

const (
	PeerStateNew PeerState = iota
	PeerStateConnecting
	PeerStateConnected
	PeerStateFailed
	PeerStateClosed
)

func (s PeerState) String() string {
	switch s {
	case PeerStateNew:
		return "new"
	case PeerStateConnecting:
		return "connecting"
	case PeerStateConnected:
		return "connected"
	case PeerStateFailed:
		return "failed"
	case PeerStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal states always trigger link cleanup.
func (s PeerState) Terminal() bool {
	return s == PeerStateFailed || s == PeerStateClosed
}

// PeerHandle is the engine-provided object behind one directed peer link.
type PeerHandle interface {
	// Close releases engine resources and closes the Events channel. Safe to call twice.
	Close() error
	State() PeerState
	// Events delivers state changes until the handle is closed.
	Events() <-chan PeerState
}

// PeerEngine creates peer handles; the engine itself is a black box.
type PeerEngine interface {
	CreateHandle(ctx context.Context, owner, peer SessionID) (PeerHandle, error)
}

package app

import (
	"fmt"
	"strings"

	"github.com/dkeye/VideoRoom/internal/core"
)

type BackpressureAction int

const (
	DropMessage BackpressureAction = iota
	KickSession
)

func (a BackpressureAction) String() string {
	switch a {
	case KickSession:
		return "kick"
	default:
		return "drop"
	}
}

// Policy decides what happens to a session whose outbound buffer is full.
type Policy interface {
	OnBackPressure(sid core.SessionID, msg core.Message) BackpressureAction
}

// SimplePolicy applies the same action to every message.
type SimplePolicy struct {
	Action BackpressureAction
}

func (p SimplePolicy) OnBackPressure(core.SessionID, core.Message) BackpressureAction {
	return p.Action
}

// SignalingPolicy never kicks over a dropped ICE candidate (clients resend them)
// and applies Action to everything else.
type SignalingPolicy struct {
	Action BackpressureAction
}

func (p SignalingPolicy) OnBackPressure(_ core.SessionID, msg core.Message) BackpressureAction {
	if msg.Type() == core.EventICECandidate {
		return DropMessage
	}
	return p.Action
}

func PolicyFromString(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return SimplePolicy{Action: DropMessage}, nil
	case "kick":
		return SignalingPolicy{Action: KickSession}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", s)
	}
}

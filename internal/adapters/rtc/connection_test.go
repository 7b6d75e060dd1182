package rtc

import (
	"context"
	"testing"
	"time"

	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/pion/webrtc/v4"
)

func TestMapState(t *testing.T) {
	tests := []struct {
		in   webrtc.PeerConnectionState
		want core.PeerState
	}{
		{webrtc.PeerConnectionStateNew, core.PeerStateNew},
		{webrtc.PeerConnectionStateConnecting, core.PeerStateConnecting},
		{webrtc.PeerConnectionStateDisconnected, core.PeerStateConnecting},
		{webrtc.PeerConnectionStateConnected, core.PeerStateConnected},
		{webrtc.PeerConnectionStateFailed, core.PeerStateFailed},
		{webrtc.PeerConnectionStateClosed, core.PeerStateClosed},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			if got := MapState(tt.in); got != tt.want {
				t.Fatalf("MapState(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestConfigFromURLs(t *testing.T) {
	cfg := DefaultWebRTCConfig()
	if len(cfg.ICEServers) != 2 || cfg.ICEServers[0].URLs[0] != "stun:stun.l.google.com:19302" {
		t.Fatalf("default ICE servers %+v", cfg.ICEServers)
	}
	if n := NewEngine(ConfigFromURLs(nil)).ICEServers(); n != 0 {
		t.Fatalf("empty config has %d servers", n)
	}
}

func TestHandleCloseIsIdempotent(t *testing.T) {
	e := NewEngine(webrtc.Configuration{})
	h, err := e.CreateHandle(context.Background(), "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if h.State() != core.PeerStateNew {
		t.Fatalf("initial state %s", h.State())
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if h.State() != core.PeerStateClosed {
		t.Fatalf("state after close %s", h.State())
	}
	for range h.Events() {
	}
}

func TestHandleClosedWithContext(t *testing.T) {
	e := NewEngine(webrtc.Configuration{})
	ctx, cancel := context.WithCancel(context.Background())
	h, err := e.CreateHandle(ctx, "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		for range h.Events() {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after context cancel")
	}
}

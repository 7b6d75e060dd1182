package rtc

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

const eventBuffer = 16

func DefaultWebRTCConfig() webrtc.Configuration {
	return ConfigFromURLs([]string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"})
}

// ConfigFromURLs builds a configuration with one ICE server per url.
func ConfigFromURLs(urls []string) webrtc.Configuration {
	cfg := webrtc.Configuration{}
	for _, u := range urls {
		cfg.ICEServers = append(cfg.ICEServers, webrtc.ICEServer{URLs: []string{u}})
	}
	return cfg
}

// Engine creates one pion PeerConnection per directed session pair.
type Engine struct {
	cfg webrtc.Configuration
}

func NewEngine(cfg webrtc.Configuration) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) ICEServers() int { return len(e.cfg.ICEServers) }

// CreateHandle opens a PeerConnection that is closed when ctx ends.
func (e *Engine) CreateHandle(ctx context.Context, owner, peer core.SessionID) (core.PeerHandle, error) {
	pc, err := webrtc.NewPeerConnection(e.cfg)
	if err != nil {
		return nil, err
	}
	c := &WebRTCConnection{
		pc:     pc,
		owner:  owner,
		peer:   peer,
		events: make(chan core.PeerState, eventBuffer),
	}

	pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Debug().Str("module", "webrtc").Str("sid", string(owner)).Str("target", string(peer)).
			Str("ice_state", s.String()).Msg("ICE state")
	})
	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "webrtc").Str("sid", string(owner)).Str("target", string(peer)).
			Str("peer_connection_state", s.String()).Msg("Peer state")
		c.emit(MapState(s))
	})

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	c.mu.Lock()
	c.stop = stop
	c.mu.Unlock()
	return c, nil
}

// MapState folds pion's connection states onto the link state machine.
// Disconnected may still recover, so it counts as connecting.
func MapState(s webrtc.PeerConnectionState) core.PeerState {
	switch s {
	case webrtc.PeerConnectionStateConnecting, webrtc.PeerConnectionStateDisconnected:
		return core.PeerStateConnecting
	case webrtc.PeerConnectionStateConnected:
		return core.PeerStateConnected
	case webrtc.PeerConnectionStateFailed:
		return core.PeerStateFailed
	case webrtc.PeerConnectionStateClosed:
		return core.PeerStateClosed
	default:
		return core.PeerStateNew
	}
}

// WebRTCConnection is the pion-backed peer handle.
type WebRTCConnection struct {
	pc          *webrtc.PeerConnection
	owner, peer core.SessionID

	state atomic.Int32

	mu     sync.Mutex
	events chan core.PeerState
	closed bool
	stop   func() bool
	once   sync.Once
}

func (c *WebRTCConnection) emit(s core.PeerState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.state.Store(int32(s))
	select {
	case c.events <- s:
	default:
		log.Warn().Str("module", "webrtc").Str("sid", string(c.owner)).Str("target", string(c.peer)).
			Str("state", s.String()).Msg("state event dropped")
	}
}

func (c *WebRTCConnection) State() core.PeerState {
	return core.PeerState(c.state.Load())
}

func (c *WebRTCConnection) Events() <-chan core.PeerState {
	return c.events
}

// Close is idempotent; only the first call closes the PeerConnection.
func (c *WebRTCConnection) Close() error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.state.Store(int32(core.PeerStateClosed))
		close(c.events)
		stop := c.stop
		c.mu.Unlock()

		if stop != nil {
			stop()
		}
		if err = c.pc.Close(); err != nil {
			log.Error().Err(err).Str("module", "webrtc").Str("sid", string(c.owner)).Str("target", string(c.peer)).Msg("close error")
		} else {
			log.Info().Str("module", "webrtc").Str("sid", string(c.owner)).Str("target", string(c.peer)).Msg("closed")
		}
	})
	return err
}

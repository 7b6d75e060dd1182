package coretest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dkeye/VideoRoom/internal/core"
)

var ErrCloseFailed = errors.New("close failed")

// Handle is a scriptable peer handle: tests push states with Emit.
type Handle struct {
	Owner, Peer core.SessionID
	// FailClose makes Close report an error after releasing the handle.
	FailClose bool

	mu     sync.Mutex
	state  core.PeerState
	events chan core.PeerState
	closed bool
	closes atomic.Int32
}

func NewHandle(owner, peer core.SessionID) *Handle {
	return &Handle{Owner: owner, Peer: peer, events: make(chan core.PeerState, 8)}
}

func (h *Handle) Emit(s core.PeerState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.state = s
	h.events <- s
}

func (h *Handle) Close() error {
	h.closes.Add(1)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.state = core.PeerStateClosed
	close(h.events)
	if h.FailClose {
		return ErrCloseFailed
	}
	return nil
}

func (h *Handle) IsClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// CloseCalls counts Close invocations, including repeated ones.
func (h *Handle) CloseCalls() int { return int(h.closes.Load()) }

func (h *Handle) State() core.PeerState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) Events() <-chan core.PeerState { return h.events }

// Engine hands out Handles and remembers them per directed pair.
type Engine struct {
	mu      sync.Mutex
	handles map[[2]core.SessionID][]*Handle
	Err     error
}

func NewEngine() *Engine {
	return &Engine{handles: make(map[[2]core.SessionID][]*Handle)}
}

func (e *Engine) CreateHandle(_ context.Context, owner, peer core.SessionID) (core.PeerHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	h := NewHandle(owner, peer)
	key := [2]core.SessionID{owner, peer}
	e.handles[key] = append(e.handles[key], h)
	return h, nil
}

// Created returns every handle created for owner->peer, oldest first.
func (e *Engine) Created(owner, peer core.SessionID) []*Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Handle(nil), e.handles[[2]core.SessionID{owner, peer}]...)
}

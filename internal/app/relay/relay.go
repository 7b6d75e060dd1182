// Package relay forwards signaling messages between sessions and owns the
// lifecycle of the peer handle behind every directed pair.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dkeye/VideoRoom/internal/app"
	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/dkeye/VideoRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

type Kind string

const (
	Offer        Kind = core.EventOffer
	Answer       Kind = core.EventAnswer
	ICECandidate Kind = core.EventICECandidate
)

type Relay struct {
	reg    *app.Registry
	engine core.PeerEngine

	wg sync.WaitGroup

	created atomic.Int64
	closed  atomic.Int64
	failed  atomic.Int64
}

func New(reg *app.Registry, engine core.PeerEngine) *Relay {
	return &Relay{reg: reg, engine: engine}
}

// Relay forwards one signaling message to the target. Nothing is reported back
// to the sender: an absent or closed target yields domain.ErrTargetOffline so
// the caller can tell an expected drop from a real failure.
func (r *Relay) Relay(kind Kind, from, to core.SessionID, payload core.Message) error {
	logger := log.With().Str("module", "relay").Str("kind", string(kind)).
		Str("sid", string(from)).Str("target", string(to)).Logger()

	sig, ok := r.reg.Signal(to)
	if !ok || sig == nil || sig.IsClosed() {
		logger.Debug().Msg("target offline, dropping")
		return domain.ErrTargetOffline
	}

	msg := make(core.Message, len(payload)+2)
	for k, v := range payload {
		if k == "target_id" {
			continue
		}
		msg[k] = v
	}
	msg["type"] = string(kind)
	msg["from_id"] = string(from)

	if err := sig.TrySend(msg); err != nil {
		if errors.Is(err, core.ErrSinkClosed) {
			logger.Debug().Msg("target closed while relaying")
			return domain.ErrTargetOffline
		}
		return fmt.Errorf("relay %s to %s: %w", kind, to, err)
	}
	logger.Debug().Msg("relayed")
	return nil
}

// EnsurePeerLink returns the handle on from->to, creating it through the engine
// when absent and watching its state events.
func (r *Relay) EnsurePeerLink(ctx context.Context, from, to core.SessionID) (core.PeerHandle, error) {
	if h, ok := r.reg.Link(from, to); ok {
		return h, nil
	}
	h, err := r.engine.CreateHandle(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("create peer handle %s->%s: %w", from, to, err)
	}
	stored, fresh, err := r.reg.PutLink(from, to, h)
	if err != nil {
		r.closeHandle(from, to, h)
		return nil, err
	}
	if !fresh {
		// lost a race with a concurrent EnsurePeerLink
		r.closeHandle(from, to, h)
		return stored, nil
	}
	r.created.Add(1)
	log.Info().Str("module", "relay").Str("sid", string(from)).Str("target", string(to)).Msg("peer link created")

	r.wg.Add(1)
	go r.watch(from, to, h)
	return h, nil
}

// watch consumes state events until the handle is closed. A terminal state
// closes the link, unless the edge has since been replaced or removed.
func (r *Relay) watch(owner, peer core.SessionID, h core.PeerHandle) {
	defer r.wg.Done()
	logger := log.With().Str("module", "relay").Str("sid", string(owner)).Str("target", string(peer)).Logger()
	for st := range h.Events() {
		logger.Debug().Str("state", st.String()).Msg("peer link state")
		if st == core.PeerStateConnected {
			logger.Info().Msg("peer link established")
			continue
		}
		if !st.Terminal() {
			continue
		}
		if st == core.PeerStateFailed {
			r.failed.Add(1)
			logger.Warn().Msg("peer link failed")
		}
		if r.reg.HasLink(owner, peer, h) {
			r.CloseLink(owner, peer)
		}
		return
	}
}

// CloseLink closes a->b and its mirror b->a. It returns how many edges were removed.
func (r *Relay) CloseLink(a, b core.SessionID) int {
	n := 0
	if h, ok := r.reg.TakeLink(a, b); ok {
		r.closeHandle(a, b, h)
		n++
	}
	if h, ok := r.reg.TakeLink(b, a); ok {
		r.closeHandle(b, a, h)
		n++
	}
	if n > 0 {
		log.Info().Str("module", "relay").Str("sid", string(a)).Str("target", string(b)).Int("edges", n).Msg("peer link closed")
	}
	return n
}

// CloseAllLinksFor closes every link touching sid, in either direction.
func (r *Relay) CloseAllLinksFor(sid core.SessionID) int {
	n := 0
	for _, peer := range r.reg.LinkedPeers(sid) {
		n += r.CloseLink(sid, peer)
	}
	return n
}

func (r *Relay) closeHandle(owner, peer core.SessionID, h core.PeerHandle) {
	r.closed.Add(1)
	if err := h.Close(); err != nil {
		log.Error().Err(err).Str("module", "relay").Str("sid", string(owner)).Str("target", string(peer)).Msg("close peer handle")
	}
}

// Wait blocks until every state watcher has returned.
func (r *Relay) Wait() {
	r.wg.Wait()
}

type Stats struct {
	app.LinkStats
	Created int64 `json:"created"`
	Closed  int64 `json:"closed"`
	Failed  int64 `json:"failed"`
}

func (r *Relay) Stats() Stats {
	return Stats{
		LinkStats: r.reg.LinkStats(),
		Created:   r.created.Load(),
		Closed:    r.closed.Load(),
		Failed:    r.failed.Load(),
	}
}

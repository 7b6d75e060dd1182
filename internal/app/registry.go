package app

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/dkeye/VideoRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	RoomID      domain.RoomID
	Signal      core.SignalConnection
	Cancel      context.CancelFunc
	ClientToken string
	CreatedAt   time.Time
}

// linkKey is one directed edge owner->peer of the peer-link set.
type linkKey struct {
	Owner core.SessionID
	Peer  core.SessionID
}

// Registry is the connection registry: live sessions and the directed
// peer-link edges they own. Lock order: RoomManager.mu before Registry.mu.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	links    map[linkKey]core.PeerHandle
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		links:    make(map[linkKey]core.PeerHandle),
		now:      time.Now,
	}
}

// Register stores a new session. The id must not be live already.
func (r *Registry) Register(
	sid core.SessionID,
	sig core.SignalConnection,
	cancel context.CancelFunc,
	clientToken string,
) (core.SessionInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sid]; ok {
		log.Warn().Str("module", "app.registry").Str("sid", string(sid)).Msg("duplicate session id")
		return core.SessionInfo{}, domain.ErrDuplicateSession
	}
	e := &sessionEntry{
		Signal:      sig,
		Cancel:      cancel,
		ClientToken: clientToken,
		CreatedAt:   r.now(),
	}
	r.sessions[sid] = e
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("registered session")
	return r.infoLocked(sid, e), nil
}

// Unregister closes every handle the session owns, closes its sink and forgets it.
// A second call is a logged no-op.
func (r *Registry) Unregister(sid core.SessionID) bool {
	r.mu.Lock()
	e, ok := r.sessions[sid]
	if !ok {
		r.mu.Unlock()
		log.Warn().Str("module", "app.registry").Str("sid", string(sid)).Msg("unregister: no such session")
		return false
	}
	delete(r.sessions, sid)
	owned := make(map[core.SessionID]core.PeerHandle)
	for k, h := range r.links {
		if k.Owner == sid {
			owned[k.Peer] = h
			delete(r.links, k)
		}
	}
	r.mu.Unlock()

	for peer, h := range owned {
		if err := h.Close(); err != nil {
			log.Error().Err(err).Str("module", "app.registry").Str("sid", string(sid)).Str("target", string(peer)).Msg("close peer handle")
		}
	}
	if e.Signal != nil && !e.Signal.IsClosed() {
		e.Signal.Close()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int("closed_links", len(owned)).Msg("unregistered session")
	return true
}

func (r *Registry) Lookup(sid core.SessionID) (core.SessionInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return core.SessionInfo{}, false
	}
	return r.infoLocked(sid, e), true
}

func (r *Registry) Exists(sid core.SessionID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[sid]
	return ok
}

// All returns a snapshot; later mutations are not reflected.
func (r *Registry) All() []core.SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.SessionInfo, 0, len(r.sessions))
	for sid, e := range r.sessions {
		out = append(out, r.infoLocked(sid, e))
	}
	return out
}

// IsOpen reports whether the session exists and its sink is still open.
func (r *Registry) IsOpen(sid core.SessionID) bool {
	sig, ok := r.Signal(sid)
	return ok && sig != nil && !sig.IsClosed()
}

func (r *Registry) Signal(sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Signal, true
	}
	return nil, false
}

func (r *Registry) RoomOf(sid core.SessionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.RoomID == "" {
		return "", false
	}
	return e.RoomID, true
}

// setRoom is only called by RoomManager while it holds its own lock.
func (r *Registry) setRoom(sid core.SessionID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.RoomID = room
	return true
}

// Cancel aborts the session's connection context; its read loop then tears it down.
func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

// Link returns the handle on the owner->peer edge.
func (r *Registry) Link(owner, peer core.SessionID) (core.PeerHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.links[linkKey{owner, peer}]
	return h, ok
}

// HasLink reports whether h is still the handle stored on owner->peer.
func (r *Registry) HasLink(owner, peer core.SessionID, h core.PeerHandle) bool {
	cur, ok := r.Link(owner, peer)
	return ok && cur == h
}

// PutLink stores h on owner->peer unless an edge already exists, in which case
// the existing handle is returned with stored=false.
func (r *Registry) PutLink(owner, peer core.SessionID, h core.PeerHandle) (core.PeerHandle, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[owner]; !ok {
		return nil, false, domain.ErrSessionNotFound
	}
	k := linkKey{owner, peer}
	if cur, ok := r.links[k]; ok {
		return cur, false, nil
	}
	r.links[k] = h
	return h, true, nil
}

// TakeLink removes and returns the handle on owner->peer.
func (r *Registry) TakeLink(owner, peer core.SessionID) (core.PeerHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := linkKey{owner, peer}
	h, ok := r.links[k]
	if ok {
		delete(r.links, k)
	}
	return h, ok
}

// LinkedPeers returns every session sharing an edge with sid in either direction.
func (r *Registry) LinkedPeers(sid core.SessionID) []core.SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.SessionID
	for k := range r.links {
		switch sid {
		case k.Owner:
			out = append(out, k.Peer)
		case k.Peer:
			out = append(out, k.Owner)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

type LinkStats struct {
	TotalPeerConnections int `json:"total_peer_connections"`
	UsersWithConnections int `json:"users_with_connections"`
	DirectedEdges        int `json:"directed_edges"`
}

func (r *Registry) LinkStats() LinkStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owners := make(map[core.SessionID]struct{})
	for k := range r.links {
		owners[k.Owner] = struct{}{}
	}
	return LinkStats{
		TotalPeerConnections: len(r.links) / 2,
		UsersWithConnections: len(owners),
		DirectedEdges:        len(r.links),
	}
}

type ConnectionStats struct {
	TotalConnections  int `json:"total_connections"`
	UsersInRooms      int `json:"users_in_rooms"`
	UsersWithoutRooms int `json:"users_without_rooms"`
}

func (r *Registry) Stats() ConnectionStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := ConnectionStats{TotalConnections: len(r.sessions)}
	for _, e := range r.sessions {
		if e.RoomID != "" {
			st.UsersInRooms++
		}
	}
	st.UsersWithoutRooms = st.TotalConnections - st.UsersInRooms
	return st
}

func (r *Registry) infoLocked(sid core.SessionID, e *sessionEntry) core.SessionInfo {
	info := core.SessionInfo{
		ID:          sid,
		ClientToken: e.ClientToken,
		RoomID:      e.RoomID,
		Open:        e.Signal != nil && !e.Signal.IsClosed(),
		CreatedAt:   e.CreatedAt,
		Peers:       []core.SessionID{},
	}
	for k := range r.links {
		if k.Owner == sid {
			info.Peers = append(info.Peers, k.Peer)
		}
	}
	slices.Sort(info.Peers)
	return info
}

package app

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/dkeye/VideoRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

type roomState struct {
	room    domain.Room
	members []core.SessionID
}

func (s *roomState) info() core.RoomInfo {
	return core.RoomInfo{Room: s.room, Members: slices.Clone(s.members)}
}

type RoomOptions struct {
	DefaultMaxUsers int
	MaxCapacity     int
}

// RoomManager is the room registry. All mutations run under mu, and session room
// references in Registry are only written while mu is held.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomState
	reg   *Registry
	opts  RoomOptions

	now       func() time.Time
	newFolder func() domain.FolderID
}

func NewRoomManager(reg *Registry, opts RoomOptions) *RoomManager {
	if opts.DefaultMaxUsers <= 0 {
		opts.DefaultMaxUsers = 5
	}
	if opts.MaxCapacity < opts.DefaultMaxUsers {
		opts.MaxCapacity = opts.DefaultMaxUsers
	}
	return &RoomManager{
		rooms:     make(map[domain.RoomID]*roomState),
		reg:       reg,
		opts:      opts,
		now:       time.Now,
		newFolder: domain.NewFolderID,
	}
}

// LeaveResult describes a membership removal.
type LeaveResult struct {
	RoomID    domain.RoomID
	FolderID  domain.FolderID
	Deleted   bool
	Remaining []core.SessionID
}

type JoinResult struct {
	Room core.RoomInfo
	// Left is set when joining moved the session out of another room.
	Left *LeaveResult
}

func (m *RoomManager) capacity(maxUsers int) int {
	if maxUsers <= 0 {
		return m.opts.DefaultMaxUsers
	}
	return min(maxUsers, m.opts.MaxCapacity)
}

// GetOrCreate returns the room, creating it with a fresh folder id when absent.
// maxUsers only applies at creation.
func (m *RoomManager) GetOrCreate(id domain.RoomID, maxUsers int) core.RoomInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs, _ := m.getOrCreateLocked(id, maxUsers)
	return rs.info()
}

func (m *RoomManager) getOrCreateLocked(id domain.RoomID, maxUsers int) (*roomState, bool) {
	if rs, ok := m.rooms[id]; ok {
		return rs, false
	}
	rs := &roomState{room: domain.Room{
		ID:        id,
		FolderID:  m.newFolder(),
		MaxUsers:  m.capacity(maxUsers),
		CreatedAt: m.now(),
	}}
	m.rooms[id] = rs
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("folder", string(rs.room.FolderID)).
		Int("max_users", rs.room.MaxUsers).Msg("room created")
	return rs, true
}

func (m *RoomManager) Join(sid core.SessionID, id domain.RoomID) (JoinResult, error) {
	return m.JoinWithCapacity(sid, id, 0)
}

// JoinWithCapacity joins sid to the room, creating it with maxUsers if needed.
// A full room rejects non-members without any mutation; a member re-join is a no-op success.
func (m *RoomManager) JoinWithCapacity(sid core.SessionID, id domain.RoomID, maxUsers int) (JoinResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.reg.Exists(sid) {
		log.Warn().Str("module", "app.rooms").Str("sid", string(sid)).Str("room", string(id)).Msg("join: unknown session")
		return JoinResult{}, domain.ErrSessionNotFound
	}

	if rs, ok := m.rooms[id]; ok {
		if slices.Contains(rs.members, sid) {
			log.Debug().Str("module", "app.rooms").Str("sid", string(sid)).Str("room", string(id)).Msg("already a member")
			return JoinResult{Room: rs.info()}, nil
		}
		if len(rs.members) >= rs.room.MaxUsers {
			log.Warn().Str("module", "app.rooms").Str("sid", string(sid)).Str("room", string(id)).
				Int("max_users", rs.room.MaxUsers).Msg("room is full")
			return JoinResult{}, domain.ErrRoomFull
		}
	}

	var res JoinResult
	if prev, ok := m.reg.RoomOf(sid); ok && prev != id {
		left := m.removeLocked(sid, prev)
		res.Left = &left
		log.Info().Str("module", "app.rooms").Str("sid", string(sid)).Str("from", string(prev)).
			Str("room", string(id)).Msg("switching rooms")
	}

	rs, _ := m.getOrCreateLocked(id, maxUsers)
	rs.members = append(rs.members, sid)
	if !m.reg.setRoom(sid, id) {
		// session unregistered concurrently
		rs.members = slices.DeleteFunc(rs.members, func(s core.SessionID) bool { return s == sid })
		if len(rs.members) == 0 {
			delete(m.rooms, id)
		}
		return JoinResult{}, domain.ErrSessionNotFound
	}
	log.Info().Str("module", "app.rooms").Str("sid", string(sid)).Str("room", string(id)).
		Int("members", len(rs.members)).Int("max_users", rs.room.MaxUsers).Msg("joined room")
	res.Room = rs.info()
	return res, nil
}

// Leave removes sid from its current room. ok is false when it was in none.
func (m *RoomManager) Leave(sid core.SessionID) (LeaveResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.reg.RoomOf(sid)
	if !ok {
		return LeaveResult{}, false
	}
	return m.removeLocked(sid, id), true
}

func (m *RoomManager) removeLocked(sid core.SessionID, id domain.RoomID) LeaveResult {
	m.reg.setRoom(sid, "")
	res := LeaveResult{RoomID: id}
	rs, ok := m.rooms[id]
	if !ok {
		res.Deleted = true
		return res
	}
	res.FolderID = rs.room.FolderID
	rs.members = slices.DeleteFunc(rs.members, func(s core.SessionID) bool { return s == sid })
	if len(rs.members) == 0 {
		delete(m.rooms, id)
		res.Deleted = true
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room deleted")
	}
	res.Remaining = slices.Clone(rs.members)
	log.Info().Str("module", "app.rooms").Str("sid", string(sid)).Str("room", string(id)).
		Int("members", len(rs.members)).Msg("left room")
	return res
}

func (m *RoomManager) Get(id domain.RoomID) (core.RoomInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rs, ok := m.rooms[id]
	if !ok {
		return core.RoomInfo{}, false
	}
	return rs.info(), true
}

// MembersOf returns a copy of the ordered member list, nil for an unknown room.
func (m *RoomManager) MembersOf(id domain.RoomID) []core.SessionID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rs, ok := m.rooms[id]; ok {
		return slices.Clone(rs.members)
	}
	return nil
}

// All returns a snapshot ordered by creation time.
func (m *RoomManager) All() []core.RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(m.rooms))
	for _, rs := range m.rooms {
		out = append(out, rs.info())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ForceCleanup clears the room reference of every member and deletes the room.
// Notifications are up to the caller; the removed room is returned for that.
func (m *RoomManager) ForceCleanup(id domain.RoomID) (core.RoomInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs, ok := m.rooms[id]
	if !ok {
		return core.RoomInfo{}, false
	}
	info := rs.info()
	for _, sid := range rs.members {
		if cur, ok := m.reg.RoomOf(sid); ok && cur == id {
			m.reg.setRoom(sid, "")
		}
	}
	delete(m.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Int("members", len(info.Members)).Msg("force cleaned up room")
	return info, true
}

type RoomStats struct {
	TotalRooms          int     `json:"total_rooms"`
	FullRooms           int     `json:"full_rooms"`
	AvailableRooms      int     `json:"available_rooms"`
	TotalUsersInRooms   int     `json:"total_users_in_rooms"`
	AverageUsersPerRoom float64 `json:"average_users_per_room"`
}

func (m *RoomManager) Stats() RoomStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := RoomStats{TotalRooms: len(m.rooms)}
	for _, rs := range m.rooms {
		if len(rs.members) >= rs.room.MaxUsers {
			st.FullRooms++
		}
		st.TotalUsersInRooms += len(rs.members)
	}
	st.AvailableRooms = st.TotalRooms - st.FullRooms
	if st.TotalRooms > 0 {
		st.AverageUsersPerRoom = float64(st.TotalUsersInRooms) / float64(st.TotalRooms)
	}
	return st
}

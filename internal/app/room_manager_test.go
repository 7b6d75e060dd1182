package app

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/dkeye/VideoRoom/internal/domain"
)

func newRooms(t *testing.T, sids ...core.SessionID) (*Registry, *RoomManager) {
	t.Helper()
	reg := NewRegistry()
	for _, sid := range sids {
		register(t, reg, sid)
	}
	return reg, NewRoomManager(reg, RoomOptions{DefaultMaxUsers: 5, MaxCapacity: 10})
}

// checkConsistent asserts that every session room reference matches a member list
// and that no room is empty or over capacity.
func checkConsistent(t *testing.T, reg *Registry, rooms *RoomManager) {
	t.Helper()
	for _, s := range reg.All() {
		if s.RoomID == "" {
			continue
		}
		if !slices.Contains(rooms.MembersOf(s.RoomID), s.ID) {
			t.Fatalf("session %s points at %s but is not a member", s.ID, s.RoomID)
		}
	}
	for _, r := range rooms.All() {
		if len(r.Members) == 0 {
			t.Fatalf("room %s exists with no members", r.ID)
		}
		if len(r.Members) > r.MaxUsers {
			t.Fatalf("room %s over capacity: %d/%d", r.ID, len(r.Members), r.MaxUsers)
		}
		for _, m := range r.Members {
			if got, _ := reg.RoomOf(m); got != r.ID {
				t.Fatalf("member %s of %s has room ref %q", m, r.ID, got)
			}
		}
	}
}

func TestRoomCapacityScenario(t *testing.T) {
	reg, rooms := newRooms(t, "s1", "s2", "s3")

	res, err := rooms.JoinWithCapacity("s1", "R", 2)
	if err != nil {
		t.Fatalf("s1 join: %v", err)
	}
	if others := res.Room.Others("s1"); len(others) != 0 {
		t.Fatalf("s1 existing users = %v", others)
	}

	res, err = rooms.Join("s2", "R")
	if err != nil {
		t.Fatalf("s2 join: %v", err)
	}
	if others := res.Room.Others("s2"); !slices.Equal(others, []core.SessionID{"s1"}) {
		t.Fatalf("s2 existing users = %v", others)
	}

	if _, err := rooms.Join("s3", "R"); !errors.Is(err, domain.ErrRoomFull) {
		t.Fatalf("s3 join into full room: %v", err)
	}
	if _, ok := reg.RoomOf("s3"); ok {
		t.Fatal("rejected join mutated session")
	}
	if got := rooms.MembersOf("R"); !slices.Equal(got, []core.SessionID{"s1", "s2"}) {
		t.Fatalf("members after rejected join = %v", got)
	}

	left, ok := rooms.Leave("s1")
	if !ok || left.RoomID != "R" || left.Deleted {
		t.Fatalf("s1 leave = %+v, %v", left, ok)
	}
	if _, err := rooms.Join("s3", "R"); err != nil {
		t.Fatalf("s3 join after leave: %v", err)
	}
	if got := rooms.MembersOf("R"); !slices.Equal(got, []core.SessionID{"s2", "s3"}) {
		t.Fatalf("final members = %v", got)
	}
	checkConsistent(t, reg, rooms)
}

func TestRoomRejoinIsIdempotent(t *testing.T) {
	reg, rooms := newRooms(t, "a", "b")
	rooms.JoinWithCapacity("a", "R", 2)
	rooms.Join("b", "R")

	// full, but "a" is already a member
	res, err := rooms.Join("a", "R")
	if err != nil {
		t.Fatalf("re-join: %v", err)
	}
	if res.Left != nil {
		t.Fatal("re-join reported leaving a room")
	}
	if got := rooms.MembersOf("R"); !slices.Equal(got, []core.SessionID{"a", "b"}) {
		t.Fatalf("members = %v", got)
	}
	checkConsistent(t, reg, rooms)
}

func TestRoomJoinSwitchesRooms(t *testing.T) {
	reg, rooms := newRooms(t, "a", "b")
	rooms.Join("a", "one")
	rooms.Join("b", "one")

	res, err := rooms.Join("a", "two")
	if err != nil {
		t.Fatal(err)
	}
	if res.Left == nil || res.Left.RoomID != "one" || res.Left.Deleted {
		t.Fatalf("left = %+v", res.Left)
	}
	if !slices.Equal(res.Left.Remaining, []core.SessionID{"b"}) {
		t.Fatalf("remaining = %v", res.Left.Remaining)
	}
	if got, _ := reg.RoomOf("a"); got != "two" {
		t.Fatalf("room of a = %q", got)
	}
	checkConsistent(t, reg, rooms)

	res, _ = rooms.Join("b", "two")
	if res.Left == nil || !res.Left.Deleted {
		t.Fatal("leaving the last member must delete the old room")
	}
	if _, ok := rooms.Get("one"); ok {
		t.Fatal("room one still exists")
	}
}

func TestRoomJoinUnknownSession(t *testing.T) {
	_, rooms := newRooms(t)
	if _, err := rooms.Join("ghost", "R"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("join unknown session: %v", err)
	}
	if _, ok := rooms.Get("R"); ok {
		t.Fatal("failed join left a room behind")
	}
}

func TestRoomLeave(t *testing.T) {
	reg, rooms := newRooms(t, "a", "b")

	if _, ok := rooms.Leave("a"); ok {
		t.Fatal("leave with no room should report nothing")
	}

	res, _ := rooms.Join("a", "R")
	folder := res.Room.FolderID
	rooms.Join("b", "R")

	rooms.Leave("a")
	left, ok := rooms.Leave("b")
	if !ok || !left.Deleted || left.FolderID != folder || len(left.Remaining) != 0 {
		t.Fatalf("last leave = %+v", left)
	}
	if len(rooms.All()) != 0 {
		t.Fatal("room not deleted after last leave")
	}
	checkConsistent(t, reg, rooms)
}

func TestRoomGetOrCreate(t *testing.T) {
	_, rooms := newRooms(t, "a")

	first := rooms.GetOrCreate("R", 3)
	if first.MaxUsers != 3 || first.FolderID == "" {
		t.Fatalf("created room %+v", first.Room)
	}
	again := rooms.GetOrCreate("R", 9)
	if again.MaxUsers != 3 || again.FolderID != first.FolderID {
		t.Fatal("capacity or folder changed on existing room")
	}
	if got := rooms.GetOrCreate("big", 1000).MaxUsers; got != 10 {
		t.Fatalf("capacity not clamped: %d", got)
	}
	if got := rooms.GetOrCreate("dflt", 0).MaxUsers; got != 5 {
		t.Fatalf("default capacity = %d", got)
	}
}

func TestRoomForceCleanup(t *testing.T) {
	reg, rooms := newRooms(t, "a", "b")
	rooms.Join("a", "R")
	rooms.Join("b", "R")

	info, ok := rooms.ForceCleanup("R")
	if !ok || !slices.Equal(info.Members, []core.SessionID{"a", "b"}) {
		t.Fatalf("force cleanup = %+v, %v", info, ok)
	}
	for _, sid := range []core.SessionID{"a", "b"} {
		if _, in := reg.RoomOf(sid); in {
			t.Fatalf("%s still has a room", sid)
		}
	}
	if _, ok := rooms.ForceCleanup("R"); ok {
		t.Fatal("second cleanup reported success")
	}
	checkConsistent(t, reg, rooms)
}

func TestRoomStats(t *testing.T) {
	_, rooms := newRooms(t, "a", "b", "c")
	rooms.JoinWithCapacity("a", "one", 1)
	rooms.Join("b", "two")
	rooms.Join("c", "two")

	st := rooms.Stats()
	if st.TotalRooms != 2 || st.FullRooms != 1 || st.AvailableRooms != 1 || st.TotalUsersInRooms != 3 {
		t.Fatalf("stats %+v", st)
	}
	if st.AverageUsersPerRoom != 1.5 {
		t.Fatalf("average = %v", st.AverageUsersPerRoom)
	}
}

func TestRoomConcurrentJoinsRespectCapacity(t *testing.T) {
	const users = 50
	var sids []core.SessionID
	for i := range users {
		sids = append(sids, core.SessionID(fmt.Sprintf("s%02d", i)))
	}
	reg, rooms := newRooms(t, sids...)
	rooms.GetOrCreate("R", 4)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		oks int
	)
	for _, sid := range sids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := rooms.Join(sid, "R"); err == nil {
				mu.Lock()
				oks++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if oks != 4 {
		t.Fatalf("%d joins succeeded, want 4", oks)
	}
	checkConsistent(t, reg, rooms)
}

func TestRoomConcurrentChurnKeepsInvariants(t *testing.T) {
	var sids []core.SessionID
	for i := range 20 {
		sids = append(sids, core.SessionID(fmt.Sprintf("u%02d", i)))
	}
	reg, rooms := newRooms(t, sids...)
	targets := []domain.RoomID{"x", "y", "z"}

	var wg sync.WaitGroup
	for i, sid := range sids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range 30 {
				switch (i + n) % 3 {
				case 0, 1:
					rooms.JoinWithCapacity(sid, targets[(i+n)%len(targets)], 3)
				default:
					rooms.Leave(sid)
				}
			}
		}()
	}
	wg.Wait()
	checkConsistent(t, reg, rooms)
}

func TestPolicyFromString(t *testing.T) {
	tests := []struct {
		in      string
		msgType string
		want    BackpressureAction
		wantErr bool
	}{
		{in: "", msgType: core.MsgUserJoined, want: DropMessage},
		{in: "drop", msgType: core.MsgUserJoined, want: DropMessage},
		{in: "KICK", msgType: core.MsgUserJoined, want: KickSession},
		{in: "kick", msgType: core.EventICECandidate, want: DropMessage},
		{in: "mark-slow", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in+"/"+tt.msgType, func(t *testing.T) {
			p, err := PolicyFromString(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := p.OnBackPressure("s", core.Message{"type": tt.msgType}); got != tt.want {
				t.Fatalf("action = %v, want %v", got, tt.want)
			}
		})
	}
}

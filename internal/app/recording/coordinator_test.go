package recording

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/dkeye/VideoRoom/internal/core/mocks"
	"github.com/dkeye/VideoRoom/internal/domain"
	"go.uber.org/mock/gomock"
)

type roomTable map[domain.RoomID]core.RoomInfo

func (t roomTable) Get(id domain.RoomID) (core.RoomInfo, bool) {
	r, ok := t[id]
	return r, ok
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

const folderR = domain.FolderID("0b6f7a9e-4a57-4a8e-9f0c-3e7c1f0a2b11")

func newCoordinator(t *testing.T) (*Coordinator, *mocks.MockSessionStore, *clock) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockSessionStore(ctrl)
	rooms := roomTable{
		"R": {Room: domain.Room{ID: "R", FolderID: folderR, MaxUsers: 2}, Members: []core.SessionID{"s1"}},
	}
	c := New(rooms, store, nil)
	clk := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c.now = clk.now
	return c, store, clk
}

func TestStartUnknownRoom(t *testing.T) {
	c, _, _ := newCoordinator(t)
	if _, err := c.Start(context.Background(), "nope"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("start unknown room: %v", err)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	c, store, _ := newCoordinator(t)
	store.EXPECT().CreateFolder(gomock.Any(), folderR).Return("sessions/"+string(folderR), nil).Times(1)

	first, err := c.Start(context.Background(), "R")
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Start(context.Background(), "R")
	if err != nil {
		t.Fatal(err)
	}
	if first != folderR || second != folderR {
		t.Fatalf("folders %q %q, want the room folder", first, second)
	}
	if n := len(c.Active()); n != 1 {
		t.Fatalf("%d active recordings, want 1", n)
	}
	if !c.IsRecording("R") {
		t.Fatal("room not recording")
	}
}

func TestStartConcurrentCreatesOneSession(t *testing.T) {
	c, store, _ := newCoordinator(t)
	store.EXPECT().CreateFolder(gomock.Any(), folderR).Return("p", nil).AnyTimes()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f, err := c.Start(context.Background(), "R"); err != nil || f != folderR {
				t.Errorf("start = %q, %v", f, err)
			}
		}()
	}
	wg.Wait()
	if n := len(c.Active()); n != 1 {
		t.Fatalf("%d active recordings, want 1", n)
	}
}

func TestStartStorageFailure(t *testing.T) {
	c, store, _ := newCoordinator(t)
	store.EXPECT().CreateFolder(gomock.Any(), folderR).Return("", errors.New("disk full"))

	if _, err := c.Start(context.Background(), "R"); !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("start with failing storage: %v", err)
	}
	if c.IsRecording("R") {
		t.Fatal("failed start left an active recording")
	}
}

type liveRooms struct {
	mu    sync.Mutex
	rooms roomTable
}

func (l *liveRooms) Get(id domain.RoomID) (core.RoomInfo, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rooms.Get(id)
}

func (l *liveRooms) put(id domain.RoomID, folder domain.FolderID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rooms[id] = core.RoomInfo{Room: domain.Room{ID: id, FolderID: folder, MaxUsers: 2}}
}

func (l *liveRooms) remove(id domain.RoomID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rooms, id)
}

// startBlocked runs Start with CreateFolder parked until the returned release is called.
func startBlocked(t *testing.T, c *Coordinator, store *mocks.MockSessionStore, folder domain.FolderID) (release func() error) {
	t.Helper()
	entered := make(chan struct{})
	unblock := make(chan struct{})
	store.EXPECT().CreateFolder(gomock.Any(), folder).DoAndReturn(
		func(context.Context, domain.FolderID) (string, error) {
			close(entered)
			<-unblock
			return "sessions/" + string(folder), nil
		})
	done := make(chan error, 1)
	go func() {
		_, err := c.Start(context.Background(), "R")
		done <- err
	}()
	<-entered
	return func() error {
		close(unblock)
		return <-done
	}
}

func TestStartLosesToRoomDeletion(t *testing.T) {
	const folderR2 = domain.FolderID("5d2c8f3a-9b1e-4c7d-8a6f-2e4b1c9d0f37")
	tests := []struct {
		name   string
		delete func(rooms *liveRooms, c *Coordinator)
	}{
		{"deleted", func(rooms *liveRooms, c *Coordinator) {
			rooms.remove("R")
			c.CleanupRoom("R")
		}},
		{"deleted and recreated", func(rooms *liveRooms, c *Coordinator) {
			rooms.remove("R")
			c.CleanupRoom("R")
			rooms.put("R", folderR2)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockSessionStore(gomock.NewController(t))
			rooms := &liveRooms{rooms: roomTable{}}
			rooms.put("R", folderR)
			c := New(rooms, store, nil)

			release := startBlocked(t, c, store, folderR)
			tt.delete(rooms, c)
			if err := release(); !errors.Is(err, domain.ErrRoomNotFound) {
				t.Fatalf("start across deletion = %v, want ErrRoomNotFound", err)
			}
			if c.IsRecording("R") {
				t.Fatal("recording left active for a deleted room")
			}
			if _, ok := c.Lookup(folderR); ok {
				t.Fatal("stale folder registered")
			}

			rooms.put("R", folderR2)
			store.EXPECT().CreateFolder(gomock.Any(), folderR2).Return("p", nil)
			got, err := c.Start(context.Background(), "R")
			if err != nil || got != folderR2 {
				t.Fatalf("start on new room = %q, %v, want %q", got, err, folderR2)
			}
		})
	}
}

func TestStartCompletesBeforeRoomDeletion(t *testing.T) {
	store := mocks.NewMockSessionStore(gomock.NewController(t))
	rooms := &liveRooms{rooms: roomTable{}}
	rooms.put("R", folderR)
	c := New(rooms, store, nil)

	release := startBlocked(t, c, store, folderR)
	if err := release(); err != nil {
		t.Fatal(err)
	}
	rooms.remove("R")
	if !c.CleanupRoom("R") {
		t.Fatal("cleanup missed the recording")
	}
	if c.IsRecording("R") {
		t.Fatal("recording survived its room")
	}
}

func TestStopScenario(t *testing.T) {
	c, store, clk := newCoordinator(t)
	store.EXPECT().CreateFolder(gomock.Any(), folderR).Return("p", nil)

	c.Start(context.Background(), "R")
	clk.advance(3 * time.Second)
	if secs, ok := c.ActiveDurationSeconds("R"); !ok || secs != 3 {
		t.Fatalf("active duration = %v, %v", secs, ok)
	}

	rec, ok := c.Stop("R")
	if !ok {
		t.Fatal("stop returned nothing")
	}
	if rec.EndedAt == nil || rec.Status != domain.RecordingStopped {
		t.Fatalf("stopped recording %+v", rec)
	}
	if secs, ok := rec.DurationSeconds(); !ok || secs < 0 {
		t.Fatalf("duration = %v, %v", secs, ok)
	}
	if _, ok := c.Stop("R"); ok {
		t.Fatal("second stop returned a recording")
	}
	if _, ok := c.ActiveDurationSeconds("R"); ok {
		t.Fatal("duration reported after stop")
	}
	if hist, ok := c.Lookup(folderR); !ok || hist.IsActive() {
		t.Fatal("stopped recording missing from history")
	}
}

func TestForceStopAndCleanupRoom(t *testing.T) {
	c, store, _ := newCoordinator(t)
	store.EXPECT().CreateFolder(gomock.Any(), folderR).Return("p", nil).Times(2)

	c.Start(context.Background(), "R")
	rec, ok := c.ForceStop("R", "admin")
	if !ok || rec.Status != "stopped (admin)" {
		t.Fatalf("force stop = %+v, %v", rec, ok)
	}

	c.Start(context.Background(), "R")
	if !c.CleanupRoom("R") {
		t.Fatal("cleanup did not stop the recording")
	}
	got, _ := c.Lookup(folderR)
	if got.Status != "stopped (room deleted)" {
		t.Fatalf("status = %q", got.Status)
	}
	if c.CleanupRoom("R") {
		t.Fatal("cleanup with nothing active reported true")
	}
}

func TestAppendFile(t *testing.T) {
	c, store, _ := newCoordinator(t)
	store.EXPECT().CreateFolder(gomock.Any(), folderR).Return("p", nil)

	if c.AppendFile(folderR, "early.webm") {
		t.Fatal("append before any recording succeeded")
	}
	c.Start(context.Background(), "R")
	c.AppendFile(folderR, "a.webm")
	c.Stop("R")
	c.AppendFile(folderR, "b.webm")

	rec, _ := c.Lookup(folderR)
	if !slices.Equal(rec.Files, []string{"a.webm", "b.webm"}) {
		t.Fatalf("files = %v", rec.Files)
	}
	rec.Files[0] = "mutated"
	again, _ := c.Lookup(folderR)
	if again.Files[0] != "a.webm" {
		t.Fatal("Lookup handed out internal state")
	}
}

func TestSaveRecording(t *testing.T) {
	c, store, _ := newCoordinator(t)
	gomock.InOrder(
		store.EXPECT().CreateFolder(gomock.Any(), folderR).Return("p", nil),
		store.EXPECT().SaveFile(gomock.Any(), folderR, "cam.webm", []byte("data")).
			Return("sessions/"+string(folderR)+"/cam_20260301_120000_abcd1234.webm", nil),
		store.EXPECT().SaveFile(gomock.Any(), folderR, "mic.wav", gomock.Any()).Return("", errors.New("io")),
	)

	c.Start(context.Background(), "R")
	if _, err := c.SaveRecording(context.Background(), folderR, "cam.webm", []byte("data")); err != nil {
		t.Fatal(err)
	}
	rec, _ := c.RoomRecording("R")
	if !slices.Equal(rec.Files, []string{"cam_20260301_120000_abcd1234.webm"}) {
		t.Fatalf("files = %v", rec.Files)
	}

	if _, err := c.SaveRecording(context.Background(), folderR, "mic.wav", nil); !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("save with failing storage: %v", err)
	}
	rec, _ = c.RoomRecording("R")
	if rec.Status != domain.RecordingError {
		t.Fatalf("status = %q, want error", rec.Status)
	}
	if !c.IsRecording("R") {
		t.Fatal("error status must not end the recording")
	}
}

func TestRecordingFiles(t *testing.T) {
	c, store, _ := newCoordinator(t)
	store.EXPECT().ListFiles(gomock.Any(), folderR).Return([]string{"a.WEBM", "notes.txt", "b.mp3"}, nil)

	files, err := c.RecordingFiles(context.Background(), folderR)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(files, []string{"a.WEBM", "b.mp3"}) {
		t.Fatalf("files = %v", files)
	}
}

func TestPurgeHistory(t *testing.T) {
	c, store, clk := newCoordinator(t)
	store.EXPECT().CreateFolder(gomock.Any(), folderR).Return("p", nil)

	c.Start(context.Background(), "R")
	clk.advance(time.Minute)
	c.Stop("R")

	if n := c.PurgeHistory(0); n != 0 {
		t.Fatalf("non-positive age purged %d", n)
	}
	clk.advance(24 * time.Hour)
	if n := c.PurgeHistory(2); n != 0 {
		t.Fatalf("recent entry purged: %d", n)
	}
	clk.advance(48 * time.Hour)
	if n := c.PurgeHistory(2); n != 1 {
		t.Fatalf("purged %d, want 1", n)
	}
	if _, ok := c.Lookup(folderR); ok {
		t.Fatal("purged entry still visible")
	}
}

func TestStats(t *testing.T) {
	c, store, clk := newCoordinator(t)
	store.EXPECT().CreateFolder(gomock.Any(), folderR).Return("p", nil)

	c.Start(context.Background(), "R")
	clk.advance(10 * time.Second)
	c.Stop("R")

	st := c.Stats()
	if st.TotalRecordings != 1 || st.ActiveRecordings != 0 || st.TotalDurationSeconds != 10 || st.AverageDurationSeconds != 10 {
		t.Fatalf("stats %+v", st)
	}
}

func TestRunJanitorStopsOnCancel(t *testing.T) {
	c, _, _ := newCoordinator(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.RunJanitor(ctx, time.Millisecond, 30) }()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

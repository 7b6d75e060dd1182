// Package recording tracks the recording session bound to each room.
package recording

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/dkeye/VideoRoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// DefaultExtensions are the file types counted as recordings.
var DefaultExtensions = []string{".mp4", ".webm", ".wav", ".mp3", ".ogg", ".m4a"}

// Coordinator owns every RecordingSession: at most one active per room, the
// stopped ones kept in history by folder id until purged.
type Coordinator struct {
	mu      sync.Mutex
	active  map[domain.RoomID]*domain.RecordingSession
	history map[domain.FolderID]*domain.RecordingSession

	rooms      core.RoomLookup
	store      core.SessionStore
	extensions []string
	now        func() time.Time
}

func New(rooms core.RoomLookup, store core.SessionStore, extensions []string) *Coordinator {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Coordinator{
		active:     make(map[domain.RoomID]*domain.RecordingSession),
		history:    make(map[domain.FolderID]*domain.RecordingSession),
		rooms:      rooms,
		store:      store,
		extensions: extensions,
		now:        time.Now,
	}
}

// Start begins recording the room and returns its folder id. Starting a room that
// is already recording returns the existing folder id.
func (c *Coordinator) Start(ctx context.Context, roomID domain.RoomID) (domain.FolderID, error) {
	room, ok := c.rooms.Get(roomID)
	if !ok {
		return "", domain.ErrRoomNotFound
	}

	c.mu.Lock()
	if rec, ok := c.active[roomID]; ok {
		c.mu.Unlock()
		log.Warn().Str("module", "recording").Str("room", string(roomID)).Str("folder", string(rec.FolderID)).
			Msg("recording already active")
		return rec.FolderID, nil
	}
	c.mu.Unlock()

	if _, err := c.store.CreateFolder(ctx, room.FolderID); err != nil {
		log.Error().Err(err).Str("module", "recording").Str("room", string(roomID)).Msg("create session folder")
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.active[roomID]; ok {
		return rec.FolderID, nil
	}
	// The room may have been deleted, or deleted and recreated, while the folder
	// was being created. CleanupRoom holds c.mu, so this check cannot race it.
	if cur, ok := c.rooms.Get(roomID); !ok || cur.FolderID != room.FolderID {
		log.Warn().Str("module", "recording").Str("room", string(roomID)).Str("folder", string(room.FolderID)).
			Msg("room gone before recording started")
		return "", domain.ErrRoomNotFound
	}
	c.active[roomID] = &domain.RecordingSession{
		FolderID:  room.FolderID,
		RoomID:    roomID,
		StartedAt: c.now(),
		Status:    domain.RecordingActive,
		Files:     []string{},
	}
	log.Info().Str("module", "recording").Str("room", string(roomID)).Str("folder", string(room.FolderID)).
		Msg("recording started")
	return room.FolderID, nil
}

// Stop ends the active recording of the room and moves it to history.
func (c *Coordinator) Stop(roomID domain.RoomID) (*domain.RecordingSession, bool) {
	return c.end(roomID, domain.RecordingStopped)
}

// ForceStop is Stop with a "stopped (reason)" status.
func (c *Coordinator) ForceStop(roomID domain.RoomID, reason string) (*domain.RecordingSession, bool) {
	return c.end(roomID, domain.StoppedWith(reason))
}

// CleanupRoom force-stops the recording of a room that no longer exists.
func (c *Coordinator) CleanupRoom(roomID domain.RoomID) bool {
	_, ok := c.ForceStop(roomID, "room deleted")
	return ok
}

func (c *Coordinator) end(roomID domain.RoomID, status domain.RecordingStatus) (*domain.RecordingSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.active[roomID]
	if !ok {
		log.Debug().Str("module", "recording").Str("room", string(roomID)).Msg("no active recording")
		return nil, false
	}
	ended := c.now()
	rec.EndedAt = &ended
	rec.Status = status
	delete(c.active, roomID)
	c.history[rec.FolderID] = rec

	secs, _ := rec.DurationSeconds()
	log.Info().Str("module", "recording").Str("room", string(roomID)).Str("folder", string(rec.FolderID)).
		Str("status", string(status)).Float64("duration", secs).Msg("recording stopped")
	return rec.Clone(), true
}

func (c *Coordinator) lookupLocked(folder domain.FolderID) *domain.RecordingSession {
	for _, rec := range c.active {
		if rec.FolderID == folder {
			return rec
		}
	}
	return c.history[folder]
}

// AppendFile records a file name on the recording with that folder, active first.
func (c *Coordinator) AppendFile(folder domain.FolderID, filename string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.lookupLocked(folder)
	if rec == nil {
		return false
	}
	rec.Files = append(rec.Files, filename)
	return true
}

// SaveRecording stores the data in the folder and appends the stored name to its
// recording. A storage failure flags the active recording with an error status.
func (c *Coordinator) SaveRecording(ctx context.Context, folder domain.FolderID, filename string, data []byte) (string, error) {
	path, err := c.store.SaveFile(ctx, folder, filename, data)
	if err != nil {
		c.mu.Lock()
		for _, rec := range c.active {
			if rec.FolderID == folder {
				rec.Status = domain.RecordingError
			}
		}
		c.mu.Unlock()
		log.Error().Err(err).Str("module", "recording").Str("folder", string(folder)).Msg("save recording")
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	c.AppendFile(folder, filepath.Base(path))
	log.Info().Str("module", "recording").Str("folder", string(folder)).Str("file", path).Msg("saved recording file")
	return path, nil
}

func (c *Coordinator) IsRecording(roomID domain.RoomID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.active[roomID]
	return ok
}

// ActiveDurationSeconds is now minus start, only while the room is recording.
func (c *Coordinator) ActiveDurationSeconds(roomID domain.RoomID) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.active[roomID]
	if !ok {
		return 0, false
	}
	return c.now().Sub(rec.StartedAt).Seconds(), true
}

// Lookup returns a copy of the recording with that folder, active or historical.
func (c *Coordinator) Lookup(folder domain.FolderID) (*domain.RecordingSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.lookupLocked(folder)
	if rec == nil {
		return nil, false
	}
	return rec.Clone(), true
}

func (c *Coordinator) RoomRecording(roomID domain.RoomID) (*domain.RecordingSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.active[roomID]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Active returns copies of every active recording keyed by room.
func (c *Coordinator) Active() map[domain.RoomID]*domain.RecordingSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[domain.RoomID]*domain.RecordingSession, len(c.active))
	for id, rec := range c.active {
		out[id] = rec.Clone()
	}
	return out
}

// PurgeHistory drops history entries that ended more than olderThanDays ago.
func (c *Coordinator) PurgeHistory(olderThanDays int) int {
	if olderThanDays <= 0 {
		return 0
	}
	cutoff := c.now().Add(-time.Duration(olderThanDays) * 24 * time.Hour)

	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for folder, rec := range c.history {
		if rec.EndedAt != nil && rec.EndedAt.Before(cutoff) {
			delete(c.history, folder)
			n++
		}
	}
	if n > 0 {
		log.Info().Str("module", "recording").Int("purged", n).Msg("purged recording history")
	}
	return n
}

// RecordingFiles lists the stored files of a folder that look like recordings.
func (c *Coordinator) RecordingFiles(ctx context.Context, folder domain.FolderID) ([]string, error) {
	files, err := c.store.ListFiles(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		if slices.Contains(c.extensions, strings.ToLower(filepath.Ext(f))) {
			out = append(out, f)
		}
	}
	return out, nil
}

// RunJanitor purges history every interval until ctx is done.
func (c *Coordinator) RunJanitor(ctx context.Context, interval time.Duration, retentionDays int) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info().Str("module", "recording").Dur("interval", interval).Int("retention_days", retentionDays).
		Msg("recording janitor started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "recording").Msg("recording janitor stopped")
			return nil
		case <-ticker.C:
			c.PurgeHistory(retentionDays)
		}
	}
}

type Stats struct {
	TotalRecordings        int     `json:"total_recordings"`
	ActiveRecordings       int     `json:"active_recordings"`
	TotalDurationSeconds   float64 `json:"total_duration_seconds"`
	AverageDurationSeconds float64 `json:"average_duration_seconds"`
}

func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Stats{TotalRecordings: len(c.history), ActiveRecordings: len(c.active)}
	for _, rec := range c.history {
		if secs, ok := rec.DurationSeconds(); ok {
			st.TotalDurationSeconds += secs
		}
	}
	if st.TotalRecordings > 0 {
		st.AverageDurationSeconds = st.TotalDurationSeconds / float64(st.TotalRecordings)
	}
	return st
}

package http

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/dkeye/VideoRoom/internal/adapters/storage"
	"github.com/dkeye/VideoRoom/internal/app"
	"github.com/dkeye/VideoRoom/internal/app/orch"
	"github.com/dkeye/VideoRoom/internal/app/recording"
	"github.com/dkeye/VideoRoom/internal/app/relay"
	"github.com/dkeye/VideoRoom/internal/core"
	"github.com/dkeye/VideoRoom/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Orch        *orch.Orchestrator
	Store       *storage.Store
	MaxFileSize int64
	ICEServers  int
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrNoActiveRecording):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidFolder),
		errors.Is(err, domain.ErrInvalidFile),
		errors.Is(err, domain.ErrNotInRoom),
		errors.Is(err, domain.ErrRoomIDEmpty),
		errors.Is(err, domain.ErrRoomIDTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "video-chat-room"})
}

// Upload stores one recorded file into a session folder. The multipart field
// name ("audio" or "video") selects the allowed extensions.
func (h *Handlers) Upload(c *gin.Context) {
	raw := c.Query("session_id")
	if raw == "" {
		fail(c, http.StatusBadRequest, "Session ID required")
		return
	}
	folder, err := domain.ParseFolderID(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid session ID")
		return
	}

	var kind string
	for _, field := range []string{"audio", "video"} {
		if _, err := c.FormFile(field); err == nil {
			kind = field
			break
		}
	}
	if kind == "" {
		fail(c, http.StatusBadRequest, "No file provided")
		return
	}
	header, _ := c.FormFile(kind)
	if header.Filename == "" {
		fail(c, http.StatusBadRequest, "No file selected")
		return
	}
	if !h.Store.ValidateExtension(header.Filename, kind) {
		fail(c, http.StatusBadRequest, "Invalid file type")
		return
	}
	if header.Size > h.MaxFileSize {
		fail(c, http.StatusBadRequest, "File too large")
		return
	}

	f, err := header.Open()
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("open upload")
		fail(c, http.StatusBadRequest, "Unreadable file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.MaxFileSize+1))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("read upload")
		fail(c, http.StatusBadRequest, "Unreadable file")
		return
	}
	if int64(len(data)) > h.MaxFileSize {
		fail(c, http.StatusBadRequest, "File too large")
		return
	}

	path, err := h.Orch.Recorder.SaveRecording(c.Request.Context(), folder, header.Filename, data)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to save file")
		return
	}
	log.Info().Str("module", "adapters.http").Str("folder", string(folder)).Str("file", path).Str("kind", kind).Msg("upload stored")
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"filename":   filepath.Base(path),
		"session_id": string(folder),
		"file_size":  len(data),
		"message":    "File uploaded successfully",
	})
}

func (h *Handlers) SessionFiles(c *gin.Context) {
	folder, err := domain.ParseFolderID(c.Param("session_id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid session ID")
		return
	}
	files, err := h.Store.FileDetails(folder)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("folder", string(folder)).Msg("list files")
		fail(c, http.StatusInternalServerError, "Failed to list files")
		return
	}
	var total int64
	for _, f := range files {
		total += f.Size
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": string(folder),
		"files":      files,
		"total_size": total,
		"file_count": len(files),
	})
}

type webrtcStats struct {
	relay.Stats
	ICEServersCount int `json:"ice_servers_count"`
}

type serverStats struct {
	Connections app.ConnectionStats `json:"connections"`
	Rooms       app.RoomStats       `json:"rooms"`
	WebRTC      webrtcStats         `json:"webrtc"`
	Recordings  recording.Stats     `json:"recordings"`
	Storage     storage.Stats       `json:"storage"`
}

func (h *Handlers) Stats(c *gin.Context) {
	st := h.Orch.Stats()
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": serverStats{
		Connections: st.Connections,
		Rooms:       st.Rooms,
		WebRTC:      webrtcStats{Stats: st.WebRTC, ICEServersCount: h.ICEServers},
		Recordings:  st.Recordings,
		Storage:     h.Store.Stats(),
	}})
}

type roomView struct {
	core.RoomInfo
	UserCount int  `json:"user_count"`
	Recording bool `json:"recording"`
}

func (h *Handlers) view(info core.RoomInfo) roomView {
	return roomView{RoomInfo: info, UserCount: info.MemberCount(), Recording: h.Orch.Recorder.IsRecording(info.ID)}
}

func (h *Handlers) ListRooms(c *gin.Context) {
	rooms := h.Orch.Rooms.All()
	out := make([]roomView, 0, len(rooms))
	for _, info := range rooms {
		out = append(out, h.view(info))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rooms": out, "count": len(out)})
}

func (h *Handlers) GetRoom(c *gin.Context) {
	info, ok := h.Orch.Rooms.Get(domain.RoomID(c.Param("id")))
	if !ok {
		fail(c, http.StatusNotFound, domain.ErrRoomNotFound.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room": h.view(info)})
}

func (h *Handlers) EvictRoom(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))
	n, err := h.Orch.EvictRoom(id)
	if err != nil {
		fail(c, statusFor(err), err.Error())
		return
	}
	log.Info().Str("module", "adapters.http").Str("room", string(id)).Int("members", n).Msg("room evicted")
	c.JSON(http.StatusOK, gin.H{"success": true, "room_id": string(id), "evicted": n})
}

func (h *Handlers) KickMember(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))
	sid := core.SessionID(c.Param("sid"))
	if room, ok := h.Orch.Registry.RoomOf(sid); !ok || room != id {
		fail(c, http.StatusNotFound, "member not found in room")
		return
	}
	if err := h.Orch.Kick(sid); err != nil {
		fail(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room_id": string(id), "user_id": string(sid)})
}

func (h *Handlers) GetRecording(c *gin.Context) {
	folder, err := domain.ParseFolderID(c.Param("session_id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid session ID")
		return
	}
	rec, ok := h.Orch.Recorder.Lookup(folder)
	if !ok {
		fail(c, http.StatusNotFound, "recording not found")
		return
	}
	files, err := h.Orch.Recorder.RecordingFiles(c.Request.Context(), folder)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("folder", string(folder)).Msg("recording files")
		fail(c, http.StatusInternalServerError, "Failed to list files")
		return
	}
	resp := gin.H{"success": true, "recording": rec, "files": files, "active": rec.IsActive()}
	if secs, ok := rec.DurationSeconds(); ok {
		resp["duration_seconds"] = secs
	}
	c.JSON(http.StatusOK, resp)
}

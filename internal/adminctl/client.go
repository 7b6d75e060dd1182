// Package adminctl talks to a running VideoRoom server's REST API.
package adminctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dkeye/VideoRoom/internal/adapters/storage"
	"github.com/dkeye/VideoRoom/internal/app"
	"github.com/dkeye/VideoRoom/internal/app/recording"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type WebRTCStats struct {
	app.LinkStats
	Created         int64 `json:"created"`
	Closed          int64 `json:"closed"`
	Failed          int64 `json:"failed"`
	ICEServersCount int   `json:"ice_servers_count"`
}

type Stats struct {
	Connections app.ConnectionStats `json:"connections"`
	Rooms       app.RoomStats       `json:"rooms"`
	WebRTC      WebRTCStats         `json:"webrtc"`
	Recordings  recording.Stats     `json:"recordings"`
	Storage     storage.Stats       `json:"storage"`
}

type Room struct {
	RoomID    string    `json:"room_id"`
	SessionID string    `json:"session_id"`
	MaxUsers  int       `json:"max_users"`
	CreatedAt time.Time `json:"created_at"`
	Members   []string  `json:"members"`
	UserCount int       `json:"user_count"`
	Recording bool      `json:"recording"`
}

type SessionFiles struct {
	SessionID string             `json:"session_id"`
	Files     []storage.FileInfo `json:"files"`
	TotalSize int64              `json:"total_size"`
	FileCount int                `json:"file_count"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &e)
		if e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Message}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var resp struct {
		Stats Stats `json:"stats"`
	}
	err := c.do(ctx, http.MethodGet, "/stats", &resp)
	return resp.Stats, err
}

func (c *Client) Rooms(ctx context.Context) ([]Room, error) {
	var resp struct {
		Rooms []Room `json:"rooms"`
	}
	err := c.do(ctx, http.MethodGet, "/api/rooms", &resp)
	return resp.Rooms, err
}

func (c *Client) Room(ctx context.Context, id string) (Room, error) {
	var resp struct {
		Room Room `json:"room"`
	}
	err := c.do(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(id), &resp)
	return resp.Room, err
}

func (c *Client) Files(ctx context.Context, sessionID string) (SessionFiles, error) {
	var resp SessionFiles
	err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID)+"/files", &resp)
	return resp, err
}

// Evict deletes a room and returns how many members were removed.
func (c *Client) Evict(ctx context.Context, id string) (int, error) {
	var resp struct {
		Evicted int `json:"evicted"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/rooms/"+url.PathEscape(id), &resp)
	return resp.Evicted, err
}

func (c *Client) Kick(ctx context.Context, roomID, sid string) error {
	var resp struct{}
	return c.do(ctx, http.MethodDelete, "/api/rooms/"+url.PathEscape(roomID)+"/members/"+url.PathEscape(sid), &resp)
}

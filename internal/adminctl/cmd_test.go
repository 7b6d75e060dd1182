package adminctl

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	reply := func(status int, body string) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			w.Write([]byte(body))
		}
	}
	mux.HandleFunc("GET /stats", reply(200, `{"success":true,"stats":{
		"connections":{"total_connections":3,"users_in_rooms":2,"users_without_rooms":1},
		"rooms":{"total_rooms":1,"full_rooms":0,"available_rooms":1,"total_users_in_rooms":2,"average_users_per_room":2},
		"webrtc":{"total_peer_connections":1,"users_with_connections":2,"ice_servers_count":2},
		"recordings":{"total_recordings":4,"active_recordings":1},
		"storage":{"active_sessions":4,"max_file_size":104857600}}}`))
	mux.HandleFunc("GET /api/rooms", reply(200, `{"success":true,"count":1,"rooms":[
		{"room_id":"lobby","session_id":"f00d","max_users":5,"members":["a","b"],"user_count":2,"recording":true}]}`))
	mux.HandleFunc("GET /api/rooms/lobby", reply(200, `{"success":true,"room":
		{"room_id":"lobby","session_id":"f00d","max_users":5,"members":["alice-sid","bob-sid"],"user_count":2}}`))
	mux.HandleFunc("GET /api/rooms/ghost", reply(404, `{"success":false,"message":"room not found"}`))
	mux.HandleFunc("DELETE /api/rooms/lobby", reply(200, `{"success":true,"room_id":"lobby","evicted":2}`))
	mux.HandleFunc("DELETE /api/rooms/lobby/members/a", reply(200, `{"success":true}`))
	mux.HandleFunc("GET /sessions/f00d/files", reply(200, `{"success":true,"session_id":"f00d","file_count":1,"total_size":2048,
		"files":[{"filename":"take_20260101_120000_abcd1234.webm","size":2048,"modified":"2026-01-01T12:00:00Z"}]}`))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", srv.URL}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	srv := newAPI(t)
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"stats"}, []string{"connections", "ice servers", "100.0 MiB"}},
		{[]string{"rooms"}, []string{"lobby", "2/5", "yes"}},
		{[]string{"room", "lobby"}, []string{"Room lobby", "alice-sid", "bob-sid"}},
		{[]string{"files", "f00d"}, []string{"take_20260101_120000_abcd1234.webm", "2.0 KiB", "1 files"}},
		{[]string{"evict", "lobby"}, []string{"evicted room lobby (2 members)"}},
		{[]string{"kick", "lobby", "a"}, []string{"kicked a from lobby"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := run(t, srv, tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output lacks %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestAPIErrorSurfaced(t *testing.T) {
	srv := newAPI(t)
	_, err := run(t, srv, "room", "ghost")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "room not found" {
		t.Fatalf("api error = %+v", apiErr)
	}
}

func TestArgsValidated(t *testing.T) {
	srv := newAPI(t)
	if _, err := run(t, srv, "evict"); err == nil {
		t.Fatal("evict without a room id accepted")
	}
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{
		512:     "512 B",
		2048:    "2.0 KiB",
		5 << 20: "5.0 MiB",
	}
	for n, want := range tests {
		if got := FormatSize(n); got != want {
			t.Errorf("FormatSize(%d) = %q, want %q", n, got, want)
		}
	}
}

package adminctl

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	Primary = lipgloss.Color("#22d3ee")
	Muted   = lipgloss.Color("#6B7280")

	TitleStyle       = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	MutedStyle       = lipgloss.NewStyle().Foreground(Muted)
	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(Primary).Padding(0, 1)
	TableRowStyle    = lipgloss.NewStyle().Padding(0, 1)
	TableRowAltStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#D1D5DB"))
)

func newTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		}).
		Render()
}

func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func StatsView(s Stats) string {
	rows := [][]string{
		{"connections", "total", fmt.Sprint(s.Connections.TotalConnections)},
		{"", "in rooms", fmt.Sprint(s.Connections.UsersInRooms)},
		{"", "without room", fmt.Sprint(s.Connections.UsersWithoutRooms)},
		{"rooms", "total", fmt.Sprint(s.Rooms.TotalRooms)},
		{"", "full", fmt.Sprint(s.Rooms.FullRooms)},
		{"", "available", fmt.Sprint(s.Rooms.AvailableRooms)},
		{"", "avg users", fmt.Sprintf("%.2f", s.Rooms.AverageUsersPerRoom)},
		{"webrtc", "peer links", fmt.Sprint(s.WebRTC.TotalPeerConnections)},
		{"", "linked users", fmt.Sprint(s.WebRTC.UsersWithConnections)},
		{"", "ice servers", fmt.Sprint(s.WebRTC.ICEServersCount)},
		{"recordings", "total", fmt.Sprint(s.Recordings.TotalRecordings)},
		{"", "active", fmt.Sprint(s.Recordings.ActiveRecordings)},
		{"", "total duration", fmt.Sprintf("%.1fs", s.Recordings.TotalDurationSeconds)},
		{"storage", "folders", fmt.Sprint(s.Storage.ActiveSessions)},
		{"", "max file size", FormatSize(s.Storage.MaxFileSize)},
	}
	return newTable([]string{"Area", "Metric", "Value"}, rows)
}

func RoomsView(rooms []Room) string {
	if len(rooms) == 0 {
		return MutedStyle.Render("No rooms")
	}
	rows := make([][]string, 0, len(rooms))
	for _, r := range rooms {
		rec := ""
		if r.Recording {
			rec = "yes"
		}
		rows = append(rows, []string{
			r.RoomID,
			fmt.Sprintf("%d/%d", r.UserCount, r.MaxUsers),
			rec,
			r.SessionID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return newTable([]string{"Room", "Users", "Recording", "Session", "Created"}, rows)
}

func RoomView(r Room) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Room "+r.RoomID) + "\n")
	b.WriteString(MutedStyle.Render(fmt.Sprintf("session %s, %d/%d users", r.SessionID, r.UserCount, r.MaxUsers)) + "\n")
	if len(r.Members) == 0 {
		b.WriteString(MutedStyle.Render("No members"))
		return b.String()
	}
	rows := make([][]string, 0, len(r.Members))
	for i, m := range r.Members {
		rows = append(rows, []string{fmt.Sprint(i + 1), m})
	}
	b.WriteString(newTable([]string{"#", "Member"}, rows))
	return b.String()
}

func FilesView(f SessionFiles) string {
	if len(f.Files) == 0 {
		return MutedStyle.Render("No files")
	}
	rows := make([][]string, 0, len(f.Files))
	for i, fi := range f.Files {
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			fi.Filename,
			FormatSize(fi.Size),
			fi.Modified.Format("2006-01-02 15:04:05"),
		})
	}
	return newTable([]string{"#", "Name", "Size", "Modified"}, rows) + "\n" +
		MutedStyle.Render(fmt.Sprintf("%d files, %s", f.FileCount, FormatSize(f.TotalSize)))
}

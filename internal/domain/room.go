package domain

import "time"

type Room struct {
	ID        RoomID    `json:"room_id"`
	FolderID  FolderID  `json:"session_id"`
	MaxUsers  int       `json:"max_users"`
	CreatedAt time.Time `json:"created_at"`
}

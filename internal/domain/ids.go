// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxRoomIDLen = 64
)

var (
	ErrRoomIDTooLong = errors.New("room id too long")
	ErrRoomIDEmpty   = errors.New("room id empty")
)

type (
	RoomID   string
	FolderID string
)

// NewRoomID trims and validates a client supplied room identifier.
func NewRoomID(raw string) (RoomID, error) {
	id := strings.TrimSpace(raw)
	if len(id) == 0 {
		return "", ErrRoomIDEmpty
	}
	if len(id) > MaxRoomIDLen {
		return "", ErrRoomIDTooLong
	}
	return RoomID(id), nil
}

// NewFolderID generates the storage folder identifier bound to a room for its lifetime.
func NewFolderID() FolderID {
	return FolderID(uuid.NewString())
}

// ParseFolderID accepts only UUID-shaped ids so they are always safe path components.
func ParseFolderID(raw string) (FolderID, error) {
	u, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidFolder
	}
	return FolderID(u.String()), nil
}

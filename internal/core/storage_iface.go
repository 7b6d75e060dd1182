package core

import (
	"context"

	"github.com/dkeye/VideoRoom/internal/domain"
)

// SessionStore is the file-storage collaborator used by recordings.
type SessionStore interface {
	CreateFolder(ctx context.Context, id domain.FolderID) (string, error)
	SaveFile(ctx context.Context, id domain.FolderID, filename string, data []byte) (string, error)
	ListFiles(ctx context.Context, id domain.FolderID) ([]string, error)
}

// Package storage keeps session folders and the files uploaded into them.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/VideoRoom/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

type Options struct {
	BasePath          string
	MaxFileSize       int64
	AllowedExtensions map[string][]string
}

func DefaultAllowedExtensions() map[string][]string {
	return map[string][]string{
		"audio": {".mp3", ".wav", ".ogg", ".m4a", ".webm"},
		"video": {".mp4", ".webm", ".avi", ".mov", ".mkv"},
	}
}

// Store maps folder ids to directories under BasePath on an afero filesystem.
type Store struct {
	fs   afero.Fs
	opts Options

	mu      sync.RWMutex
	folders map[domain.FolderID]struct{}
	now     func() time.Time
}

// New creates the base directory if needed and loads the folders already in it.
func New(fs afero.Fs, opts Options) (*Store, error) {
	if opts.BasePath == "" {
		opts.BasePath = "sessions"
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 100 << 20
	}
	if opts.AllowedExtensions == nil {
		opts.AllowedExtensions = DefaultAllowedExtensions()
	}
	if err := fs.MkdirAll(opts.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("create base path %s: %w", opts.BasePath, err)
	}
	s := &Store{fs: fs, opts: opts, folders: make(map[domain.FolderID]struct{}), now: time.Now}

	entries, err := afero.ReadDir(fs, opts.BasePath)
	if err != nil {
		return nil, fmt.Errorf("read base path %s: %w", opts.BasePath, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if id, err := domain.ParseFolderID(e.Name()); err == nil {
			s.folders[id] = struct{}{}
		}
	}
	log.Info().Str("module", "storage").Str("base_path", opts.BasePath).Int("folders", len(s.folders)).Msg("storage ready")
	return s, nil
}

func (s *Store) dir(id domain.FolderID) (string, error) {
	parsed, err := domain.ParseFolderID(string(id))
	if err != nil {
		return "", err
	}
	return filepath.Join(s.opts.BasePath, string(parsed)), nil
}

// CreateFolder makes the folder if missing and returns its path.
func (s *Store) CreateFolder(_ context.Context, id domain.FolderID) (string, error) {
	dir, err := s.dir(id)
	if err != nil {
		return "", err
	}
	if ok, _ := afero.DirExists(s.fs, dir); !ok {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create folder %s: %w", id, err)
		}
		log.Info().Str("module", "storage").Str("folder", string(id)).Msg("created session folder")
	}
	s.mu.Lock()
	s.folders[id] = struct{}{}
	s.mu.Unlock()
	return dir, nil
}

func (s *Store) FolderExists(id domain.FolderID) bool {
	dir, err := s.dir(id)
	if err != nil {
		return false
	}
	ok, _ := afero.DirExists(s.fs, dir)
	return ok
}

// CleanupFolder removes the folder and everything in it.
func (s *Store) CleanupFolder(id domain.FolderID) (bool, error) {
	dir, err := s.dir(id)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	delete(s.folders, id)
	s.mu.Unlock()
	if ok, _ := afero.DirExists(s.fs, dir); !ok {
		log.Warn().Str("module", "storage").Str("folder", string(id)).Msg("cleanup: folder does not exist")
		return false, nil
	}
	if err := s.fs.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("remove folder %s: %w", id, err)
	}
	log.Info().Str("module", "storage").Str("folder", string(id)).Msg("cleaned up session folder")
	return true, nil
}

func (s *Store) walk(id domain.FolderID, fn func(os.FileInfo)) error {
	dir, err := s.dir(id)
	if err != nil {
		return err
	}
	if ok, _ := afero.DirExists(s.fs, dir); !ok {
		return nil
	}
	return afero.Walk(s.fs, dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			fn(info)
		}
		return nil
	})
}

func (s *Store) FolderSize(id domain.FolderID) (int64, error) {
	var total int64
	err := s.walk(id, func(fi os.FileInfo) { total += fi.Size() })
	return total, err
}

func (s *Store) FileCount(id domain.FolderID) (int, error) {
	n := 0
	err := s.walk(id, func(os.FileInfo) { n++ })
	return n, err
}

// ListFiles returns the sorted names of the regular files in the folder.
func (s *Store) ListFiles(_ context.Context, id domain.FolderID) ([]string, error) {
	infos, err := s.files(id)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(infos))
	for _, fi := range infos {
		out = append(out, fi.Name())
	}
	return out, nil
}

func (s *Store) files(id domain.FolderID) ([]os.FileInfo, error) {
	dir, err := s.dir(id)
	if err != nil {
		return nil, err
	}
	if ok, _ := afero.DirExists(s.fs, dir); !ok {
		return nil, nil
	}
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("list folder %s: %w", id, err)
	}
	out := entries[:0]
	for _, e := range entries {
		if e.Mode().IsRegular() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

type FileInfo struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"filepath"`
	Size      int64     `json:"size"`
	Modified  time.Time `json:"modified"`
	Extension string    `json:"extension"`
}

func (s *Store) FileDetails(id domain.FolderID) ([]FileInfo, error) {
	infos, err := s.files(id)
	if err != nil {
		return nil, err
	}
	dir, _ := s.dir(id)
	out := make([]FileInfo, 0, len(infos))
	for _, fi := range infos {
		out = append(out, FileInfo{
			Filename:  fi.Name(),
			Path:      filepath.Join(dir, fi.Name()),
			Size:      fi.Size(),
			Modified:  fi.ModTime(),
			Extension: strings.ToLower(filepath.Ext(fi.Name())),
		})
	}
	return out, nil
}

// SaveFile writes data under a unique name derived from filename and returns the path.
func (s *Store) SaveFile(ctx context.Context, id domain.FolderID, filename string, data []byte) (string, error) {
	if int64(len(data)) > s.opts.MaxFileSize {
		return "", fmt.Errorf("%w: size %d exceeds maximum %d bytes", domain.ErrInvalidFile, len(data), s.opts.MaxFileSize)
	}
	name, err := cleanName(filename)
	if err != nil {
		return "", err
	}
	dir, err := s.CreateFolder(ctx, id)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, s.uniqueName(name))
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Str("module", "storage").Str("folder", string(id)).Str("file", path).Int("bytes", len(data)).Msg("file saved")
	return path, nil
}

func (s *Store) uniqueName(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%s_%s%s", base, s.now().Format("20060102_150405"), uuid.NewString()[:8], ext)
}

func cleanName(filename string) (string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "", fmt.Errorf("%w: bad file name %q", domain.ErrInvalidFile, filename)
	}
	return name, nil
}

// DeleteFile removes one file; false when it does not exist.
func (s *Store) DeleteFile(id domain.FolderID, filename string) (bool, error) {
	dir, err := s.dir(id)
	if err != nil {
		return false, err
	}
	name, err := cleanName(filename)
	if err != nil || name != filename {
		return false, domain.ErrInvalidFile
	}
	path := filepath.Join(dir, name)
	if ok, _ := afero.Exists(s.fs, path); !ok {
		log.Warn().Str("module", "storage").Str("folder", string(id)).Str("file", name).Msg("delete: file not found")
		return false, nil
	}
	if err := s.fs.Remove(path); err != nil {
		return false, fmt.Errorf("delete %s: %w", path, err)
	}
	log.Info().Str("module", "storage").Str("file", path).Msg("file deleted")
	return true, nil
}

// CleanupOldFiles deletes files not modified within the last days.
func (s *Store) CleanupOldFiles(id domain.FolderID, days int) (int, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	infos, err := s.files(id)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, fi := range infos {
		if !fi.ModTime().Before(cutoff) {
			continue
		}
		if ok, err := s.DeleteFile(id, fi.Name()); err != nil {
			log.Error().Err(err).Str("module", "storage").Str("folder", string(id)).Msg("cleanup old file")
		} else if ok {
			n++
		}
	}
	return n, nil
}

// CleanupEmptyFolders removes known folders that hold no files.
func (s *Store) CleanupEmptyFolders() (int, error) {
	s.mu.RLock()
	ids := make([]domain.FolderID, 0, len(s.folders))
	for id := range s.folders {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	n := 0
	for _, id := range ids {
		count, err := s.FileCount(id)
		if err != nil || count > 0 {
			continue
		}
		if ok, _ := s.CleanupFolder(id); ok {
			n++
		}
	}
	if n > 0 {
		log.Info().Str("module", "storage").Int("folders", n).Msg("cleaned up empty folders")
	}
	return n, nil
}

// ValidateExtension reports whether name has an extension allowed for kind ("audio" or "video").
func (s *Store) ValidateExtension(name, kind string) bool {
	exts, ok := s.opts.AllowedExtensions[kind]
	if !ok {
		return false
	}
	return slices.Contains(exts, strings.ToLower(filepath.Ext(name)))
}

type Stats struct {
	ActiveSessions    int                 `json:"active_sessions"`
	BasePath          string              `json:"base_path"`
	MaxFileSize       int64               `json:"max_file_size"`
	AllowedExtensions map[string][]string `json:"allowed_extensions"`
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		ActiveSessions:    len(s.folders),
		BasePath:          s.opts.BasePath,
		MaxFileSize:       s.opts.MaxFileSize,
		AllowedExtensions: s.opts.AllowedExtensions,
	}
}

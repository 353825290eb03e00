package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var _ VideoSource = (*LocalStorage)(nil)

type LocalStorage struct {
	moviesDir string
}

func NewLocalStorage(moviesDir string) *LocalStorage {
	return &LocalStorage{moviesDir: moviesDir}
}

func (s *LocalStorage) Dir() string {
	return s.moviesDir
}

func (s *LocalStorage) ListVideos(_ context.Context) ([]VideoFile, error) {
	entries, err := os.ReadDir(s.moviesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read movies directory: %w", err)
	}

	var videos []VideoFile
	for _, entry := range entries {
		if entry.IsDir() || !isVideo(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		videos = append(videos, VideoFile{Name: entry.Name(), Size: info.Size()})
	}

	return videos, nil
}

func (s *LocalStorage) Stat(_ context.Context, name string) (VideoFile, error) {
	if name != filepath.Base(name) {
		return VideoFile{}, fmt.Errorf("invalid video name %q", name)
	}

	path := filepath.Join(s.moviesDir, name)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return VideoFile{}, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return VideoFile{}, fmt.Errorf("failed to stat video: %w", err)
	}
	if info.IsDir() {
		return VideoFile{}, fmt.Errorf("%s is a directory: %w", path, ErrNotFound)
	}

	return VideoFile{Name: name, Size: info.Size()}, nil
}

// Fetch returns the path inside the movies directory; nothing is copied.
func (s *LocalStorage) Fetch(ctx context.Context, name string) (string, error) {
	if _, err := s.Stat(ctx, name); err != nil {
		return "", err
	}
	return filepath.Join(s.moviesDir, name), nil
}

func (s *LocalStorage) EnsureDirectories() error {
	if err := os.MkdirAll(s.moviesDir, 0755); err != nil {
		return fmt.Errorf("failed to create movies directory: %w", err)
	}
	return nil
}

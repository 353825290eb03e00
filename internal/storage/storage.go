package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("video not found")

type VideoFile struct {
	Name string
	Size int64
}

// VideoSource lists rendered chapter videos and resolves one to a local path
// that can be streamed to an uploader. Stat checks a single video without
// materialising it locally.
type VideoSource interface {
	ListVideos(ctx context.Context) ([]VideoFile, error)
	Stat(ctx context.Context, name string) (VideoFile, error)
	Fetch(ctx context.Context, name string) (string, error)
}

func isVideo(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".mov", ".mkv":
		return true
	}
	return false
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

var _ VideoSource = (*GCSStorage)(nil)

// GCSStorage reads chapter videos from a bucket prefix. Fetched objects are
// cached on local disk and reused while their size matches the object.
type GCSStorage struct {
	client        *storage.Client
	bucket        string
	prefix        string
	localCacheDir string
}

func NewGCSStorage(ctx context.Context, bucket, prefix, localCacheDir string) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{
		client:        client,
		bucket:        bucket,
		prefix:        normalizePrefix(prefix),
		localCacheDir: localCacheDir,
	}, nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}

func (s *GCSStorage) ListVideos(ctx context.Context) ([]VideoFile, error) {
	query := &storage.Query{Prefix: s.prefix}
	if err := query.SetAttrSelection([]string{"Name", "Size"}); err != nil {
		return nil, fmt.Errorf("failed to set attribute selection: %w", err)
	}

	var videos []VideoFile
	it := s.client.Bucket(s.bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		name, ok := videoName(s.prefix, attrs.Name)
		if !ok {
			continue
		}
		videos = append(videos, VideoFile{Name: name, Size: attrs.Size})
	}

	return videos, nil
}

// Stat reads object attributes only; the video is not downloaded.
func (s *GCSStorage) Stat(ctx context.Context, name string) (VideoFile, error) {
	_, attrs, err := s.object(ctx, name)
	if err != nil {
		return VideoFile{}, err
	}
	return VideoFile{Name: name, Size: attrs.Size}, nil
}

func (s *GCSStorage) Fetch(ctx context.Context, name string) (string, error) {
	obj, attrs, err := s.object(ctx, name)
	if err != nil {
		return "", err
	}

	localPath := filepath.Join(s.localCacheDir, name)
	if info, err := os.Stat(localPath); err == nil && info.Size() == attrs.Size {
		return localPath, nil
	}

	if err := s.downloadFile(ctx, obj, localPath); err != nil {
		return "", fmt.Errorf("failed to download video: %w", err)
	}

	return localPath, nil
}

func (s *GCSStorage) object(ctx context.Context, name string) (*storage.ObjectHandle, *storage.ObjectAttrs, error) {
	if name != path.Base(name) {
		return nil, nil, fmt.Errorf("invalid video name %q", name)
	}

	obj := s.client.Bucket(s.bucket).Object(s.prefix + name)
	attrs, err := obj.Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, nil, fmt.Errorf("gs://%s/%s%s: %w", s.bucket, s.prefix, name, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read object attributes: %w", err)
	}
	return obj, attrs, nil
}

func (s *GCSStorage) downloadFile(ctx context.Context, obj *storage.ObjectHandle, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	r, err := obj.NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to create reader: %w", err)
	}
	defer func() { _ = r.Close() }()

	f, err := os.CreateTemp(filepath.Dir(localPath), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to copy object: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close local file: %w", err)
	}

	return os.Rename(f.Name(), localPath)
}

func (s *GCSStorage) EnsureCacheDir() error {
	return os.MkdirAll(s.localCacheDir, 0755)
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// videoName maps an object name to a flat video file name. Objects in nested
// "directories" below the prefix are ignored.
func videoName(prefix, object string) (string, bool) {
	rest, ok := strings.CutPrefix(object, prefix)
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, isVideo(rest)
}

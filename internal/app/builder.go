package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"versecast/internal/bible"
	"versecast/internal/distribution/youtube"
	"versecast/internal/history"
	"versecast/internal/metrics"
	"versecast/internal/storage"
	"versecast/pkg/config"
)

var ErrNoCredentials = errors.New("no YouTube OAuth credentials (client secrets file or YOUTUBE_CLIENT_ID/YOUTUBE_CLIENT_SECRET)")

// BuildService wires the configured history backend, video source and, when
// credentials exist, the YouTube client. With needPlatform set a missing
// credential is an error instead of a nil platform.
func BuildService(ctx context.Context, cfg *config.Config, needPlatform bool) (*Service, error) {
	meta, err := NewMetadata(MetadataTemplates{
		Title:               cfg.YouTube.TitleTemplate,
		Description:         cfg.YouTube.DescriptionTemplate,
		PlaylistTitle:       cfg.YouTube.PlaylistTitle,
		PlaylistDescription: cfg.YouTube.PlaylistDescription,
	})
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	source, err := OpenSource(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	opts := ServiceOptions{
		Config:   cfg,
		Store:    store,
		Source:   source,
		Order:    bible.Canonical(),
		Metadata: meta,
		Metrics:  metrics.New(),
	}

	auth, err := NewYouTubeAuth(cfg)
	switch {
	case err == nil:
		opts.Platform = youtube.NewClient(auth, youtube.Options{
			ChunkSizeMB: cfg.YouTube.ChunkSizeMB,
			CategoryID:  cfg.YouTube.CategoryID,
		})
	case needPlatform:
		_ = NewService(opts).Close()
		return nil, err
	default:
		slog.Debug("YouTube client not configured", "error", err)
	}

	return NewService(opts), nil
}

func OpenStore(ctx context.Context, cfg *config.Config) (history.Store, error) {
	switch cfg.History.Backend {
	case config.BackendSQLite:
		return history.NewSQLiteStore(ctx, cfg.History.SQLitePath)
	case config.BackendJSON, "":
		store := history.NewFileStore(cfg.Paths.HistoryFile)
		slog.Debug("Using JSON history", "path", store.Path())
		return store, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}
}

func OpenSource(ctx context.Context, cfg *config.Config) (storage.VideoSource, error) {
	switch cfg.Storage.Provider {
	case config.ProviderGCS:
		gcs, err := storage.NewGCSStorage(ctx, cfg.Storage.Bucket, cfg.Storage.Prefix, cfg.Storage.CacheDir)
		if err != nil {
			return nil, err
		}
		if err := gcs.EnsureCacheDir(); err != nil {
			_ = gcs.Close()
			return nil, err
		}
		return gcs, nil
	case config.ProviderLocal, "":
		local := storage.NewLocalStorage(cfg.Paths.MoviesDir)
		if err := local.EnsureDirectories(); err != nil {
			return nil, err
		}
		slog.Debug("Reading videos from local directory", "dir", local.Dir())
		return local, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}

// NewYouTubeAuth prefers the downloaded client secrets file and falls back to
// a client id and secret from the environment or Secret Manager.
func NewYouTubeAuth(cfg *config.Config) (*youtube.Auth, error) {
	if _, err := os.Stat(cfg.YouTube.ClientSecretsFile); err == nil {
		return youtube.NewAuthFromFile(cfg.YouTube.ClientSecretsFile, cfg.YouTube.TokenPath)
	}
	if cfg.YouTubeClientID != "" && cfg.YouTubeClientSecret != "" {
		return youtube.NewAuth(cfg.YouTubeClientID, cfg.YouTubeClientSecret, cfg.YouTube.TokenPath), nil
	}
	return nil, ErrNoCredentials
}

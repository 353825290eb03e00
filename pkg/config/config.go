package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath          = "config.yaml"
	defaultMoviesDir           = "./movies"
	defaultSecretsDir          = "./secrets"
	defaultHistoryFile         = "./video_history.json"
	defaultHistoryBackend      = BackendJSON
	defaultSQLitePath          = "./video_history.db"
	defaultStorageProvider     = ProviderLocal
	defaultGCSPrefix           = "movies"
	defaultCacheDir            = "./.cache/movies"
	defaultClientSecretsName   = "client_secret.json"
	defaultTokenName           = "token.json"
	defaultPrivacyStatus       = "public"
	defaultCategoryID          = "22"
	defaultTitleTemplate       = "{{.Book}} Chapter {{.Chapter}} (NIRV)"
	defaultDescriptionTemplate = "Audio Bible reading of {{.Book}} Chapter {{.Chapter}} in NIRV translation.\n\n#Bible #AudioBible #{{hashtag .Book}}"
	defaultPlaylistTitle       = "{{.Book}} (Bible Reading)"
	defaultPlaylistDescription = "Audio bible reading of the book of {{.Book}} (NIRV)."
	defaultPlaylistKeyword     = "Bible"
	defaultPlaylistPrivacy     = "public"
	defaultMaxRetries          = 10
	defaultBaseDelay           = time.Second
	defaultMaxDelay            = 1024 * time.Second
	defaultCreateInterval      = 2 * time.Second
	defaultInsertInterval      = 1500 * time.Millisecond
	defaultScheduleTime        = "17:01"
	defaultMetricsAddr         = ":9090"
	defaultClientIDSecret      = "youtube-client-id"
	defaultClientSecretSecret  = "youtube-client-secret"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	ProviderLocal = "local"
	ProviderGCS   = "gcs"
)

type Config struct {
	YouTubeClientID     string `yaml:"-"`
	YouTubeClientSecret string `yaml:"-"`
	GCPProject          string `yaml:"-"`

	Paths     PathsConfig     `yaml:"paths"`
	History   HistoryConfig   `yaml:"history"`
	Storage   StorageConfig   `yaml:"storage"`
	YouTube   YouTubeConfig   `yaml:"youtube"`
	Upload    UploadConfig    `yaml:"upload"`
	Playlists PlaylistsConfig `yaml:"playlists"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	GCP       GCPConfig       `yaml:"gcp"`
}

type PathsConfig struct {
	MoviesDir   string `yaml:"movies_dir"`
	SecretsDir  string `yaml:"secrets_dir"`
	HistoryFile string `yaml:"history_file"`
}

type HistoryConfig struct {
	Backend    string `yaml:"backend"` // "json" or "sqlite"
	SQLitePath string `yaml:"sqlite_path"`
}

type StorageConfig struct {
	Provider string `yaml:"provider"` // "local" or "gcs"
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	CacheDir string `yaml:"cache_dir"`
}

type YouTubeConfig struct {
	ClientSecretsFile   string   `yaml:"client_secrets_file"`
	TokenPath           string   `yaml:"token_path"`
	PrivacyStatus       string   `yaml:"privacy_status"`
	CategoryID          string   `yaml:"category_id"`
	Tags                []string `yaml:"tags"`
	ChunkSizeMB         int      `yaml:"chunk_size_mb"`
	TitleTemplate       string   `yaml:"title_template"`
	DescriptionTemplate string   `yaml:"description_template"`
	PlaylistTitle       string   `yaml:"playlist_title"`
	PlaylistDescription string   `yaml:"playlist_description"`
	PlaylistKeyword     string   `yaml:"playlist_keyword"`
	PlaylistPrivacy     string   `yaml:"playlist_privacy"`
}

type UploadConfig struct {
	MaxRetries   int           `yaml:"max_retries"`
	BaseDelay    time.Duration `yaml:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Limit        int           `yaml:"limit"`
	PauseBetween time.Duration `yaml:"pause_between"`
}

type PlaylistsConfig struct {
	CreateInterval time.Duration `yaml:"create_interval"`
	InsertInterval time.Duration `yaml:"insert_interval"`
}

type ScheduleConfig struct {
	Time string `yaml:"time"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type GCPConfig struct {
	ClientIDSecret     string `yaml:"client_id_secret"`
	ClientSecretSecret string `yaml:"client_secret_secret"`
}

func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		YouTubeClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
		YouTubeClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
		GCPProject:          os.Getenv("GOOGLE_CLOUD_PROJECT"),
	}

	if err := loadYAMLConfig(cfg, getEnvOrDefault("VERSECAST_CONFIG", defaultConfigPath)); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.GCPProject != "" && (cfg.YouTubeClientID == "" || cfg.YouTubeClientSecret == "") {
		if err := loadSecrets(ctx, cfg); err != nil {
			slog.Warn("Failed to load YouTube credentials from Secret Manager", "project", cfg.GCPProject, "error", err)
		}
	}

	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("No config file found, using defaults", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.YouTube.TokenPath = getEnvOrDefault("YOUTUBE_TOKEN_PATH", cfg.YouTube.TokenPath)
	cfg.YouTube.ClientSecretsFile = getEnvOrDefault("YOUTUBE_CLIENT_SECRETS_FILE", cfg.YouTube.ClientSecretsFile)
	cfg.Storage.Bucket = getEnvOrDefault("GCS_BUCKET", cfg.Storage.Bucket)
}

func applyDefaults(cfg *Config) {
	applyPathsDefaults(cfg)
	applyHistoryDefaults(cfg)
	applyStorageDefaults(cfg)
	applyYouTubeDefaults(cfg)
	applyUploadDefaults(cfg)
	applyPlaylistsDefaults(cfg)
	applyScheduleDefaults(cfg)
	applyGCPDefaults(cfg)
}

func applyPathsDefaults(cfg *Config) {
	if cfg.Paths.MoviesDir == "" {
		cfg.Paths.MoviesDir = defaultMoviesDir
	}
	if cfg.Paths.SecretsDir == "" {
		cfg.Paths.SecretsDir = defaultSecretsDir
	}
	if cfg.Paths.HistoryFile == "" {
		cfg.Paths.HistoryFile = defaultHistoryFile
	}
}

func applyHistoryDefaults(cfg *Config) {
	if cfg.History.Backend == "" {
		cfg.History.Backend = defaultHistoryBackend
	}
	if cfg.History.SQLitePath == "" {
		cfg.History.SQLitePath = defaultSQLitePath
	}
}

func applyStorageDefaults(cfg *Config) {
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = defaultStorageProvider
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = defaultGCSPrefix
	}
	if cfg.Storage.CacheDir == "" {
		cfg.Storage.CacheDir = defaultCacheDir
	}
}

func applyYouTubeDefaults(cfg *Config) {
	yt := &cfg.YouTube
	if yt.ClientSecretsFile == "" {
		yt.ClientSecretsFile = filepath.Join(cfg.Paths.SecretsDir, defaultClientSecretsName)
	}
	if yt.TokenPath == "" {
		yt.TokenPath = filepath.Join(cfg.Paths.SecretsDir, defaultTokenName)
	}
	if yt.PrivacyStatus == "" {
		yt.PrivacyStatus = defaultPrivacyStatus
	}
	if yt.CategoryID == "" {
		yt.CategoryID = defaultCategoryID
	}
	if len(yt.Tags) == 0 {
		yt.Tags = []string{"Bible", "Audio Bible", "NIRV"}
	}
	if yt.TitleTemplate == "" {
		yt.TitleTemplate = defaultTitleTemplate
	}
	if yt.DescriptionTemplate == "" {
		yt.DescriptionTemplate = defaultDescriptionTemplate
	}
	if yt.PlaylistTitle == "" {
		yt.PlaylistTitle = defaultPlaylistTitle
	}
	if yt.PlaylistDescription == "" {
		yt.PlaylistDescription = defaultPlaylistDescription
	}
	if yt.PlaylistKeyword == "" {
		yt.PlaylistKeyword = defaultPlaylistKeyword
	}
	if yt.PlaylistPrivacy == "" {
		yt.PlaylistPrivacy = defaultPlaylistPrivacy
	}
}

func applyUploadDefaults(cfg *Config) {
	if cfg.Upload.MaxRetries == 0 {
		cfg.Upload.MaxRetries = defaultMaxRetries
	}
	if cfg.Upload.BaseDelay == 0 {
		cfg.Upload.BaseDelay = defaultBaseDelay
	}
	if cfg.Upload.MaxDelay == 0 {
		cfg.Upload.MaxDelay = defaultMaxDelay
	}
}

func applyPlaylistsDefaults(cfg *Config) {
	if cfg.Playlists.CreateInterval == 0 {
		cfg.Playlists.CreateInterval = defaultCreateInterval
	}
	if cfg.Playlists.InsertInterval == 0 {
		cfg.Playlists.InsertInterval = defaultInsertInterval
	}
}

func applyScheduleDefaults(cfg *Config) {
	if cfg.Schedule.Time == "" {
		cfg.Schedule.Time = defaultScheduleTime
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = defaultMetricsAddr
	}
}

func applyGCPDefaults(cfg *Config) {
	if cfg.GCP.ClientIDSecret == "" {
		cfg.GCP.ClientIDSecret = defaultClientIDSecret
	}
	if cfg.GCP.ClientSecretSecret == "" {
		cfg.GCP.ClientSecretSecret = defaultClientSecretSecret
	}
}

func (c *Config) Validate() error {
	switch c.History.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown history backend %q (want %q or %q)", c.History.Backend, BackendJSON, BackendSQLite)
	}

	switch c.Storage.Provider {
	case ProviderLocal:
	case ProviderGCS:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage provider %q requires a bucket (storage.bucket or GCS_BUCKET)", ProviderGCS)
		}
	default:
		return fmt.Errorf("unknown storage provider %q (want %q or %q)", c.Storage.Provider, ProviderLocal, ProviderGCS)
	}

	if c.Upload.MaxRetries < 0 {
		return fmt.Errorf("upload.max_retries must not be negative")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

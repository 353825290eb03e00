package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"versecast/internal/bible"
	"versecast/internal/distribution"
	"versecast/internal/history"
	"versecast/internal/storage"
	"versecast/pkg/config"
)

type fakePlatform struct {
	uploadErrs []error
	uploads    []distribution.UploadRequest
	onUpload   func(req distribution.UploadRequest)
	uploaded   int

	playlists    []distribution.Playlist
	items        map[string][]string
	channel      []distribution.Video
	listErr      error
	listItemsErr map[string]error
	addErr       error
	created      []string
}

func (f *fakePlatform) Platform() string {
	return "fake"
}

func (f *fakePlatform) Upload(_ context.Context, req distribution.UploadRequest) (*distribution.UploadResponse, error) {
	f.uploads = append(f.uploads, req)
	if f.onUpload != nil {
		f.onUpload(req)
	}
	if len(f.uploadErrs) > 0 {
		err := f.uploadErrs[0]
		f.uploadErrs = f.uploadErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	f.uploaded++
	id := fmt.Sprintf("vid-%d", f.uploaded)
	return &distribution.UploadResponse{ID: id, URL: "https://www.youtube.com/watch?v=" + id, Platform: "fake"}, nil
}

func (f *fakePlatform) ListPlaylists(_ context.Context) ([]distribution.Playlist, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]distribution.Playlist(nil), f.playlists...), nil
}

func (f *fakePlatform) CreatePlaylist(_ context.Context, title, _, _ string) (*distribution.Playlist, error) {
	p := distribution.Playlist{ID: fmt.Sprintf("PL-new-%d", len(f.created)+1), Title: title}
	f.created = append(f.created, title)
	f.playlists = append(f.playlists, p)
	return &p, nil
}

func (f *fakePlatform) ListPlaylistItems(_ context.Context, playlistID string) ([]string, error) {
	if err := f.listItemsErr[playlistID]; err != nil {
		return nil, err
	}
	return append([]string(nil), f.items[playlistID]...), nil
}

func (f *fakePlatform) AddToPlaylist(_ context.Context, playlistID, videoID string) error {
	if f.addErr != nil {
		return f.addErr
	}
	if f.items == nil {
		f.items = make(map[string][]string)
	}
	f.items[playlistID] = append(f.items[playlistID], videoID)
	return nil
}

func (f *fakePlatform) ListUploads(_ context.Context) ([]distribution.Video, error) {
	return f.channel, nil
}

func testConfig() *config.Config {
	return &config.Config{
		YouTube: config.YouTubeConfig{
			PrivacyStatus:       "public",
			CategoryID:          "22",
			Tags:                []string{"Bible", "NIRV"},
			TitleTemplate:       "{{.Book}} Chapter {{.Chapter}} (NIRV)",
			DescriptionTemplate: "Audio Bible reading of {{.Book}} Chapter {{.Chapter}}.\n\n#Bible #{{hashtag .Book}}",
			PlaylistTitle:       "{{.Book}} (Bible Reading)",
			PlaylistDescription: "Audio bible reading of the book of {{.Book}}.",
			PlaylistKeyword:     "Bible",
			PlaylistPrivacy:     "public",
		},
		Upload: config.UploadConfig{
			MaxRetries: 10,
			BaseDelay:  time.Millisecond,
			MaxDelay:   2 * time.Millisecond,
		},
	}
}

type testEnv struct {
	svc       *Service
	store     history.Store
	moviesDir string
}

// newTestEnv builds a service over a temp movies dir holding one file per
// record, plus any extra file names.
func newTestEnv(t *testing.T, cfg *config.Config, platform distribution.Platform, records []history.Record, extraFiles ...string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	moviesDir := filepath.Join(dir, "movies")
	if err := os.MkdirAll(moviesDir, 0755); err != nil {
		t.Fatal(err)
	}

	files := extraFiles
	for _, r := range records {
		if r.FileName != "" {
			files = append(files, r.FileName)
		}
	}
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(moviesDir, name), []byte("video"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	store := history.NewFileStore(filepath.Join(dir, "video_history.json"))
	if len(records) > 0 {
		if err := store.Append(context.Background(), records...); err != nil {
			t.Fatalf("seed history: %v", err)
		}
	}

	meta, err := NewMetadata(MetadataTemplates{
		Title:               cfg.YouTube.TitleTemplate,
		Description:         cfg.YouTube.DescriptionTemplate,
		PlaylistTitle:       cfg.YouTube.PlaylistTitle,
		PlaylistDescription: cfg.YouTube.PlaylistDescription,
	})
	if err != nil {
		t.Fatalf("NewMetadata() error: %v", err)
	}

	svc := NewService(ServiceOptions{
		Config:   cfg,
		Store:    store,
		Source:   storage.NewLocalStorage(moviesDir),
		Platform: platform,
		Order:    bible.Canonical(),
		Metadata: meta,
	})
	svc.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }

	return &testEnv{svc: svc, store: store, moviesDir: moviesDir}
}

func (e *testEnv) records(t *testing.T) map[bible.Key]history.Record {
	t.Helper()
	records, err := e.store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return history.Index(records)
}

func pending(book string, chapter int) history.Record {
	return history.Record{
		Book:     book,
		Chapter:  chapter,
		FileName: strings.ReplaceAll(book, " ", "_") + fmt.Sprintf("_Chapter_%d.mp4", chapter),
	}
}

func uploaded(book string, chapter int, videoID string) history.Record {
	r := pending(book, chapter)
	r.Uploaded = true
	r.VideoID = videoID
	return r
}

func TestNewServiceDefaults(t *testing.T) {
	cfg := &config.Config{}
	svc := NewService(ServiceOptions{Config: cfg})

	if svc.cfg != cfg {
		t.Error("NewService() did not keep the config")
	}
	if svc.platform != nil {
		t.Error("platform should stay nil when not set")
	}
	if svc.Metrics() != nil {
		t.Error("Metrics() should return nil when set to nil")
	}
	if svc.order == nil {
		t.Error("NewService() should default to the canonical order")
	}
}

func TestMetadata(t *testing.T) {
	cfg := testConfig()
	meta, err := NewMetadata(MetadataTemplates{
		Title:               cfg.YouTube.TitleTemplate,
		Description:         cfg.YouTube.DescriptionTemplate,
		PlaylistTitle:       cfg.YouTube.PlaylistTitle,
		PlaylistDescription: cfg.YouTube.PlaylistDescription,
	})
	if err != nil {
		t.Fatalf("NewMetadata() error: %v", err)
	}

	title, _ := meta.Title("1 Kings", 9)
	if title != "1 Kings Chapter 9 (NIRV)" {
		t.Errorf("Title() = %q", title)
	}

	description, _ := meta.Description("Song of Solomon", 2)
	if !strings.HasSuffix(description, "#Bible #SongofSolomon") {
		t.Errorf("Description() = %q, want hashtag without spaces", description)
	}

	playlist, _ := meta.PlaylistTitle("Ruth")
	if playlist != "Ruth (Bible Reading)" {
		t.Errorf("PlaylistTitle() = %q", playlist)
	}
}

func TestNewMetadataInvalidTemplate(t *testing.T) {
	_, err := NewMetadata(MetadataTemplates{Title: "{{.Book"})
	if err == nil {
		t.Error("NewMetadata() should reject a malformed template")
	}
}

func TestServiceSync(t *testing.T) {
	env := newTestEnv(t, testConfig(), nil, nil, "Genesis_Chapter_1.mp4", "Genesis_Chapter_2.mp4", "cover.png", "Genesis.mp4")

	result, err := env.svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	if len(result.Added) != 2 {
		t.Errorf("Added = %d, want 2", len(result.Added))
	}
	if len(result.Invalid) != 1 {
		t.Errorf("Invalid = %v, want [Genesis.mp4]", result.Invalid)
	}

	again, err := env.svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("second Sync() error: %v", err)
	}
	if len(again.Added) != 0 || again.Skipped != 2 {
		t.Errorf("second Sync() = %+v, want nothing added and 2 skipped", again)
	}
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		backend string
		wantErr bool
	}{
		{name: "json", backend: config.BackendJSON},
		{name: "sqlite", backend: config.BackendSQLite},
		{name: "unknown", backend: "mongo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Paths:   config.PathsConfig{HistoryFile: filepath.Join(dir, tt.name+".json")},
				History: config.HistoryConfig{Backend: tt.backend, SQLitePath: filepath.Join(dir, tt.name+".db")},
			}
			store, err := OpenStore(context.Background(), cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("OpenStore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if store != nil {
				_ = store.Close()
			}
		})
	}
}

func TestOpenSourceLocal(t *testing.T) {
	cfg := &config.Config{
		Paths:   config.PathsConfig{MoviesDir: t.TempDir()},
		Storage: config.StorageConfig{Provider: config.ProviderLocal},
	}
	source, err := OpenSource(context.Background(), cfg)
	if err != nil {
		t.Fatalf("OpenSource() error: %v", err)
	}
	if _, ok := source.(*storage.LocalStorage); !ok {
		t.Errorf("OpenSource() = %T, want *storage.LocalStorage", source)
	}
}

func TestNewYouTubeAuth(t *testing.T) {
	dir := t.TempDir()
	secrets := filepath.Join(dir, "client_secret.json")
	_ = os.WriteFile(secrets, []byte(`{"installed":{"client_id":"id","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`), 0600)

	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr error
	}{
		{
			name: "secretsFile",
			cfg: &config.Config{YouTube: config.YouTubeConfig{
				ClientSecretsFile: secrets,
				TokenPath:         filepath.Join(dir, "token.json"),
			}},
		},
		{
			name: "clientID",
			cfg: &config.Config{
				YouTubeClientID:     "id",
				YouTubeClientSecret: "secret",
				YouTube:             config.YouTubeConfig{ClientSecretsFile: filepath.Join(dir, "missing.json")},
			},
		},
		{
			name:    "nothing",
			cfg:     &config.Config{YouTube: config.YouTubeConfig{ClientSecretsFile: filepath.Join(dir, "missing.json")}},
			wantErr: ErrNoCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, err := NewYouTubeAuth(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewYouTubeAuth() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || auth == nil {
				t.Errorf("NewYouTubeAuth() = %v, %v", auth, err)
			}
		})
	}
}

func TestBuildServiceRequiresCredentials(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Paths = config.PathsConfig{MoviesDir: dir, HistoryFile: filepath.Join(dir, "history.json")}
	cfg.History.Backend = config.BackendJSON
	cfg.Storage.Provider = config.ProviderLocal
	cfg.YouTube.ClientSecretsFile = filepath.Join(dir, "missing.json")

	if _, err := BuildService(context.Background(), cfg, true); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("BuildService() error = %v, want ErrNoCredentials", err)
	}

	svc, err := BuildService(context.Background(), cfg, false)
	if err != nil {
		t.Fatalf("BuildService() error: %v", err)
	}
	defer func() { _ = svc.Close() }()
	if svc.platform != nil {
		t.Error("Platform() should be nil without credentials")
	}
	if svc.Metrics() == nil {
		t.Error("Metrics() should be set")
	}
}

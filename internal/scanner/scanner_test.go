package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"versecast/internal/bible"
	"versecast/internal/history"
	"versecast/internal/storage"
)

func TestParseFileName(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		wantBook    string
		wantChapter int
		wantErr     bool
	}{
		{name: "numberedBook", file: "1_Kings_Chapter_9.mp4", wantBook: "1 Kings", wantChapter: 9},
		{name: "simple", file: "Genesis_Chapter_50.mp4", wantBook: "Genesis", wantChapter: 50},
		{name: "multiWord", file: "Song_of_Solomon_Chapter_2.mp4", wantBook: "Song of Solomon", wantChapter: 2},
		{name: "nonIntegerChapter", file: "Genesis_Chapter_one.mp4", wantErr: true},
		{name: "zeroChapter", file: "Genesis_Chapter_0.mp4", wantErr: true},
		{name: "missingMarker", file: "Genesis_1.mp4", wantErr: true},
		{name: "missingBook", file: "_Chapter_1.mp4", wantErr: true},
		{name: "wrongExtension", file: "Genesis_Chapter_1.mov", wantErr: true},
		{name: "emptyChapter", file: "Genesis_Chapter_.mp4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book, chapter, err := ParseFileName(tt.file)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFileName) {
					t.Errorf("ParseFileName(%q) error = %v, want ErrInvalidFileName", tt.file, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFileName(%q) error = %v", tt.file, err)
			}
			if book != tt.wantBook || chapter != tt.wantChapter {
				t.Errorf("ParseFileName(%q) = %q, %d; want %q, %d", tt.file, book, chapter, tt.wantBook, tt.wantChapter)
			}
		})
	}
}

func TestFileNameRoundTrip(t *testing.T) {
	name := FileName("1 Kings", 9)
	if name != "1_Kings_Chapter_9.mp4" {
		t.Fatalf("FileName() = %q", name)
	}
	book, chapter, err := ParseFileName(name)
	if err != nil || book != "1 Kings" || chapter != 9 {
		t.Errorf("ParseFileName(FileName()) = %q, %d, %v", book, chapter, err)
	}
}

func newFixture(t *testing.T, files ...string) (*storage.LocalStorage, *history.FileStore) {
	t.Helper()
	dir := t.TempDir()
	moviesDir := filepath.Join(dir, "movies")
	_ = os.MkdirAll(moviesDir, 0755)
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(moviesDir, f), make([]byte, 1024*1024), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return storage.NewLocalStorage(moviesDir), history.NewFileStore(filepath.Join(dir, "video_history.json"))
}

func TestSyncAddsNewFiles(t *testing.T) {
	source, store := newFixture(t, "Genesis_Chapter_1.mp4", "1_Kings_Chapter_9.mp4", "cover.mov", "Exodus_Chapter_x.mp4")

	s := New(source, store, bible.Canonical())
	s.now = func() time.Time { return time.Date(2025, 1, 4, 17, 3, 0, 0, time.Local) }

	result, err := s.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if len(result.Added) != 2 {
		t.Fatalf("Added = %d, want 2", len(result.Added))
	}
	if len(result.Invalid) != 2 {
		t.Errorf("Invalid = %v, want 2 entries", result.Invalid)
	}

	records, _ := store.Load(context.Background())
	if len(records) != 2 {
		t.Fatalf("store has %d records, want 2", len(records))
	}
	for _, r := range records {
		if r.Uploaded {
			t.Errorf("%s should be pending", r.FileName)
		}
		if r.SizeMB != 1 {
			t.Errorf("%s SizeMB = %v, want 1", r.FileName, r.SizeMB)
		}
		if r.CreatedAt != "2025-01-04T17:03:00.000000" {
			t.Errorf("%s CreatedAt = %q", r.FileName, r.CreatedAt)
		}
	}
}

func TestSyncSkipsKnownFiles(t *testing.T) {
	source, store := newFixture(t, "Genesis_Chapter_1.mp4", "Genesis_Chapter_2.mp4")
	ctx := context.Background()

	_ = store.Append(ctx, history.Record{
		Book: "Genesis", Chapter: 1, FileName: "Genesis_Chapter_1.mp4", Uploaded: true, VideoID: "abc",
	})

	result, err := New(source, store, bible.Canonical()).Sync(ctx)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if len(result.Added) != 1 || result.Skipped != 1 {
		t.Errorf("Added = %d, Skipped = %d; want 1, 1", len(result.Added), result.Skipped)
	}

	records, _ := store.Load(ctx)
	if len(records) != 2 {
		t.Fatalf("store has %d records, want 2", len(records))
	}
	if !records[0].Uploaded || records[0].VideoID != "abc" {
		t.Errorf("existing record changed: %+v", records[0])
	}

	again, err := New(source, store, bible.Canonical()).Sync(ctx)
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if len(again.Added) != 0 {
		t.Errorf("second Sync() added %d records, want 0", len(again.Added))
	}
}

func TestSyncSkipsDuplicateChapter(t *testing.T) {
	source, store := newFixture(t, "Ruth_Chapter_1.mp4")
	ctx := context.Background()
	_ = store.Append(ctx, history.Record{Book: "Ruth", Chapter: 1, FileName: "Ruth_Chapter_1_old.mp4"})

	result, err := New(source, store, bible.Canonical()).Sync(ctx)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if len(result.Added) != 0 || result.Skipped != 1 {
		t.Errorf("Added = %d, Skipped = %d; want 0, 1", len(result.Added), result.Skipped)
	}
}

func TestSyncRecordsUnknownBook(t *testing.T) {
	source, store := newFixture(t, "Enoch_Chapter_1.mp4")

	result, err := New(source, store, bible.Canonical()).Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if len(result.Added) != 1 || result.Added[0].Book != "Enoch" {
		t.Errorf("Added = %+v, want Enoch 1", result.Added)
	}
}

func TestSyncLeavesStoreUntouched(t *testing.T) {
	source, store := newFixture(t)

	if _, err := New(source, store, bible.Canonical()).Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if _, err := os.Stat(store.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("history file should not be created when nothing was added: %v", err)
	}
}

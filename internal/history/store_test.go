package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

type storeFactory struct {
	name string
	open func(t *testing.T) Store
}

func storeFactories() []storeFactory {
	return []storeFactory{
		{
			name: "jsonFile",
			open: func(t *testing.T) Store {
				return NewFileStore(filepath.Join(t.TempDir(), "video_history.json"))
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T) Store {
				s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "history.db"))
				if err != nil {
					t.Fatalf("NewSQLiteStore() error: %v", err)
				}
				return s
			},
		},
	}
}

func TestStoreEmpty(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			s := f.open(t)
			defer func() { _ = s.Close() }()

			records, err := s.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if len(records) != 0 {
				t.Errorf("Load() = %v, want empty", records)
			}
		})
	}
}

func TestStoreAppendKeepsOrder(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			s := f.open(t)
			defer func() { _ = s.Close() }()

			if err := s.Append(ctx,
				Record{Book: "Exodus", Chapter: 3, FileName: "Exodus_Chapter_3.mp4"},
				Record{Book: "Genesis", Chapter: 5, FileName: "Genesis_Chapter_5.mp4"},
			); err != nil {
				t.Fatalf("Append() error: %v", err)
			}
			if err := s.Append(ctx, Record{Book: "Genesis", Chapter: 1, FileName: "Genesis_Chapter_1.mp4", SizeMB: 12.5}); err != nil {
				t.Fatalf("Append() error: %v", err)
			}

			records, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}

			want := []string{"Exodus_Chapter_3.mp4", "Genesis_Chapter_5.mp4", "Genesis_Chapter_1.mp4"}
			if len(records) != len(want) {
				t.Fatalf("Load() returned %d records, want %d", len(records), len(want))
			}
			for i, name := range want {
				if records[i].FileName != name {
					t.Errorf("records[%d].FileName = %q, want %q", i, records[i].FileName, name)
				}
			}
			if records[2].SizeMB != 12.5 {
				t.Errorf("SizeMB = %v, want 12.5", records[2].SizeMB)
			}
		})
	}
}

func TestStoreAppendDuplicate(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			s := f.open(t)
			defer func() { _ = s.Close() }()

			if err := s.Append(ctx, Record{Book: "Ruth", Chapter: 1, FileName: "Ruth_Chapter_1.mp4"}); err != nil {
				t.Fatalf("Append() error: %v", err)
			}

			err := s.Append(ctx, Record{Book: "Ruth", Chapter: 1, FileName: "Ruth_Chapter_01.mp4"})
			if !errors.Is(err, ErrDuplicateRecord) {
				t.Errorf("Append() error = %v, want ErrDuplicateRecord", err)
			}

			records, _ := s.Load(ctx)
			if len(records) != 1 {
				t.Errorf("Load() returned %d records, want 1", len(records))
			}
		})
	}
}

func TestStoreUpdate(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			s := f.open(t)
			defer func() { _ = s.Close() }()

			_ = s.Append(ctx,
				Record{Book: "Leviticus", Chapter: 11, FileName: "Leviticus_Chapter_11.mp4"},
				Record{Book: "Leviticus", Chapter: 12, FileName: "Leviticus_Chapter_12.mp4"},
			)

			updated := Record{Book: "Leviticus", Chapter: 11, FileName: "Leviticus_Chapter_11.mp4", Uploaded: true, VideoID: "vid-11"}
			if err := s.Update(ctx, updated); err != nil {
				t.Fatalf("Update() error: %v", err)
			}

			records, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if !records[0].Uploaded || records[0].VideoID != "vid-11" {
				t.Errorf("records[0] = %+v, want uploaded with vid-11", records[0])
			}
			if records[1].Uploaded {
				t.Error("records[1] should not be touched")
			}
		})
	}
}

func TestStoreUpdateMissing(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			s := f.open(t)
			defer func() { _ = s.Close() }()

			err := s.Update(context.Background(), Record{Book: "Jude", Chapter: 1})
			if !errors.Is(err, ErrRecordNotFound) {
				t.Errorf("Update() error = %v, want ErrRecordNotFound", err)
			}
		})
	}
}

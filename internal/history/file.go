package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"versecast/internal/bible"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps the history as a pretty-printed JSON array and rewrites the
// whole file on every mutation. It serialises writers inside one process only.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type entry struct {
	raw    json.RawMessage
	record *Record
	dirty  bool
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		if e.record != nil {
			records = append(records, *e.record)
		}
	}
	return records, nil
}

func (s *FileStore) Append(_ context.Context, records ...Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}

	seen := make(map[bible.Key]bool, len(entries)+len(records))
	for _, e := range entries {
		if e.record != nil {
			seen[e.record.Key()] = true
		}
	}

	for _, r := range records {
		if seen[r.Key()] {
			return fmt.Errorf("%s chapter %d: %w", r.Book, r.Chapter, ErrDuplicateRecord)
		}
		seen[r.Key()] = true
		rec := r
		entries = append(entries, entry{record: &rec, dirty: true})
	}

	return s.write(entries)
}

func (s *FileStore) Update(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}

	for i := range entries {
		e := &entries[i]
		if e.record == nil || e.record.Key() != record.Key() {
			continue
		}
		rec := record
		e.record = &rec
		e.dirty = true
		return s.write(entries)
	}

	return fmt.Errorf("%s chapter %d: %w", record.Book, record.Chapter, ErrRecordNotFound)
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() ([]entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse history file %s: %w", s.path, err)
	}

	entries := make([]entry, 0, len(raws))
	for i, raw := range raws {
		e := entry{raw: raw}
		var r Record
		if err := json.Unmarshal(raw, &r); err != nil {
			slog.Warn("Skipping malformed history entry", "index", i, "error", err)
		} else if r.Book == "" || r.Chapter <= 0 {
			slog.Warn("Skipping history entry without book or chapter", "index", i)
		} else {
			e.record = &r
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *FileStore) write(entries []entry) error {
	out := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		if !e.dirty {
			out = append(out, e.raw)
			continue
		}
		data, err := json.Marshal(e.record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		out = append(out, data)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".history-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod history: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}

// Package scanner reconciles the movies directory with the upload history.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"versecast/internal/bible"
	"versecast/internal/history"
	"versecast/internal/storage"
)

const (
	chapterMarker = "_Chapter_"
	videoExt      = ".mp4"
)

var ErrInvalidFileName = errors.New("invalid video file name")

type SyncResult struct {
	Added   []history.Record
	Skipped int
	Invalid []string
}

// ParseFileName extracts the book and chapter from names like
// "1_Kings_Chapter_9.mp4".
func ParseFileName(name string) (string, int, error) {
	stem, ok := strings.CutSuffix(name, videoExt)
	if !ok {
		return "", 0, fmt.Errorf("%q: missing %s extension: %w", name, videoExt, ErrInvalidFileName)
	}

	i := strings.LastIndex(stem, chapterMarker)
	if i <= 0 {
		return "", 0, fmt.Errorf("%q: missing %s marker: %w", name, chapterMarker, ErrInvalidFileName)
	}

	chapter, err := strconv.Atoi(stem[i+len(chapterMarker):])
	if err != nil || chapter <= 0 {
		return "", 0, fmt.Errorf("%q: chapter is not a positive integer: %w", name, ErrInvalidFileName)
	}

	book := strings.ReplaceAll(stem[:i], "_", " ")
	return book, chapter, nil
}

// FileName is the inverse of ParseFileName.
func FileName(book string, chapter int) string {
	return fmt.Sprintf("%s%s%d%s", strings.ReplaceAll(book, " ", "_"), chapterMarker, chapter, videoExt)
}

type Scanner struct {
	source storage.VideoSource
	store  history.Store
	order  bible.Order
	now    func() time.Time
}

func New(source storage.VideoSource, store history.Store, order bible.Order) *Scanner {
	return &Scanner{
		source: source,
		store:  store,
		order:  order,
		now:    time.Now,
	}
}

// Sync appends a pending record for every video file the history does not
// know about yet. The store is written once and only when something was added.
func (s *Scanner) Sync(ctx context.Context) (*SyncResult, error) {
	videos, err := s.source.ListVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	records, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	knownFiles := make(map[string]bool, len(records))
	for _, r := range records {
		knownFiles[r.FileName] = true
	}
	byKey := history.Index(records)

	result := &SyncResult{}
	now := s.now()

	for _, v := range videos {
		if knownFiles[v.Name] {
			result.Skipped++
			continue
		}

		book, chapter, err := ParseFileName(v.Name)
		if err != nil {
			slog.Warn("Skipping unrecognised video file", "file", v.Name, "error", err)
			result.Invalid = append(result.Invalid, v.Name)
			continue
		}

		key := bible.Key{Book: book, Chapter: chapter}
		if existing, ok := byKey[key]; ok {
			slog.Warn("Chapter already tracked under another file",
				"file", v.Name, "existing", existing.FileName, "book", book, "chapter", chapter)
			result.Skipped++
			continue
		}

		if !s.order.Known(book) {
			slog.Warn("Unknown book name, recording anyway", "file", v.Name, "book", book)
		}

		rec := history.NewRecord(book, chapter, v.Name, v.Size, now)
		byKey[key] = rec
		knownFiles[v.Name] = true
		result.Added = append(result.Added, rec)
		slog.Debug("Discovered video", "book", book, "chapter", chapter, "size_mb", rec.SizeMB)
	}

	if len(result.Added) == 0 {
		return result, nil
	}

	if err := s.store.Append(ctx, result.Added...); err != nil {
		return nil, fmt.Errorf("append records: %w", err)
	}

	return result, nil
}

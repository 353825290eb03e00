package app

import (
	"context"
	"fmt"
	"log/slog"

	"versecast/internal/bible"
	"versecast/internal/history"
)

type MarkOptions struct {
	VideoID string
	Unset   bool
}

// Mark flips the uploaded flag of one chapter by hand. The book may be given
// as a full name or an abbreviation.
func (s *Service) Mark(ctx context.Context, book string, chapter int, opts MarkOptions) (history.Record, error) {
	if b, ok := bible.Lookup(book); ok {
		book = b.Name
	}

	records, err := s.store.Load(ctx)
	if err != nil {
		return history.Record{}, fmt.Errorf("load history: %w", err)
	}

	rec, ok := history.Index(records)[bible.Key{Book: book, Chapter: chapter}]
	if !ok {
		return history.Record{}, fmt.Errorf("%s chapter %d: %w", book, chapter, history.ErrRecordNotFound)
	}

	if opts.Unset {
		rec.Uploaded = false
		rec.VideoID = ""
	} else {
		rec.Uploaded = true
		if opts.VideoID != "" {
			rec.VideoID = opts.VideoID
		}
	}

	if err := s.store.Update(ctx, rec); err != nil {
		return history.Record{}, err
	}
	slog.Info("Updated record", "book", rec.Book, "chapter", rec.Chapter, "uploaded", rec.Uploaded, "video_id", rec.VideoID)
	return rec, nil
}

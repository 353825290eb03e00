package app

import (
	"context"
	"fmt"
	"log/slog"

	"versecast/internal/history"
)

type ImportSummary struct {
	Added   int
	Skipped int
}

// ImportHistory copies records from another store, keeping any chapter the
// current history already tracks.
func (s *Service) ImportHistory(ctx context.Context, from history.Store) (*ImportSummary, error) {
	incoming, err := from.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load source history: %w", err)
	}
	current, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	known := history.Index(current)
	summary := &ImportSummary{}
	var added []history.Record
	for _, rec := range incoming {
		if _, ok := known[rec.Key()]; ok {
			summary.Skipped++
			continue
		}
		known[rec.Key()] = rec
		added = append(added, rec)
	}

	if len(added) > 0 {
		if err := s.store.Append(ctx, added...); err != nil {
			return nil, fmt.Errorf("append imported records: %w", err)
		}
	}
	summary.Added = len(added)
	slog.Info("Imported history", "added", summary.Added, "skipped", summary.Skipped)
	return summary, nil
}

// ExportHistory writes every record into an empty target store.
func (s *Service) ExportHistory(ctx context.Context, to history.Store) (int, error) {
	existing, err := to.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load export target: %w", err)
	}
	if len(existing) > 0 {
		return 0, fmt.Errorf("export target already holds %d records", len(existing))
	}

	records, err := s.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load history: %w", err)
	}
	if err := to.Append(ctx, records...); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}
	return len(records), nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"versecast/internal/distribution"
	"versecast/internal/history"
	"versecast/internal/metrics"
	"versecast/internal/storage"
	"versecast/pkg/httputil"
)

type UploadOptions struct {
	// Limit caps successful uploads for this run. Zero falls back to
	// upload.limit from the config; both zero means no cap.
	Limit  int
	DryRun bool
}

type UploadSummary struct {
	Uploaded  int
	Planned   int
	Skipped   int
	Failed    int
	Remaining int
}

// UploadPending pushes pending chapters to the platform in reading order.
// Every success is written to the history before the next upload starts.
// A quota error, rejected credentials or an exhausted retry budget stop the
// run; other permanent failures leave the record pending and move on.
func (s *Service) UploadPending(ctx context.Context, opts UploadOptions) (*UploadSummary, error) {
	if s.platform == nil && !opts.DryRun {
		return nil, ErrNoPlatform
	}

	records, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	for _, dup := range history.Duplicates(records) {
		slog.Warn("Duplicate history entry ignored", "book", dup.Book, "chapter", dup.Chapter, "file", dup.FileName)
	}

	pending := history.Pending(records, s.order)
	summary := &UploadSummary{Remaining: len(pending)}
	s.metrics.Pending(len(pending))

	if len(pending) == 0 {
		slog.Info("Nothing to upload")
		return summary, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.Upload.Limit
	}
	slog.Info("Pending uploads", "count", len(pending), "limit", limit, "dry_run", opts.DryRun)

	for i, rec := range pending {
		if limit > 0 && summary.Uploaded+summary.Planned >= limit {
			slog.Info("Upload limit reached", "limit", limit)
			break
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		log := slog.With("book", rec.Book, "chapter", rec.Chapter, "file", rec.FileName)

		path, err := s.locate(ctx, rec.FileName, opts.DryRun)
		if errors.Is(err, storage.ErrNotFound) {
			log.Warn("Video file not found, skipping")
			summary.Skipped++
			s.metrics.Upload(metrics.ResultSkipped)
			continue
		}
		if err != nil {
			return summary, fmt.Errorf("fetch %s: %w", rec.FileName, err)
		}

		req, err := s.uploadRequest(rec, path)
		if err != nil {
			return summary, err
		}

		if opts.DryRun {
			log.Info("Would upload", "title", req.Title)
			summary.Planned++
			continue
		}

		log.Info("Uploading", "title", req.Title, "position", i+1, "of", len(pending))
		resp, err := s.uploadWithRetry(ctx, req)
		switch {
		case err == nil:
		case errors.Is(err, distribution.ErrQuotaExceeded):
			log.Warn("Upload quota reached, stopping run", "error", err)
			s.metrics.Upload(metrics.ResultQuota)
			return summary, fmt.Errorf("upload %s: %w", rec.FileName, err)
		case errors.Is(err, distribution.ErrUnauthorized):
			log.Error("Platform rejected credentials, stopping run", "error", err)
			s.metrics.Upload(metrics.ResultFailed)
			return summary, fmt.Errorf("upload %s: %w", rec.FileName, err)
		case ctx.Err() != nil:
			return summary, ctx.Err()
		case errors.Is(err, httputil.ErrRetriesExhausted):
			s.metrics.Upload(metrics.ResultFailed)
			return summary, fmt.Errorf("upload %s: %w", rec.FileName, err)
		default:
			log.Error("Upload failed, leaving chapter pending", "error", err)
			summary.Failed++
			s.metrics.Upload(metrics.ResultFailed)
			continue
		}

		rec.Uploaded = true
		rec.VideoID = resp.ID
		if err := s.store.Update(ctx, rec); err != nil {
			return summary, fmt.Errorf("record upload of %s (video %s): %w", rec.FileName, resp.ID, err)
		}

		summary.Uploaded++
		summary.Remaining--
		s.metrics.Upload(metrics.ResultSuccess)
		s.metrics.Pending(summary.Remaining)
		log.Info("Upload complete", "video_id", resp.ID, "url", resp.URL)

		if pause := s.cfg.Upload.PauseBetween; pause > 0 && i < len(pending)-1 {
			if err := s.sleep(ctx, pause); err != nil {
				return summary, err
			}
		}
	}

	return summary, nil
}

// locate resolves a video to a local path. A dry run only checks the video
// exists so remote sources are not downloaded.
func (s *Service) locate(ctx context.Context, name string, dryRun bool) (string, error) {
	if !dryRun {
		return s.source.Fetch(ctx, name)
	}
	if _, err := s.source.Stat(ctx, name); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Service) uploadRequest(rec history.Record, path string) (distribution.UploadRequest, error) {
	title, err := s.meta.Title(rec.Book, rec.Chapter)
	if err != nil {
		return distribution.UploadRequest{}, err
	}
	description, err := s.meta.Description(rec.Book, rec.Chapter)
	if err != nil {
		return distribution.UploadRequest{}, err
	}

	yt := s.cfg.YouTube
	tags := append([]string{rec.Book}, yt.Tags...)
	return distribution.UploadRequest{
		FilePath:    path,
		Title:       title,
		Description: description,
		Tags:        tags,
		Privacy:     yt.PrivacyStatus,
		CategoryID:  yt.CategoryID,
	}, nil
}

func (s *Service) uploadWithRetry(ctx context.Context, req distribution.UploadRequest) (*distribution.UploadResponse, error) {
	cfg := httputil.RetryConfig{
		MaxRetries:   s.cfg.Upload.MaxRetries,
		InitialDelay: s.cfg.Upload.BaseDelay,
		MaxDelay:     s.cfg.Upload.MaxDelay,
		Multiplier:   2,
		OnRetry: func(retry int, delay time.Duration, err error) {
			slog.Warn("Retrying upload", "title", req.Title, "retry", retry, "delay", delay.Round(time.Millisecond), "error", err)
			s.metrics.UploadRetry()
		},
	}

	var resp *distribution.UploadResponse
	err := httputil.Retry(ctx, cfg, distribution.IsTransient, func(ctx context.Context) error {
		r, err := s.platform.Upload(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	return resp, err
}

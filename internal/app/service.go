package app

import (
	"context"
	"errors"
	"time"

	"versecast/internal/bible"
	"versecast/internal/distribution"
	"versecast/internal/history"
	"versecast/internal/metrics"
	"versecast/internal/scanner"
	"versecast/internal/storage"
	"versecast/pkg/config"
)

var ErrNoPlatform = errors.New("no video platform configured (run 'versecast auth youtube')")

type Service struct {
	cfg      *config.Config
	store    history.Store
	source   storage.VideoSource
	platform distribution.Platform
	order    bible.Order
	meta     *Metadata
	metrics  *metrics.Recorder

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type ServiceOptions struct {
	Config   *config.Config
	Store    history.Store
	Source   storage.VideoSource
	Platform distribution.Platform
	Order    bible.Order
	Metadata *Metadata
	Metrics  *metrics.Recorder
}

func NewService(opts ServiceOptions) *Service {
	order := opts.Order
	if order == nil {
		order = bible.Canonical()
	}
	return &Service{
		cfg:      opts.Config,
		store:    opts.Store,
		source:   opts.Source,
		platform: opts.Platform,
		order:    order,
		meta:     opts.Metadata,
		metrics:  opts.Metrics,
		now:      time.Now,
		sleep:    sleep,
	}
}

func (s *Service) Metrics() *metrics.Recorder {
	return s.metrics
}

func (s *Service) Close() error {
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if c, ok := s.source.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Sync records every new video file in the history.
func (s *Service) Sync(ctx context.Context) (*scanner.SyncResult, error) {
	result, err := scanner.New(s.source, s.store, s.order).Sync(ctx)
	if err != nil {
		return nil, err
	}
	s.refreshPending(ctx)
	return result, nil
}

func (s *Service) refreshPending(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	records, err := s.store.Load(ctx)
	if err != nil {
		return
	}
	s.metrics.Pending(len(history.Pending(records, s.order)))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

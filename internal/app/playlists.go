package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/time/rate"

	"versecast/internal/bible"
	"versecast/internal/distribution"
	"versecast/internal/history"
)

type PlaylistSummary struct {
	Backfilled   int
	Created      int
	Added        int
	Failed       int
	SkippedBooks int
}

type bookVideos struct {
	book     string
	videoIDs []string
}

// ReconcilePlaylists makes sure every uploaded chapter sits in its book's
// playlist. Membership is read from the platform on every run, so running it
// twice adds nothing the second time.
func (s *Service) ReconcilePlaylists(ctx context.Context) (*PlaylistSummary, error) {
	if s.platform == nil {
		return nil, ErrNoPlatform
	}

	records, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	summary := &PlaylistSummary{}
	if err := s.backfillVideoIDs(ctx, records, summary); err != nil {
		return summary, err
	}

	playlists, err := s.platform.ListPlaylists(ctx)
	if err != nil {
		return summary, fmt.Errorf("list playlists: %w", err)
	}
	existing := make(map[string]string, len(playlists))
	for _, p := range playlists {
		if _, ok := existing[p.Title]; !ok {
			existing[p.Title] = p.ID
		}
	}
	slog.Info("Found playlists", "count", len(playlists))

	insertLimiter := rate.NewLimiter(rate.Every(s.cfg.Playlists.InsertInterval), 1)

	for _, group := range s.groupByBook(records) {
		log := slog.With("book", group.book)

		playlistID, created, err := s.bookPlaylist(ctx, group.book, existing)
		if err != nil {
			if haltsRun(err) {
				return summary, err
			}
			log.Error("Failed to prepare playlist", "error", err)
			summary.Failed++
			continue
		}
		if created {
			summary.Created++
		}

		members := make(map[string]bool)
		if !created {
			ids, err := s.platform.ListPlaylistItems(ctx, playlistID)
			if err != nil {
				if haltsRun(err) {
					return summary, fmt.Errorf("list items of %s playlist: %w", group.book, err)
				}
				log.Error("Failed to list playlist items, skipping book", "playlist_id", playlistID, "error", err)
				summary.SkippedBooks++
				continue
			}
			for _, id := range ids {
				members[id] = true
			}
		}

		for _, videoID := range group.videoIDs {
			if members[videoID] {
				continue
			}
			if err := insertLimiter.Wait(ctx); err != nil {
				return summary, err
			}
			if err := s.platform.AddToPlaylist(ctx, playlistID, videoID); err != nil {
				if haltsRun(err) {
					return summary, fmt.Errorf("add %s to %s playlist: %w", videoID, group.book, err)
				}
				log.Error("Failed to add video to playlist", "video_id", videoID, "playlist_id", playlistID, "error", err)
				summary.Failed++
				continue
			}
			members[videoID] = true
			summary.Added++
			s.metrics.PlaylistItemAdded()
			log.Info("Added video to playlist", "video_id", videoID, "playlist_id", playlistID)
		}
	}

	return summary, nil
}

// backfillVideoIDs fills in ids for records marked uploaded by hand, matching
// the rendered title against the channel's uploads.
func (s *Service) backfillVideoIDs(ctx context.Context, records []history.Record, summary *PlaylistSummary) error {
	var missing []int
	for i, r := range records {
		if r.Status() == history.StatusUploadedNoID {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	uploads, err := s.platform.ListUploads(ctx)
	if err != nil {
		if haltsRun(err) {
			return fmt.Errorf("list channel uploads: %w", err)
		}
		slog.Warn("Failed to list channel uploads, skipping id backfill", "error", err)
		return nil
	}

	byTitle := make(map[string]string, len(uploads))
	for _, v := range uploads {
		if _, ok := byTitle[v.Title]; !ok {
			byTitle[v.Title] = v.ID
		}
	}

	for _, i := range missing {
		rec := records[i]
		title, err := s.meta.Title(rec.Book, rec.Chapter)
		if err != nil {
			return err
		}
		id, ok := byTitle[title]
		if !ok {
			slog.Warn("No channel video matches uploaded chapter", "book", rec.Book, "chapter", rec.Chapter, "title", title)
			continue
		}

		rec.VideoID = id
		if err := s.store.Update(ctx, rec); err != nil {
			return fmt.Errorf("store video id for %s chapter %d: %w", rec.Book, rec.Chapter, err)
		}
		records[i] = rec
		summary.Backfilled++
		slog.Info("Backfilled video id", "book", rec.Book, "chapter", rec.Chapter, "video_id", id)
	}
	return nil
}

// groupByBook collects uploaded chapters with ids, books in reading order and
// chapters ascending.
func (s *Service) groupByBook(records []history.Record) []bookVideos {
	var uploaded []history.Record
	for _, r := range records {
		if r.Status() == history.StatusUploaded {
			uploaded = append(uploaded, r)
		}
	}
	slices.SortStableFunc(uploaded, func(a, b history.Record) int {
		return s.order.Compare(a.Key(), b.Key())
	})

	var groups []bookVideos
	seen := make(map[bible.Key]bool)
	for _, r := range uploaded {
		if seen[r.Key()] {
			continue
		}
		seen[r.Key()] = true
		if len(groups) == 0 || groups[len(groups)-1].book != r.Book {
			groups = append(groups, bookVideos{book: r.Book})
		}
		last := &groups[len(groups)-1]
		last.videoIDs = append(last.videoIDs, r.VideoID)
	}
	return groups
}

// bookPlaylist finds the playlist for book by exact title, then by a loose
// match on the book name plus keyword, and creates it when neither exists.
func (s *Service) bookPlaylist(ctx context.Context, book string, existing map[string]string) (string, bool, error) {
	title, err := s.meta.PlaylistTitle(book)
	if err != nil {
		return "", false, err
	}
	if id, ok := existing[title]; ok {
		return id, false, nil
	}
	if id, ok := fuzzyPlaylist(book, s.cfg.YouTube.PlaylistKeyword, existing); ok {
		slog.Debug("Matched playlist loosely", "book", book, "playlist_id", id)
		return id, false, nil
	}

	description, err := s.meta.PlaylistDescription(book)
	if err != nil {
		return "", false, err
	}

	slog.Info("Creating playlist", "book", book, "title", title)
	p, err := s.platform.CreatePlaylist(ctx, title, description, s.cfg.YouTube.PlaylistPrivacy)
	if err != nil {
		return "", false, fmt.Errorf("create playlist %q: %w", title, err)
	}
	existing[p.Title] = p.ID
	s.metrics.PlaylistCreated()

	if err := s.sleep(ctx, s.cfg.Playlists.CreateInterval); err != nil {
		return "", false, err
	}
	return p.ID, true, nil
}

// fuzzyPlaylist checks titles in sorted order so the pick is stable. A title
// naming a longer book that contains this one ("1 John" for "John") is not a
// match.
func fuzzyPlaylist(book, keyword string, existing map[string]string) (string, bool) {
	titles := make([]string, 0, len(existing))
	for t := range existing {
		titles = append(titles, t)
	}
	slices.Sort(titles)

	for _, t := range titles {
		if !strings.Contains(t, book) || !strings.Contains(t, keyword) {
			continue
		}
		if mentionsLongerBook(t, book) {
			continue
		}
		return existing[t], true
	}
	return "", false
}

func mentionsLongerBook(title, book string) bool {
	for _, b := range bible.Books() {
		if b.Name != book && strings.Contains(b.Name, book) && strings.Contains(title, b.Name) {
			return true
		}
	}
	return false
}

// haltsRun reports whether err makes every later platform call in the run
// fail too.
func haltsRun(err error) bool {
	return errors.Is(err, distribution.ErrQuotaExceeded) || errors.Is(err, distribution.ErrUnauthorized)
}

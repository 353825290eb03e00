package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"versecast/internal/bible"
	"versecast/internal/distribution"
	"versecast/internal/history"
)

var chapterTitle = regexp.MustCompile(`^(.+?)\s+(?:[Cc]hapter\s+)?(\d+)$`)

// NormalizeTitle reads the book and chapter out of a channel video title,
// accepting both "Genesis Chapter 1 (NIRV)" and older "AI Bible - Genesis 1".
func NormalizeTitle(title string) (string, int, bool) {
	t := strings.TrimSpace(strings.ReplaceAll(title, "(NIRV)", ""))
	t = strings.TrimSpace(strings.TrimPrefix(t, "AI Bible - "))

	m := chapterTitle.FindStringSubmatch(t)
	if m == nil {
		return "", 0, false
	}
	chapter, err := strconv.Atoi(m[2])
	if err != nil || chapter <= 0 {
		return "", 0, false
	}

	book := strings.TrimSpace(m[1])
	if b, ok := bible.Lookup(book); ok {
		return b.Name, chapter, true
	}
	return titleCase(book), chapter, true
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

type UnmarkedVideo struct {
	Record history.Record
	Video  distribution.Video
}

type AuditReport struct {
	// NotOnChannel are records marked uploaded with no matching channel video.
	NotOnChannel []history.Record
	// Unmarked are channel videos whose record is still pending.
	Unmarked []UnmarkedVideo
	// Untracked are channel videos with no record at all.
	Untracked []distribution.Video
	Unparsed  []string
}

func (r *AuditReport) Clean() bool {
	return len(r.NotOnChannel) == 0 && len(r.Unmarked) == 0
}

// ChannelVideos lists every upload on the authenticated channel.
func (s *Service) ChannelVideos(ctx context.Context) ([]distribution.Video, error) {
	if s.platform == nil {
		return nil, ErrNoPlatform
	}
	return s.platform.ListUploads(ctx)
}

// LoadTitles reads a JSON array of video titles exported from the channel.
func LoadTitles(path string) ([]distribution.Video, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read titles: %w", err)
	}
	var titles []string
	if err := json.Unmarshal(data, &titles); err != nil {
		return nil, fmt.Errorf("parse titles %s: %w", path, err)
	}

	videos := make([]distribution.Video, len(titles))
	for i, t := range titles {
		videos[i] = distribution.Video{Title: t}
	}
	return videos, nil
}

// Audit compares the history against what the channel actually holds.
func (s *Service) Audit(ctx context.Context, videos []distribution.Video) (*AuditReport, error) {
	records, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	byKey := history.Index(records)

	report := &AuditReport{}
	onChannel := make(map[bible.Key]bool, len(videos))

	for _, v := range videos {
		book, chapter, ok := NormalizeTitle(v.Title)
		if !ok {
			report.Unparsed = append(report.Unparsed, v.Title)
			continue
		}
		key := bible.Key{Book: book, Chapter: chapter}
		if onChannel[key] {
			slog.Warn("Chapter appears more than once on the channel", "book", book, "chapter", chapter)
			continue
		}
		onChannel[key] = true

		rec, ok := byKey[key]
		switch {
		case !ok:
			report.Untracked = append(report.Untracked, v)
		case !rec.Uploaded:
			report.Unmarked = append(report.Unmarked, UnmarkedVideo{Record: rec, Video: v})
		}
	}

	for _, rec := range records {
		if rec.Uploaded && !onChannel[rec.Key()] {
			report.NotOnChannel = append(report.NotOnChannel, rec)
		}
	}
	slices.SortStableFunc(report.NotOnChannel, func(a, b history.Record) int {
		return s.order.Compare(a.Key(), b.Key())
	})

	return report, nil
}

// FixUnmarked marks the chapters in report.Unmarked as uploaded, storing the
// channel's video id when it is known.
func (s *Service) FixUnmarked(ctx context.Context, report *AuditReport) (int, error) {
	fixed := 0
	for _, u := range report.Unmarked {
		rec := u.Record
		rec.Uploaded = true
		if u.Video.ID != "" {
			rec.VideoID = u.Video.ID
		}
		if err := s.store.Update(ctx, rec); err != nil {
			return fixed, fmt.Errorf("mark %s chapter %d: %w", rec.Book, rec.Chapter, err)
		}
		fixed++
		slog.Info("Marked chapter uploaded", "book", rec.Book, "chapter", rec.Chapter, "video_id", rec.VideoID)
	}
	return fixed, nil
}

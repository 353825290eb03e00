package app

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"versecast/internal/bible"
	"versecast/internal/history"
)

type BookProgress struct {
	Book      string
	Chapters  int
	Tracked   int
	Uploaded  int
	MissingID int
}

func (p BookProgress) Complete() bool {
	return p.Chapters > 0 && p.Uploaded >= p.Chapters
}

type ProgressReport struct {
	Books []BookProgress
	// Unknown holds books in the history that are not in the canon.
	Unknown []BookProgress
	Total   BookProgress
}

func (s *Service) Progress(ctx context.Context) (*ProgressReport, error) {
	records, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	counts := make(map[string]*BookProgress)
	for _, rec := range history.Index(records) {
		p, ok := counts[rec.Book]
		if !ok {
			p = &BookProgress{Book: rec.Book}
			counts[rec.Book] = p
		}
		p.Tracked++
		switch rec.Status() {
		case history.StatusUploaded:
			p.Uploaded++
		case history.StatusUploadedNoID:
			p.Uploaded++
			p.MissingID++
		}
	}

	report := &ProgressReport{Total: BookProgress{Book: "Total"}}
	for _, b := range bible.Books() {
		p := BookProgress{Book: b.Name}
		if c, ok := counts[b.Name]; ok {
			p = *c
			delete(counts, b.Name)
		}
		p.Chapters = b.Chapters
		report.Books = append(report.Books, p)
		report.Total.add(p)
	}

	for _, c := range counts {
		report.Unknown = append(report.Unknown, *c)
		report.Total.add(*c)
	}
	slices.SortFunc(report.Unknown, func(a, b BookProgress) int {
		return strings.Compare(a.Book, b.Book)
	})

	return report, nil
}

func (p *BookProgress) add(o BookProgress) {
	p.Chapters += o.Chapters
	p.Tracked += o.Tracked
	p.Uploaded += o.Uploaded
	p.MissingID += o.MissingID
}

package history

import (
	"context"
	"errors"
	"math"
	"time"

	"versecast/internal/bible"
)

const createdAtLayout = "2006-01-02T15:04:05.000000"

const (
	StatusPending      Status = "pending"
	StatusUploaded     Status = "uploaded"
	StatusUploadedNoID Status = "uploaded_no_id"
)

var (
	ErrDuplicateRecord = errors.New("record already exists")
	ErrRecordNotFound  = errors.New("record not found")
)

type Status string

type Record struct {
	Book      string  `json:"book"`
	Chapter   int     `json:"chapter"`
	FileName  string  `json:"file_name"`
	SizeMB    float64 `json:"size_mb"`
	CreatedAt string  `json:"created_at"`
	Uploaded  bool    `json:"uploaded"`
	VideoID   string  `json:"video_id,omitempty"`
}

// Store persists upload records. Implementations keep append order and treat
// (book, chapter) as the identity of a record.
type Store interface {
	Load(ctx context.Context) ([]Record, error)
	Append(ctx context.Context, records ...Record) error
	Update(ctx context.Context, record Record) error
	Close() error
}

func NewRecord(book string, chapter int, fileName string, sizeBytes int64, now time.Time) Record {
	return Record{
		Book:      book,
		Chapter:   chapter,
		FileName:  fileName,
		SizeMB:    math.Round(float64(sizeBytes)/(1024*1024)*100) / 100,
		CreatedAt: now.Format(createdAtLayout),
	}
}

func (r Record) Key() bible.Key {
	return bible.Key{Book: r.Book, Chapter: r.Chapter}
}

func (r Record) Status() Status {
	switch {
	case !r.Uploaded:
		return StatusPending
	case r.VideoID == "":
		return StatusUploadedNoID
	default:
		return StatusUploaded
	}
}

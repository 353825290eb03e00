// Package distribution describes the video platform the channel publishes to.
package distribution

import (
	"context"
	"errors"
	"fmt"
)

type UploadRequest struct {
	FilePath    string
	Title       string
	Description string
	Tags        []string
	Privacy     string
	CategoryID  string
}

type UploadResponse struct {
	ID       string
	URL      string
	Platform string
}

type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResponse, error)
	Platform() string
}

type Playlist struct {
	ID    string
	Title string
}

type Video struct {
	ID    string
	Title string
}

// PlaylistManager covers the playlist and channel listing calls used to
// reconcile per-book playlists. List calls follow every page.
type PlaylistManager interface {
	ListPlaylists(ctx context.Context) ([]Playlist, error)
	CreatePlaylist(ctx context.Context, title, description, privacy string) (*Playlist, error)
	ListPlaylistItems(ctx context.Context, playlistID string) ([]string, error)
	AddToPlaylist(ctx context.Context, playlistID, videoID string) error
	ListUploads(ctx context.Context) ([]Video, error)
}

type Platform interface {
	Uploader
	PlaylistManager
}

type Kind int

const (
	KindTransient Kind = iota
	KindQuota
	KindPermanent
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindQuota:
		return "quota"
	case KindPermanent:
		return "permanent"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var (
	ErrQuotaExceeded = errors.New("platform quota exceeded")
	// ErrUnauthorized means the platform credentials are missing, unreadable
	// or rejected. No later request in the same run can succeed.
	ErrUnauthorized = errors.New("platform credentials unavailable")
)

// Error is a classified platform failure. Code is the HTTP status when one
// was received and Reason the provider's structured reason, if any.
type Error struct {
	Kind   Kind
	Code   int
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (http %d)", msg, e.Code)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrQuotaExceeded && e.Kind == KindQuota
}

// KindOf classifies err for retry decisions. Unclassified errors count as
// transient; cancellation never does.
func KindOf(err error) Kind {
	if err == nil {
		return KindPermanent
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindPermanent
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

func IsTransient(err error) bool {
	return err != nil && KindOf(err) == KindTransient
}

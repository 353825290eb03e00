package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"versecast/internal/distribution"
	"versecast/pkg/httputil"
)

const (
	defaultCategoryID = "22"
	platform          = "youtube"
	pageSize          = 50
)

var _ distribution.Platform = (*Client)(nil)

type Options struct {
	// ChunkSizeMB sets the resumable upload chunk size. Zero keeps the
	// library default.
	ChunkSizeMB int
	CategoryID  string
	Retry       httputil.RetryConfig
}

type Client struct {
	auth       *Auth
	opts       Options
	clientOpts []option.ClientOption
	mu         sync.Mutex
	service    *youtube.Service
}

// NewClient builds a YouTube Data API client. Without clientOpts the service
// is created on first use from auth, with idempotent requests retried at the
// transport level.
func NewClient(auth *Auth, opts Options, clientOpts ...option.ClientOption) *Client {
	if opts.CategoryID == "" {
		opts.CategoryID = defaultCategoryID
	}
	return &Client{
		auth:       auth,
		opts:       opts,
		clientOpts: clientOpts,
	}
}

func (c *Client) Platform() string {
	return platform
}

func (c *Client) svc(ctx context.Context) (*youtube.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.service != nil {
		return c.service, nil
	}

	clientOpts := c.clientOpts
	if len(clientOpts) == 0 {
		if c.auth == nil {
			return nil, unauthorized(errors.New("youtube client has no credentials"))
		}
		base := &http.Client{Transport: httputil.NewRetryTransport(nil, c.opts.Retry)}
		authCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, base)
		httpClient, err := c.auth.Client(authCtx)
		if err != nil {
			return nil, unauthorized(fmt.Errorf("failed to get auth client: %w", err))
		}
		clientOpts = []option.ClientOption{option.WithHTTPClient(httpClient)}
	}

	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	c.service = service
	return service, nil
}

func unauthorized(err error) error {
	return &distribution.Error{Kind: distribution.KindPermanent, Err: fmt.Errorf("%w: %w", distribution.ErrUnauthorized, err)}
}

func (c *Client) Upload(ctx context.Context, req distribution.UploadRequest) (*distribution.UploadResponse, error) {
	svc, err := c.svc(ctx)
	if err != nil {
		return nil, err
	}

	videoFile, err := os.Open(req.FilePath)
	if err != nil {
		return nil, &distribution.Error{Kind: distribution.KindPermanent, Err: fmt.Errorf("failed to open video file: %w", err)}
	}
	defer func() { _ = videoFile.Close() }()

	categoryID := req.CategoryID
	if categoryID == "" {
		categoryID = c.opts.CategoryID
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Tags,
			CategoryId:  categoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: req.Privacy,
		},
	}

	var mediaOpts []googleapi.MediaOption
	if c.opts.ChunkSizeMB > 0 {
		mediaOpts = append(mediaOpts, googleapi.ChunkSize(c.opts.ChunkSizeMB*1024*1024))
	}

	uploaded, err := svc.Videos.Insert([]string{"snippet", "status"}, video).
		Media(videoFile, mediaOpts...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyError(err)
	}

	return &distribution.UploadResponse{
		ID:       uploaded.Id,
		URL:      fmt.Sprintf("https://youtube.com/watch?v=%s", uploaded.Id),
		Platform: platform,
	}, nil
}

func (c *Client) ListPlaylists(ctx context.Context) ([]distribution.Playlist, error) {
	svc, err := c.svc(ctx)
	if err != nil {
		return nil, err
	}

	var playlists []distribution.Playlist
	err = svc.Playlists.List([]string{"snippet"}).
		Mine(true).
		MaxResults(pageSize).
		Pages(ctx, func(resp *youtube.PlaylistListResponse) error {
			for _, item := range resp.Items {
				if item.Snippet == nil {
					continue
				}
				playlists = append(playlists, distribution.Playlist{ID: item.Id, Title: item.Snippet.Title})
			}
			return nil
		})
	if err != nil {
		return nil, classifyError(err)
	}

	return playlists, nil
}

func (c *Client) CreatePlaylist(ctx context.Context, title, description, privacy string) (*distribution.Playlist, error) {
	svc, err := c.svc(ctx)
	if err != nil {
		return nil, err
	}

	created, err := svc.Playlists.Insert([]string{"snippet", "status"}, &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{
			Title:       title,
			Description: description,
		},
		Status: &youtube.PlaylistStatus{
			PrivacyStatus: privacy,
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, classifyError(err)
	}

	return &distribution.Playlist{ID: created.Id, Title: title}, nil
}

func (c *Client) ListPlaylistItems(ctx context.Context, playlistID string) ([]string, error) {
	svc, err := c.svc(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	err = svc.PlaylistItems.List([]string{"contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(pageSize).
		Pages(ctx, func(resp *youtube.PlaylistItemListResponse) error {
			for _, item := range resp.Items {
				if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
					ids = append(ids, item.ContentDetails.VideoId)
				}
			}
			return nil
		})
	if err != nil {
		return nil, classifyError(err)
	}

	return ids, nil
}

func (c *Client) AddToPlaylist(ctx context.Context, playlistID, videoID string) error {
	svc, err := c.svc(ctx)
	if err != nil {
		return err
	}

	_, err = svc.PlaylistItems.Insert([]string{"snippet"}, &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{
				Kind:    "youtube#video",
				VideoId: videoID,
			},
		},
	}).Context(ctx).Do()
	if err != nil {
		return classifyError(err)
	}

	return nil
}

// ListUploads returns every video on the authorised channel by walking the
// channel's implicit uploads playlist.
func (c *Client) ListUploads(ctx context.Context) ([]distribution.Video, error) {
	svc, err := c.svc(ctx)
	if err != nil {
		return nil, err
	}

	channels, err := svc.Channels.List([]string{"contentDetails"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, classifyError(err)
	}
	if len(channels.Items) == 0 || channels.Items[0].ContentDetails == nil ||
		channels.Items[0].ContentDetails.RelatedPlaylists == nil {
		return nil, fmt.Errorf("no channel found for the authorised account")
	}
	uploadsID := channels.Items[0].ContentDetails.RelatedPlaylists.Uploads

	var videos []distribution.Video
	err = svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(uploadsID).
		MaxResults(pageSize).
		Pages(ctx, func(resp *youtube.PlaylistItemListResponse) error {
			for _, item := range resp.Items {
				if item.Snippet == nil || item.ContentDetails == nil {
					continue
				}
				videos = append(videos, distribution.Video{
					ID:    item.ContentDetails.VideoId,
					Title: item.Snippet.Title,
				})
			}
			return nil
		})
	if err != nil {
		return nil, classifyError(err)
	}

	return videos, nil
}

// Package youtube reads video and channel metadata from the YouTube Data
// API and detects the language of video titles.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

var (
	// ErrNoAPIKey is returned by New when the API key is empty.
	ErrNoAPIKey = errors.New("youtube: API key is not set")

	// ErrVideoNotFound is returned for unknown or removed videos.
	ErrVideoNotFound = errors.New("youtube: video not found")
)

// Video is the snippet of a video.
type Video struct {
	ID           string
	Title        string
	PublishedAt  time.Time
	ChannelID    string
	ChannelTitle string
}

// WatchURL returns the canonical watch page of the video.
func (v *Video) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// Client calls the YouTube Data API.
type Client struct {
	service *yt.Service
	logger  *slog.Logger
}

// New returns a client authenticating with apiKey. Extra client options
// are passed to the API library, after the key.
func New(ctx context.Context, apiKey string, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube: create service: %w", err)
	}
	return &Client{service: service, logger: logger}, nil
}

// Video fetches the snippet of a video. The localized title is preferred
// over the default one.
func (c *Client) Video(ctx context.Context, id string) (*Video, error) {
	resp, err := c.service.Videos.List([]string{"snippet"}).Id(id).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube: videos.list %s: %w", id, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, id)
	}

	s := resp.Items[0].Snippet
	published, err := time.Parse(time.RFC3339, s.PublishedAt)
	if err != nil {
		return nil, fmt.Errorf("youtube: invalid publishedAt %q: %w", s.PublishedAt, err)
	}

	title := s.Title
	if s.Localized != nil && s.Localized.Title != "" {
		title = s.Localized.Title
	}

	c.logger.Debug("retrieved video", "id", id, "channel", s.ChannelId)
	return &Video{
		ID:           id,
		Title:        title,
		PublishedAt:  published,
		ChannelID:    s.ChannelId,
		ChannelTitle: s.ChannelTitle,
	}, nil
}

// ChannelHandle returns the handle of a channel without the leading "@".
// It returns "" unless exactly one channel matches.
func (c *Client) ChannelHandle(ctx context.Context, channelID string) (string, error) {
	resp, err := c.service.Channels.List([]string{"snippet"}).Id(channelID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("youtube: channels.list %s: %w", channelID, err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Snippet == nil {
		return "", nil
	}
	return strings.TrimLeft(resp.Items[0].Snippet.CustomUrl, "@"), nil
}

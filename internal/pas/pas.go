// Package pas reads image records from the Portable Antiquities Scheme
// finds database.
package pas

import (
	"context"
	"crypto/sha1" //nolint:gosec // Commons identifies files by SHA-1.
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultEndpoint is the finds database base URL.
const DefaultEndpoint = "https://finds.org.uk/database"

// DefaultTimeout bounds a record request, and the wait for each chunk of a
// download.
const DefaultTimeout = 30 * time.Second

var (
	// ErrImageNotFound is returned when the record holds no image.
	ErrImageNotFound = errors.New("pas: image not found")

	// ErrImageMismatch is returned when the record describes another image.
	ErrImageMismatch = errors.New("pas: image id mismatch")
)

var linkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://finds\.org\.uk/database/ajax/download/id/(\d+)`),
	regexp.MustCompile(`^https?://finds\.org\.uk/database/images/image/id/(\d+)/recordtype/artefacts`),
}

// ImageIDs returns the distinct image ids referenced by links, in order of
// first appearance.
func ImageIDs(links []string) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, link := range links {
		for _, re := range linkPatterns {
			m := re.FindStringSubmatch(strings.TrimSpace(link))
			if m == nil {
				continue
			}
			if _, ok := seen[m[1]]; !ok {
				seen[m[1]] = struct{}{}
				ids = append(ids, m[1])
			}
			break
		}
	}
	return ids
}

// Image is an image record.
type Image struct {
	ID       string
	Filename string
	Label    string
}

type idString string

func (s *idString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*s = idString(t)
	case float64:
		*s = idString(fmt.Sprintf("%.0f", t))
	}
	return nil
}

type imageResponse struct {
	Image []struct {
		ID       idString `json:"id"`
		Filename string   `json:"filename"`
		Label    string   `json:"label"`
	} `json:"image"`
}

// Client calls the finds database.
type Client struct {
	http     *resty.Client
	endpoint string
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the database base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithTimeout sets the record request timeout and the download read timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a client identifying itself with userAgent.
func New(userAgent string, opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = resty.New().
		SetHeader("User-Agent", userAgent)
	return c
}

// Image fetches the record of an artefact image and checks that it
// describes the requested id.
func (c *Client) Image(ctx context.Context, id string) (*Image, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body imageResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&body).
		ForceContentType("application/json").
		Get(c.endpoint + "/images/image/id/{id}/recordtype/artefacts/format/json")
	if err != nil {
		return nil, fmt.Errorf("pas: image %s: %w", id, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("pas: image %s: %s", id, resp.Status())
	}
	if len(body.Image) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrImageNotFound, id)
	}

	img := body.Image[0]
	if string(img.ID) != id {
		return nil, fmt.Errorf("%w: %s != %s", ErrImageMismatch, id, img.ID)
	}

	c.logger.Debug("fetched image record", "id", id, "took", time.Since(start).Round(time.Millisecond))
	return &Image{ID: string(img.ID), Filename: img.Filename, Label: img.Label}, nil
}

// DownloadSHA1 streams the image file and returns its hex SHA-1. The
// download fails with context.DeadlineExceeded when the server sends
// nothing for longer than the client timeout; its total duration is not
// bounded.
func (c *Client) DownloadSHA1(ctx context.Context, id string) (string, error) {
	start := time.Now()

	dctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stall := time.AfterFunc(c.timeout, func() { cancel(errStalled) })
	defer stall.Stop()

	resp, err := c.http.R().
		SetContext(dctx).
		SetPathParam("id", id).
		SetDoNotParseResponse(true).
		Get(c.endpoint + "/ajax/download/id/{id}")
	if err != nil {
		return "", c.downloadError(ctx, dctx, id, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return "", fmt.Errorf("pas: download %s: %s", id, resp.Status())
	}

	h := sha1.New() //nolint:gosec // SHA-1 is the Commons file hash
	n, err := io.Copy(h, &idleReader{r: body, timer: stall, timeout: c.timeout})
	if err != nil {
		return "", c.downloadError(ctx, dctx, id, err)
	}

	c.logger.Debug("calculated hash", "id", id, "bytes", n, "took", time.Since(start).Round(time.Millisecond))
	return hex.EncodeToString(h.Sum(nil)), nil
}

var errStalled = errors.New("download stalled")

// downloadError reports cancellation of ctx and stalls detected on dctx
// with the matching context error, whatever the transport returned.
func (c *Client) downloadError(ctx, dctx context.Context, id string, err error) error {
	switch {
	case ctx.Err() != nil:
		return fmt.Errorf("pas: download %s: %w", id, ctx.Err())
	case errors.Is(context.Cause(dctx), errStalled):
		return fmt.Errorf("pas: download %s: no data for %s: %w", id, c.timeout, context.DeadlineExceeded)
	default:
		return fmt.Errorf("pas: download %s: %w", id, err)
	}
}

// idleReader pushes back the stall timer whenever data arrives.
type idleReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}

package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultEndpoint is the Commons API endpoint.
	DefaultEndpoint = "https://commons.wikimedia.org/w/api.php"

	// DefaultMaxLag is the maxlag parameter sent with every request.
	DefaultMaxLag = 5

	// DefaultMaxLagRetries is how often a lagged request is retried.
	DefaultMaxLagRetries = 3

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 60 * time.Second

	defaultRetryAfter = 5 * time.Second
)

// Client talks to a MediaWiki API endpoint.
// It is safe for concurrent use after Login returns.
type Client struct {
	http          *resty.Client
	endpoint      string
	logger        *slog.Logger
	creds         Credentials
	email         string
	maxLag        int
	maxLagRetries int
	baseClient    *http.Client

	username string

	mu   sync.Mutex
	csrf string
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the api.php URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
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

// WithEmail sets the contact address placed in the User-Agent header.
func WithEmail(email string) Option {
	return func(c *Client) {
		c.email = email
	}
}

// WithMaxLag sets the maxlag parameter. Zero disables it.
func WithMaxLag(seconds int) Option {
	return func(c *Client) {
		if seconds >= 0 {
			c.maxLag = seconds
		}
	}
}

// WithMaxLagRetries sets how often a lagged request is retried.
func WithMaxLagRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxLagRetries = n
		}
	}
}

// WithHTTPClient sets the base HTTP client used for bot password
// sessions. OAuth sessions wrap its transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.baseClient = hc
	}
}

// New returns a client for creds. It does not contact the server; call
// Login before issuing requests that need a user.
func New(ctx context.Context, creds Credentials, opts ...Option) (*Client, error) {
	c := &Client{
		endpoint:      DefaultEndpoint,
		logger:        slog.Default(),
		creds:         creds,
		maxLag:        DefaultMaxLag,
		maxLagRetries: DefaultMaxLagRetries,
	}
	for _, opt := range opts {
		opt(c)
	}

	hc, err := newHTTPClient(ctx, creds, c.baseClient)
	if err != nil {
		return nil, err
	}

	c.http = resty.NewWithClient(hc).
		SetTimeout(DefaultTimeout).
		SetHeader("User-Agent", c.userAgent("wikibots"))

	return c, nil
}

// Username returns the name of the logged-in user.
func (c *Client) Username() string {
	return c.username
}

// Endpoint returns the api.php URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) userAgent(name string) string {
	ua := name + " / Wikimedia Commons"
	if c.email != "" {
		ua += " / " + c.email
	}
	return ua
}

// envelope captures the parts of every API response the client inspects.
type envelope struct {
	Error    *APIError       `json:"error"`
	Warnings json.RawMessage `json:"warnings"`
}

// get issues a GET request and decodes the response into out.
func (c *Client) get(ctx context.Context, params map[string]string, out any) error {
	return c.do(ctx, http.MethodGet, params, out)
}

// post issues a form POST request and decodes the response into out.
func (c *Client) post(ctx context.Context, params map[string]string, out any) error {
	return c.do(ctx, http.MethodPost, params, out)
}

func (c *Client) do(ctx context.Context, method string, params map[string]string, out any) error {
	values := map[string]string{
		"format":        "json",
		"formatversion": "2",
	}
	if c.maxLag > 0 {
		values["maxlag"] = strconv.Itoa(c.maxLag)
	}
	for k, v := range params {
		values[k] = v
	}

	for attempt := 0; ; attempt++ {
		req := c.http.R().SetContext(ctx)

		var (
			resp *resty.Response
			err  error
		)
		if method == http.MethodPost {
			resp, err = req.SetFormData(values).Post(c.endpoint)
		} else {
			resp, err = req.SetQueryParams(values).Get(c.endpoint)
		}
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, values["action"], err)
		}
		if resp.IsError() {
			return fmt.Errorf("%s %s: %s", method, values["action"], resp.Status())
		}

		body := resp.Body()
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("decode %s response: %w", values["action"], err)
		}

		if env.Error != nil {
			if env.Error.Code == "maxlag" {
				if attempt >= c.maxLagRetries {
					return fmt.Errorf("%w: %s", ErrMaxLag, env.Error.Info)
				}
				wait := retryAfter(resp.Header().Get("Retry-After"))
				c.logger.Warn("server lagged, retrying",
					"action", values["action"],
					"info", env.Error.Info,
					"wait", wait,
				)
				if err := sleep(ctx, wait); err != nil {
					return err
				}
				continue
			}
			return env.Error
		}

		if len(env.Warnings) > 0 {
			c.logger.Debug("api warnings", "action", values["action"], "warnings", string(env.Warnings))
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode %s response: %w", values["action"], err)
		}
		return nil
	}
}

func retryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Package sparql queries the Wikidata Query Service.
package sparql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nao1215/wikibots/internal/wikibase"
)

// DefaultEndpoint is the Wikidata Query Service endpoint.
const DefaultEndpoint = "https://query.wikidata.org/sparql"

// Binding is a single result value.
type Binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	DataType string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Result is a SPARQL JSON result set.
type Result struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]Binding `json:"bindings"`
	} `json:"results"`
}

// Client runs SELECT queries.
type Client struct {
	http     *resty.Client
	endpoint string
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the query endpoint.
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

// New returns a client identifying itself with userAgent.
func New(userAgent string, opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = resty.New().
		SetTimeout(60*time.Second).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/sparql-results+json")
	return c
}

// Query runs a SELECT query.
func (c *Client) Query(ctx context.Context, query string) (*Result, error) {
	var result Result
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"query": query, "format": "json"}).
		SetResult(&result).
		Get(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("sparql query: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("sparql query: %s", resp.Status())
	}

	c.logger.Debug("sparql query", "rows", len(result.Results.Bindings))
	return &result, nil
}

// ItemsByExternalID returns the items whose property has the string value.
func (c *Client) ItemsByExternalID(ctx context.Context, property, value string) ([]string, error) {
	query := fmt.Sprintf("SELECT ?item WHERE { ?item wdt:%s %s . }", property, quote(value))

	result, err := c.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	items := make([]string, 0, len(result.Results.Bindings))
	for _, row := range result.Results.Bindings {
		b, ok := row["item"]
		if !ok || b.Type != "uri" {
			continue
		}
		items = append(items, strings.TrimPrefix(b.Value, wikibase.EntityURIPrefix))
	}
	return items, nil
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)

func quote(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}

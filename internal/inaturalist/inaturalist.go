// Package inaturalist reads observations from the iNaturalist API.
package inaturalist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultEndpoint is the iNaturalist API base URL.
const DefaultEndpoint = "https://api.inaturalist.org/v1"

// QualityResearch is the quality grade of community-verified observations.
const QualityResearch = "research"

// ErrObservationNotFound is returned for unknown observation ids.
var ErrObservationNotFound = errors.New("inaturalist: observation not found")

// User is an iNaturalist account.
type User struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

// DisplayName returns the name if set, otherwise the login.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return strings.TrimSpace(u.Login)
}

// Taxon is a node of the iNaturalist taxonomy.
type Taxon struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Rank        string  `json:"rank"`
	AncestorIDs []int64 `json:"ancestor_ids"`
}

// ObservationPhoto links a photo to an observation.
type ObservationPhoto struct {
	PhotoID int64 `json:"photo_id"`
}

// Observation is a single observation.
type Observation struct {
	ID                int64              `json:"id"`
	QualityGrade      string             `json:"quality_grade"`
	User              *User              `json:"user"`
	Taxon             *Taxon             `json:"taxon"`
	CommunityTaxon    *Taxon             `json:"community_taxon"`
	ObservationPhotos []ObservationPhoto `json:"observation_photos"`
	Preferences       struct {
		PrefersCommunityTaxon *bool `json:"prefers_community_taxon"`
	} `json:"preferences"`
}

// HasPhoto reports whether the photo with the given id is attached.
func (o *Observation) HasPhoto(photoID string) bool {
	for _, p := range o.ObservationPhotos {
		if strconv.FormatInt(p.PhotoID, 10) == photoID {
			return true
		}
	}
	return false
}

// PreferredTaxon returns the community taxon when the observer prefers it,
// otherwise the observation taxon. It may be nil.
func (o *Observation) PreferredTaxon() *Taxon {
	if p := o.Preferences.PrefersCommunityTaxon; p != nil && *p {
		return o.CommunityTaxon
	}
	return o.Taxon
}

// IsResearchGrade reports whether the identification is community-verified.
func (o *Observation) IsResearchGrade() bool {
	return o.QualityGrade == QualityResearch
}

type observationsResponse struct {
	TotalResults int           `json:"total_results"`
	Results      []Observation `json:"results"`
}

// Client calls the iNaturalist API.
type Client struct {
	http     *resty.Client
	endpoint string
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the API base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = strings.TrimRight(endpoint, "/")
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
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	return c
}

// Observation fetches an observation by id.
func (c *Client) Observation(ctx context.Context, id string) (*Observation, error) {
	var body observationsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&body).
		Get(c.endpoint + "/observations/{id}")
	if err != nil {
		return nil, fmt.Errorf("inaturalist: observation %s: %w", id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrObservationNotFound, id)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("inaturalist: observation %s: %s", id, resp.Status())
	}
	if len(body.Results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrObservationNotFound, id)
	}

	c.logger.Debug("retrieved observation", "id", id, "quality_grade", body.Results[0].QualityGrade)
	return &body.Results[0], nil
}

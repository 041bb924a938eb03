package flickr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultEndpoint is the Flickr REST endpoint.
const DefaultEndpoint = "https://api.flickr.com/services/rest/"

var (
	// ErrNoAPIKey is returned by New when the API key is empty.
	ErrNoAPIKey = errors.New("flickr: API key is not set")

	// ErrPhotoNotFound is returned for photos that do not exist.
	ErrPhotoNotFound = errors.New("flickr: photo not found")

	// ErrPhotoIsPrivate is returned for photos the caller may not see.
	ErrPhotoIsPrivate = errors.New("flickr: photo is private")
)

// APIError is a failed Flickr API response.
type APIError struct {
	Code    int
	Message string
}

// Error implements error.
func (e *APIError) Error() string {
	return fmt.Sprintf("flickr: %s (code %d)", e.Message, e.Code)
}

// Granularity is the precision of a "date taken".
type Granularity string

// Granularities reported by Flickr.
const (
	GranularitySecond Granularity = "second"
	GranularityMonth  Granularity = "month"
	GranularityYear   Granularity = "year"
	GranularityCirca  Granularity = "circa"
)

// granularities maps the numeric takengranularity values.
var granularities = map[int]Granularity{
	0: GranularitySecond,
	4: GranularityMonth,
	6: GranularityYear,
	8: GranularityCirca,
}

// User is a photo owner.
type User struct {
	ID         string
	Username   string
	RealName   string
	PathAlias  string
	ProfileURL string
}

// Name returns the real name if set, otherwise the username.
func (u User) Name() string {
	if name := strings.TrimSpace(u.RealName); name != "" {
		return name
	}
	return strings.TrimSpace(u.Username)
}

// DateTaken is when a photo was taken, as precise as the owner knows.
type DateTaken struct {
	Value       time.Time
	Granularity Granularity
}

// Location is where the camera was.
type Location struct {
	Latitude  float64
	Longitude float64
	Accuracy  int
}

// Photo is the metadata of a single photo.
type Photo struct {
	ID       string
	Title    string
	Owner    User
	URL      string
	Posted   time.Time
	Taken    *DateTaken
	Location *Location
}

// Client calls the Flickr API.
type Client struct {
	http     *resty.Client
	apiKey   string
	endpoint string
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the REST endpoint.
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

// New returns a client authenticating with apiKey.
func New(apiKey, userAgent string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	c := &Client{
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = resty.New().
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", userAgent)
	return c, nil
}

// flexString decodes JSON strings and numbers alike; the Flickr API is not
// consistent about which it sends.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(strings.TrimSpace(string(data)))
	return nil
}

type content struct {
	Content string `json:"_content"`
}

type getInfoResponse struct {
	Stat    string `json:"stat"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Photo   struct {
		ID    string  `json:"id"`
		Title content `json:"title"`
		Owner struct {
			NSID      string `json:"nsid"`
			Username  string `json:"username"`
			RealName  string `json:"realname"`
			PathAlias string `json:"path_alias"`
		} `json:"owner"`
		Dates struct {
			Posted           flexString `json:"posted"`
			Taken            string     `json:"taken"`
			TakenGranularity flexString `json:"takengranularity"`
			TakenUnknown     flexString `json:"takenunknown"`
		} `json:"dates"`
		URLs struct {
			URL []struct {
				Type    string `json:"type"`
				Content string `json:"_content"`
			} `json:"url"`
		} `json:"urls"`
		Location *struct {
			Latitude  flexString `json:"latitude"`
			Longitude flexString `json:"longitude"`
			Accuracy  flexString `json:"accuracy"`
		} `json:"location"`
	} `json:"photo"`
}

// Photo calls flickr.photos.getInfo.
func (c *Client) Photo(ctx context.Context, id string) (*Photo, error) {
	start := time.Now()

	var body getInfoResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"method":         "flickr.photos.getInfo",
			"api_key":        c.apiKey,
			"photo_id":       id,
			"format":         "json",
			"nojsoncallback": "1",
		}).
		SetResult(&body).
		Get(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("flickr: getInfo %s: %w", id, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("flickr: getInfo %s: %s", id, resp.Status())
	}

	if body.Stat != "ok" {
		switch body.Code {
		case 1:
			return nil, fmt.Errorf("%w: %s", ErrPhotoNotFound, id)
		case 2:
			return nil, fmt.Errorf("%w: %s", ErrPhotoIsPrivate, id)
		}
		return nil, &APIError{Code: body.Code, Message: body.Message}
	}

	photo, err := convertPhoto(&body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("retrieved flickr photo", "id", id, "took", time.Since(start).Round(time.Millisecond))
	return photo, nil
}

func convertPhoto(body *getInfoResponse) (*Photo, error) {
	p := body.Photo
	owner := User{
		ID:        p.Owner.NSID,
		Username:  p.Owner.Username,
		RealName:  p.Owner.RealName,
		PathAlias: p.Owner.PathAlias,
	}
	owner.ProfileURL = "https://www.flickr.com/people/" + ownerPath(owner) + "/"

	photo := &Photo{
		ID:    p.ID,
		Title: p.Title.Content,
		Owner: owner,
		URL:   "https://www.flickr.com/photos/" + ownerPath(owner) + "/" + p.ID + "/",
	}
	for _, u := range p.URLs.URL {
		if u.Type == "photopage" && u.Content != "" {
			photo.URL = u.Content
		}
	}

	if posted := string(p.Dates.Posted); posted != "" {
		secs, err := strconv.ParseInt(posted, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("flickr: invalid posted date %q: %w", posted, err)
		}
		photo.Posted = time.Unix(secs, 0).UTC()
	}

	if string(p.Dates.TakenUnknown) != "1" && p.Dates.Taken != "" {
		taken, err := time.Parse(time.DateTime, p.Dates.Taken)
		if err != nil {
			return nil, fmt.Errorf("flickr: invalid taken date %q: %w", p.Dates.Taken, err)
		}
		g, _ := strconv.Atoi(string(p.Dates.TakenGranularity))
		granularity, ok := granularities[g]
		if !ok {
			granularity = Granularity(strconv.Itoa(g))
		}
		photo.Taken = &DateTaken{Value: taken, Granularity: granularity}
	}

	if loc := p.Location; loc != nil {
		lat, latErr := strconv.ParseFloat(string(loc.Latitude), 64)
		lon, lonErr := strconv.ParseFloat(string(loc.Longitude), 64)
		acc, accErr := strconv.Atoi(string(loc.Accuracy))
		if latErr == nil && lonErr == nil && accErr == nil {
			photo.Location = &Location{Latitude: lat, Longitude: lon, Accuracy: acc}
		}
	}

	return photo, nil
}

func ownerPath(u User) string {
	if u.PathAlias != "" {
		return u.PathAlias
	}
	return u.ID
}

// LocationPrecision converts a Flickr location accuracy (1 world to 16
// street) to a Wikibase coordinate precision in degrees.
func LocationPrecision(accuracy int) (float64, bool) {
	switch {
	case accuracy == 16:
		return 1e-5, true
	case accuracy == 15, accuracy == 14:
		return 1.0 / 36000, true
	case accuracy == 13, accuracy == 12:
		return 1e-4, true
	case accuracy == 11:
		return 1.0 / 3600, true
	case accuracy >= 7 && accuracy <= 10:
		return 1e-3, true
	case accuracy == 6:
		return 1e-2, true
	case accuracy == 5, accuracy == 4:
		return 1.0 / 60, true
	case accuracy >= 1 && accuracy <= 3:
		return 0.1, true
	}
	return 0, false
}

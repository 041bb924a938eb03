package flickr

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnrecognisedURL is returned by ParseURL for URLs that are not Flickr
// URLs or that point to an unknown kind of page.
var ErrUnrecognisedURL = errors.New("flickr: unrecognised URL")

// URLType is the kind of page a Flickr URL points to.
type URLType string

// URL types.
const (
	TypeSinglePhoto URLType = "single_photo"
	TypeAlbum       URLType = "album"
	TypeGallery     URLType = "gallery"
	TypeUser        URLType = "user"
	TypeGroup       URLType = "group"
	TypeTag         URLType = "tag"
)

// ParsedURL is the result of ParseURL. Only the fields relevant to Type
// are set.
type ParsedURL struct {
	Type    URLType
	PhotoID string
	User    string
	AlbumID string
	Group   string
	Tag     string
}

var (
	photoPath   = regexp.MustCompile(`^/photos/([^/]+)/(\d+)(?:/.*)?$`)
	albumPath   = regexp.MustCompile(`^/photos/([^/]+)/(?:albums|sets)/(\d+)/?$`)
	galleryPath = regexp.MustCompile(`^/photos/([^/]+)/galleries/(\d+)/?$`)
	tagPath     = regexp.MustCompile(`^/photos/tags/([^/]+)/?$`)
	userPath    = regexp.MustCompile(`^/(?:photos|people)/([^/]+)/?$`)
	groupPath   = regexp.MustCompile(`^/groups/([^/]+)(?:/pool)?/?$`)
	staticPath  = regexp.MustCompile(`^/(?:\d+/)?(\d+)/(\d+)_[0-9a-f]+(?:_[a-z0-9]+)?\.(?:jpg|png|gif)$`)
	shortPath   = regexp.MustCompile(`^/p/([1-9a-km-zA-HJ-NP-Z]+)/?$`)
)

// ParseURL identifies the page a Flickr URL points to.
func ParseURL(raw string) (ParsedURL, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ParsedURL{}, fmt.Errorf("%w: %w", ErrUnrecognisedURL, err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := u.EscapedPath()

	switch {
	case host == "flic.kr":
		if m := shortPath.FindStringSubmatch(path); m != nil {
			if id, ok := decodeBase58(m[1]); ok {
				return ParsedURL{Type: TypeSinglePhoto, PhotoID: strconv.FormatUint(id, 10)}, nil
			}
		}
	case strings.HasSuffix(host, "staticflickr.com"), isLegacyStaticHost(host):
		if m := staticPath.FindStringSubmatch(path); m != nil {
			return ParsedURL{Type: TypeSinglePhoto, PhotoID: m[2]}, nil
		}
	case host == "flickr.com" || host == "m.flickr.com":
		return parseFlickrPath(u, path)
	}

	return ParsedURL{}, fmt.Errorf("%w: %s", ErrUnrecognisedURL, raw)
}

func parseFlickrPath(u *url.URL, path string) (ParsedURL, error) {
	if path == "/photo.gne" {
		if id := u.Query().Get("id"); id != "" && isDigits(id) {
			return ParsedURL{Type: TypeSinglePhoto, PhotoID: id}, nil
		}
	}
	if m := tagPath.FindStringSubmatch(path); m != nil {
		return ParsedURL{Type: TypeTag, Tag: m[1]}, nil
	}
	if m := albumPath.FindStringSubmatch(path); m != nil {
		return ParsedURL{Type: TypeAlbum, User: m[1], AlbumID: m[2]}, nil
	}
	if m := galleryPath.FindStringSubmatch(path); m != nil {
		return ParsedURL{Type: TypeGallery, User: m[1], AlbumID: m[2]}, nil
	}
	if m := photoPath.FindStringSubmatch(path); m != nil {
		return ParsedURL{Type: TypeSinglePhoto, User: m[1], PhotoID: m[2]}, nil
	}
	if m := userPath.FindStringSubmatch(path); m != nil {
		return ParsedURL{Type: TypeUser, User: m[1]}, nil
	}
	if m := groupPath.FindStringSubmatch(path); m != nil {
		return ParsedURL{Type: TypeGroup, Group: m[1]}, nil
	}
	return ParsedURL{}, fmt.Errorf("%w: %s", ErrUnrecognisedURL, u.String())
}

const base58Alphabet = "123456789abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

// decodeBase58 decodes the short photo ids used by flic.kr. The input has
// already been matched against the alphabet. Ids that do not fit in a
// uint64 are rejected.
func decodeBase58(s string) (uint64, bool) {
	var n uint64
	for _, r := range s {
		d := uint64(strings.IndexRune(base58Alphabet, r)) //nolint:gosec // r is in the alphabet
		if n > (math.MaxUint64-d)/58 {
			return 0, false
		}
		n = n*58 + d
	}
	return n, true
}

// isLegacyStaticHost matches the farmN.static.flickr.com image hosts of
// older uploads.
func isLegacyStaticHost(host string) bool {
	return host == "static.flickr.com" || strings.HasSuffix(host, ".static.flickr.com")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

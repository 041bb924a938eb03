package bots

import (
	"context"
	"iter"
	"log/slog"
	"strings"

	"github.com/nao1215/wikibots/internal/cache"
	"github.com/nao1215/wikibots/internal/model"
	"github.com/nao1215/wikibots/internal/runner"
	"github.com/nao1215/wikibots/internal/wikitext"
)

// Bot names.
const (
	NameFlickr      = "flickr"
	NameINaturalist = "inaturalist"
	NameYouTube     = "youtube"
	NamePAS         = "pas"
	NameUSACE       = "usace"
)

// Names lists every bot in the order the CLI shows them.
func Names() []string {
	return []string{NameFlickr, NameINaturalist, NameYouTube, NamePAS, NameUSACE}
}

// historicalPrefixes keeps the cache namespaces of bots that ran before
// prefixes were derived from names, so their marks stay valid.
var historicalPrefixes = map[string]string{
	NameFlickr:      "xQ6cz5J84Viw/K6FIcOH1kxJjfiS8jO56AoSmhBgO/A=",
	NameINaturalist: "ZHXgxFHT4ZBJjR+fLxCH9quuLYl7ky4N6fNV/oC4fbs=",
	NamePAS:         "pas",
}

// DefaultPrefix returns the cache prefix used by a bot when none is
// configured.
func DefaultPrefix(name string) string {
	if p, ok := historicalPrefixes[name]; ok {
		return p
	}
	return cache.Namespace(name)
}

// Wiki is the part of the MediaWiki client used by page generators and
// filters.
type Wiki interface {
	Username() string
	Search(ctx context.Context, query string, ns int) iter.Seq2[*model.Page, error]
	CategoryMembers(ctx context.Context, category string, ns int) iter.Seq2[*model.Page, error]
	Contributors(ctx context.Context, title string) ([]string, error)
	OldestRevisionUser(ctx context.Context, title string) (string, error)
}

// Deps holds the services shared by all bots.
type Deps struct {
	Wiki Wiki

	// Cache is the skip cache. Bots use it for keys other than the page
	// key, such as unavailable remote records.
	Cache cache.Store

	// Prefix is the cache key prefix of the bot.
	Prefix string

	Logger *slog.Logger
}

func (d Deps) logger(bot string) *slog.Logger {
	if d.Logger == nil {
		return slog.Default().With("bot", bot)
	}
	return d.Logger.With("bot", bot)
}

// Settings are per-bot overrides. Empty fields keep the bot's default.
type Settings struct {
	// Summary is the edit summary.
	Summary string `yaml:"summary"`

	// Search replaces the search query of search-driven bots.
	Search string `yaml:"search"`

	// Category replaces the category of category-driven bots.
	Category string `yaml:"category"`

	// Uploader is the account whose uploads the usace bot handles.
	Uploader string `yaml:"uploader"`
}

func (s Settings) summary(def string) string {
	if s.Summary != "" {
		return s.Summary
	}
	return def
}

func (s Settings) search(def string) string {
	if s.Search != "" {
		return s.Search
	}
	return def
}

func (s Settings) category(def string) string {
	if s.Category != "" {
		return s.Category
	}
	return def
}

// templateValue returns the first of params found on the first template
// called one of names, reduced to plain text. A missing template or
// parameter is a skip.
func templateValue(doc *wikitext.Document, names []string, params ...string) (string, error) {
	found := doc.TemplatesNamed(names...)
	if len(found) == 0 {
		return "", runner.Skip("no %s template", strings.Join(names, "/"))
	}

	t := found[0]
	for _, p := range params {
		if v, ok := t.Get(p); ok {
			if v = wikitext.StripCode(v); v != "" {
				return v, nil
			}
		}
	}
	return "", runner.Skip("%s template is missing %s", t.Name, strings.Join(params, "/"))
}

// compile-time checks
var (
	_ runner.Handler = (*FlickrBot)(nil)
	_ runner.Handler = (*INaturalistBot)(nil)
	_ runner.Handler = (*YouTubeBot)(nil)
	_ runner.Handler = (*PASBot)(nil)
	_ runner.Handler = (*USACEBot)(nil)
)

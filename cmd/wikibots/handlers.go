package main

import (
	"context"
	"fmt"

	"github.com/nao1215/wikibots/internal/bots"
	"github.com/nao1215/wikibots/internal/config"
	"github.com/nao1215/wikibots/internal/flickr"
	"github.com/nao1215/wikibots/internal/inaturalist"
	"github.com/nao1215/wikibots/internal/pas"
	"github.com/nao1215/wikibots/internal/runner"
	"github.com/nao1215/wikibots/internal/sparql"
	"github.com/nao1215/wikibots/internal/youtube"
)

// settingsFor converts the configured overrides of a bot.
func settingsFor(bc config.BotConfig) bots.Settings {
	return bots.Settings{
		Summary:  bc.Summary,
		Search:   bc.Search,
		Category: bc.Category,
		Uploader: bc.Uploader,
	}
}

// newHandler creates the named bot together with the clients of the
// platform it reads from. userAgent is sent to those platforms.
func newHandler(ctx context.Context, name string, cfg *config.Config, deps bots.Deps, userAgent string) (runner.Handler, error) {
	settings := settingsFor(cfg.Bot(name))
	logger := deps.Logger

	switch name {
	case bots.NameFlickr:
		photos, err := flickr.New(cfg.FlickrAPIKey, userAgent, flickr.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return bots.NewFlickr(deps, photos, settings), nil

	case bots.NameINaturalist:
		observations := inaturalist.New(userAgent, inaturalist.WithLogger(logger))
		taxa := sparql.New(userAgent, sparql.WithLogger(logger))
		return bots.NewINaturalist(deps, observations, taxa, settings), nil

	case bots.NameYouTube:
		videos, err := youtube.New(ctx, cfg.YouTubeAPIKey, logger)
		if err != nil {
			return nil, err
		}
		return bots.NewYouTube(deps, videos, youtube.NewLinguaDetector(), settings), nil

	case bots.NamePAS:
		images := pas.New(userAgent, pas.WithLogger(logger))
		return bots.NewPAS(deps, images, settings), nil

	case bots.NameUSACE:
		return bots.NewUSACE(deps, settings), nil
	}

	return nil, fmt.Errorf("%w: %s", config.ErrUnknownBot, name)
}

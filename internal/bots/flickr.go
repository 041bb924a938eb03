package bots

import (
	"context"
	"errors"
	"iter"
	"log/slog"

	"github.com/nao1215/wikibots/internal/cache"
	"github.com/nao1215/wikibots/internal/flickr"
	"github.com/nao1215/wikibots/internal/model"
	"github.com/nao1215/wikibots/internal/runner"
	"github.com/nao1215/wikibots/internal/sdc"
	"github.com/nao1215/wikibots/internal/wikibase"
	"github.com/nao1215/wikibots/internal/wikitext"
)

const (
	// FlickrSummary is the default edit summary of the flickr bot.
	FlickrSummary = "add [[Commons:Structured data|SDC]] based on metadata from Flickr. Task #2"

	// FlickrCategory holds the files the flickr bot works on.
	FlickrCategory = "Flickr images missing SDC creator"

	// FlickrReviewedCategory holds files whose license FlickreviewR 2
	// verified.
	FlickrReviewedCategory = "Flickr images reviewed by FlickreviewR 2"
)

// PhotoSource looks up Flickr photos.
type PhotoSource interface {
	Photo(ctx context.Context, id string) (*flickr.Photo, error)
}

// flickrPrecisions maps date taken granularities to time precisions.
var flickrPrecisions = map[flickr.Granularity]wikibase.Precision{
	flickr.GranularitySecond: wikibase.PrecisionDay,
	flickr.GranularityMonth:  wikibase.PrecisionMonth,
	flickr.GranularityYear:   wikibase.PrecisionYear,
	flickr.GranularityCirca:  wikibase.PrecisionYear,
}

// FlickrBot adds creator, source, location and date statements to files
// imported from Flickr.
type FlickrBot struct {
	deps     Deps
	photos   PhotoSource
	settings Settings
	logger   *slog.Logger
}

// NewFlickr returns the flickr bot.
func NewFlickr(deps Deps, photos PhotoSource, settings Settings) *FlickrBot {
	return &FlickrBot{
		deps:     deps,
		photos:   photos,
		settings: settings,
		logger:   deps.logger(NameFlickr),
	}
}

// Name implements runner.Handler.
func (b *FlickrBot) Name() string { return NameFlickr }

// Summary implements runner.Handler.
func (b *FlickrBot) Summary() string { return b.settings.summary(FlickrSummary) }

// Pages implements runner.Handler.
func (b *FlickrBot) Pages(ctx context.Context) iter.Seq2[*model.Page, error] {
	return b.deps.Wiki.CategoryMembers(ctx, b.settings.category(FlickrCategory), model.NamespaceFile)
}

// Skip implements runner.Handler.
func (b *FlickrBot) Skip(context.Context, *model.Page) (bool, error) {
	return false, nil
}

// Treat implements runner.Handler.
func (b *FlickrBot) Treat(ctx context.Context, task *model.Task) error {
	if !task.Page.InCategory(FlickrReviewedCategory) {
		return runner.Skip("not in %s", FlickrReviewedCategory)
	}

	reviews := wikitext.Parse(task.Page.Text).TemplatesNamed("FlickreviewR")
	if len(reviews) != 1 {
		return runner.Skip("found %d FlickreviewR templates", len(reviews))
	}

	urls := reviews[0].Values("sourceurl")
	if len(urls) != 1 {
		return runner.Skip("FlickreviewR has %d sourceurl parameters", len(urls))
	}
	sourceURL := wikitext.StripCode(urls[0])
	b.logger.Info("flickr url", "mid", task.MID(), "url", sourceURL)

	parsed, err := flickr.ParseURL(sourceURL)
	if err != nil {
		return runner.SkipCause("invalid Flickr URL", err)
	}
	if parsed.Type != flickr.TypeSinglePhoto {
		return runner.Skip("not a single photo but %s", parsed.Type)
	}

	photo, err := b.photo(ctx, parsed.PhotoID)
	if err != nil {
		return err
	}

	sdc.AddID(task, wikibase.PropertyFlickrPhotoID, photo.ID)
	sdc.AddCreator(task, photo.Owner.Name(), photo.Owner.ProfileURL,
		wikibase.NewSnak(wikibase.PropertyFlickrUserID, wikibase.StringValue(photo.Owner.ID)))
	sdc.AddSource(task, photo.URL, wikibase.EntityFlickr)
	b.addLocation(task, photo.Location)
	b.addInception(task, photo.Taken)
	if !photo.Posted.IsZero() {
		sdc.AddPublishedIn(task, wikibase.EntityFlickr, wikibase.NewWbTime(photo.Posted, wikibase.PrecisionDay))
	}
	return nil
}

// photo fetches a photo, remembering photos that are gone or private.
func (b *FlickrBot) photo(ctx context.Context, id string) (*flickr.Photo, error) {
	key := cache.Key(b.deps.Prefix, id, "photo")

	unavailable, err := b.deps.Cache.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if unavailable {
		return nil, runner.Skip("photo %s is cached as unavailable", id)
	}

	photo, err := b.photos.Photo(ctx, id)
	switch {
	case errors.Is(err, flickr.ErrPhotoNotFound), errors.Is(err, flickr.ErrPhotoIsPrivate):
		if merr := b.deps.Cache.Mark(ctx, key); merr != nil {
			b.logger.Warn("failed to mark photo", "photo_id", id, "error", merr)
		}
		return nil, runner.SkipCause("photo unavailable", err)
	case err != nil:
		return nil, runner.Transient(err)
	}
	return photo, nil
}

func (b *FlickrBot) addLocation(task *model.Task, loc *flickr.Location) {
	if loc == nil {
		return
	}
	precision, ok := flickr.LocationPrecision(loc.Accuracy)
	if !ok {
		b.logger.Error("unrecognised location accuracy", "mid", task.MID(), "accuracy", loc.Accuracy)
		return
	}
	sdc.AddCoordinates(task, loc.Latitude, loc.Longitude, precision)
}

func (b *FlickrBot) addInception(task *model.Task, taken *flickr.DateTaken) {
	if taken == nil {
		return
	}
	precision, ok := flickrPrecisions[taken.Granularity]
	if !ok {
		b.logger.Error("unrecognised date granularity", "mid", task.MID(), "granularity", taken.Granularity)
		return
	}
	sdc.AddInception(task, wikibase.NewWbTime(taken.Value, precision), taken.Granularity == flickr.GranularityCirca)
}

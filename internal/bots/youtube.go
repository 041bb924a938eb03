package bots

import (
	"context"
	"errors"
	"iter"
	"log/slog"

	"github.com/nao1215/wikibots/internal/model"
	"github.com/nao1215/wikibots/internal/runner"
	"github.com/nao1215/wikibots/internal/sdc"
	"github.com/nao1215/wikibots/internal/wikibase"
	"github.com/nao1215/wikibots/internal/wikitext"
	"github.com/nao1215/wikibots/internal/youtube"
)

const (
	// YouTubeSummary is the default edit summary of the youtube bot.
	YouTubeSummary = "add [[Commons:Structured data|SDC]] based on metadata from YouTube. Test run."

	// YouTubeSearch selects license-reviewed videos without a video id.
	YouTubeSearch = `file: deepcat:"License reviewed by YouTubeReviewBot" filemime:video hastemplate:"YouTubeReview" -haswbstatement:` + wikibase.PropertyYouTubeVideoID
)

// VideoSource looks up YouTube videos and channels.
type VideoSource interface {
	Video(ctx context.Context, id string) (*youtube.Video, error)
	ChannelHandle(ctx context.Context, channelID string) (string, error)
}

// YouTubeBot adds video, channel and publication statements to videos
// imported from YouTube.
type YouTubeBot struct {
	deps     Deps
	videos   VideoSource
	detector youtube.LanguageDetector
	settings Settings
	logger   *slog.Logger
}

// NewYouTube returns the youtube bot.
func NewYouTube(deps Deps, videos VideoSource, detector youtube.LanguageDetector, settings Settings) *YouTubeBot {
	return &YouTubeBot{
		deps:     deps,
		videos:   videos,
		detector: detector,
		settings: settings,
		logger:   deps.logger(NameYouTube),
	}
}

// Name implements runner.Handler.
func (b *YouTubeBot) Name() string { return NameYouTube }

// Summary implements runner.Handler.
func (b *YouTubeBot) Summary() string { return b.settings.summary(YouTubeSummary) }

// Pages implements runner.Handler.
func (b *YouTubeBot) Pages(ctx context.Context) iter.Seq2[*model.Page, error] {
	return b.deps.Wiki.Search(ctx, b.settings.search(YouTubeSearch), model.NamespaceFile)
}

// Skip implements runner.Handler.
func (b *YouTubeBot) Skip(context.Context, *model.Page) (bool, error) {
	return false, nil
}

// Treat implements runner.Handler.
func (b *YouTubeBot) Treat(ctx context.Context, task *model.Task) error {
	videoID, err := templateValue(wikitext.Parse(task.Page.Text), []string{"YouTubeReview"}, "id")
	if err != nil {
		return err
	}

	video, err := b.videos.Video(ctx, videoID)
	if errors.Is(err, youtube.ErrVideoNotFound) {
		return runner.SkipCause("video is gone", err)
	}
	if err != nil {
		return runner.Transient(err)
	}

	handle, err := b.videos.ChannelHandle(ctx, video.ChannelID)
	if err != nil {
		return runner.Transient(err)
	}
	b.logger.Info("youtube video", "mid", task.MID(), "video_id", videoID,
		"channel_id", video.ChannelID, "channel_handle", handle)

	sdc.AddID(task, wikibase.PropertyYouTubeVideoID, videoID)
	sdc.AddPublishedIn(task, wikibase.EntityYouTube, wikibase.NewWbTime(video.PublishedAt, wikibase.PrecisionDay))

	var extra []wikibase.Snak
	if handle != "" {
		extra = append(extra, wikibase.NewSnak(wikibase.PropertyYouTubeHandle, wikibase.StringValue(handle)))
	}
	extra = append(extra, wikibase.NewSnak(wikibase.PropertyYouTubeChannelID, wikibase.StringValue(video.ChannelID)))
	sdc.AddCreator(task, video.ChannelTitle, "", extra...)

	sdc.AddSource(task, video.WatchURL(), wikibase.EntityYouTube)
	b.amendLicense(task, video)
	return nil
}

// amendLicense adds the video title and channel name as qualifiers of the
// license statement when the file has exactly one.
func (b *YouTubeBot) amendLicense(task *model.Task, video *youtube.Video) {
	licenses := task.Existing.Get(wikibase.PropertyCopyrightLicense)
	if len(licenses) != 1 {
		return
	}

	license := licenses[0].Clone()
	edited := false

	if !license.HasQualifier(wikibase.PropertyTitle) {
		if lang, ok := b.detector.Detect(video.Title); ok {
			license.AddQualifier(wikibase.NewSnak(wikibase.PropertyTitle, wikibase.MonolingualValue(video.Title, lang)))
			edited = true
		} else {
			b.logger.Warn("could not detect title language", "mid", task.MID(), "title", video.Title)
		}
	}

	if !license.HasQualifier(wikibase.PropertyAuthorNameString) && video.ChannelTitle != "" {
		license.AddQualifier(wikibase.NewSnak(wikibase.PropertyAuthorNameString, wikibase.StringValue(video.ChannelTitle)))
		edited = true
	}

	if edited {
		task.AddClaim(license)
	}
}

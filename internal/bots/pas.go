package bots

import (
	"context"
	"iter"
	"log/slog"
	"strings"

	"github.com/nao1215/wikibots/internal/model"
	"github.com/nao1215/wikibots/internal/pas"
	"github.com/nao1215/wikibots/internal/runner"
	"github.com/nao1215/wikibots/internal/sdc"
	"github.com/nao1215/wikibots/internal/wikibase"
	"github.com/nao1215/wikibots/internal/wikitext"
)

const (
	// PASSummary is the default edit summary of the pas bot.
	PASSummary = "add [[Commons:Structured data|SDC]] based on metadata from Portable Antiquities Scheme Database"

	// PASSearch selects Portable Antiquities Scheme files without an image id.
	PASSearch = `file: incategory:"Portable Antiquities Scheme" -haswbstatement:` + wikibase.PropertyPASImageID
)

// ImageSource looks up finds database images.
type ImageSource interface {
	Image(ctx context.Context, id string) (*pas.Image, error)
	DownloadSHA1(ctx context.Context, id string) (string, error)
}

// PASBot adds the finds database image id to files whose content matches
// the database image byte for byte.
type PASBot struct {
	deps     Deps
	images   ImageSource
	settings Settings
	logger   *slog.Logger
}

// NewPAS returns the pas bot.
func NewPAS(deps Deps, images ImageSource, settings Settings) *PASBot {
	return &PASBot{
		deps:     deps,
		images:   images,
		settings: settings,
		logger:   deps.logger(NamePAS),
	}
}

// Name implements runner.Handler.
func (b *PASBot) Name() string { return NamePAS }

// Summary implements runner.Handler.
func (b *PASBot) Summary() string { return b.settings.summary(PASSummary) }

// Pages implements runner.Handler.
func (b *PASBot) Pages(ctx context.Context) iter.Seq2[*model.Page, error] {
	return b.deps.Wiki.Search(ctx, b.settings.search(PASSearch), model.NamespaceFile)
}

// Skip implements runner.Handler.
func (b *PASBot) Skip(context.Context, *model.Page) (bool, error) {
	return false, nil
}

// Treat implements runner.Handler.
func (b *PASBot) Treat(ctx context.Context, task *model.Task) error {
	ids := pas.ImageIDs(wikitext.Parse(task.Page.Text).ExternalLinks())
	if len(ids) != 1 {
		return runner.Skip("found %d image ids %v", len(ids), ids)
	}
	id := ids[0]
	b.logger.Info("pas image", "mid", task.MID(), "image_id", id)

	if _, err := b.images.Image(ctx, id); err != nil {
		return runner.SkipCause("failed to fetch image record", err)
	}

	hash, err := b.images.DownloadSHA1(ctx, id)
	if err != nil {
		return runner.SkipCause("failed to download image", err)
	}
	if !strings.EqualFold(hash, task.Page.SHA1) {
		return runner.Skip("image hash %s does not match file hash %s", hash, task.Page.SHA1)
	}

	sdc.AddID(task, wikibase.PropertyPASImageID, id)
	return nil
}

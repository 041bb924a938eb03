package bots

import (
	"context"
	"iter"
	"log/slog"
	"regexp"
	"strings"

	"github.com/nao1215/wikibots/internal/model"
	"github.com/nao1215/wikibots/internal/runner"
	"github.com/nao1215/wikibots/internal/sdc"
	"github.com/nao1215/wikibots/internal/wikibase"
	"github.com/nao1215/wikibots/internal/wikitext"
)

const (
	// USACESummary is the default edit summary of the usace bot.
	USACESummary = "add [[Commons:Structured data|SDC]] based on metadata. Task #3"

	// USACESearch selects USACE images without a source statement.
	USACESearch = `deepcat:"Images from USACE" -haswbstatement:` + wikibase.PropertySourceOfFile

	// USACEUploader is the account that uploaded the USACE images.
	USACEUploader = "CuratorBot"
)

var usaceSource = regexp.MustCompile(`^https://usace\.contentdm\.oclc\.org/digital/collection/p\d+coll\d+/id/\d+$`)

// USACEBot adds inception and source statements to images uploaded from
// the US Army Corps of Engineers digital library.
type USACEBot struct {
	deps     Deps
	settings Settings
	logger   *slog.Logger
}

// NewUSACE returns the usace bot.
func NewUSACE(deps Deps, settings Settings) *USACEBot {
	return &USACEBot{
		deps:     deps,
		settings: settings,
		logger:   deps.logger(NameUSACE),
	}
}

// Name implements runner.Handler.
func (b *USACEBot) Name() string { return NameUSACE }

// Summary implements runner.Handler.
func (b *USACEBot) Summary() string { return b.settings.summary(USACESummary) }

// Pages implements runner.Handler.
func (b *USACEBot) Pages(ctx context.Context) iter.Seq2[*model.Page, error] {
	return b.deps.Wiki.Search(ctx, b.settings.search(USACESearch), model.NamespaceFile)
}

// Skip implements runner.Handler. Only files created by the uploader
// account are handled.
func (b *USACEBot) Skip(ctx context.Context, page *model.Page) (bool, error) {
	user, err := b.deps.Wiki.OldestRevisionUser(ctx, page.Title)
	if err != nil {
		return false, err
	}
	uploader := b.settings.Uploader
	if uploader == "" {
		uploader = USACEUploader
	}
	return user != uploader, nil
}

// Treat implements runner.Handler.
func (b *USACEBot) Treat(_ context.Context, task *model.Task) error {
	templates := wikitext.Parse(task.Page.Text).TemplatesNamed("Photograph", "Book")
	if len(templates) == 0 {
		return runner.Skip("no Photograph or Book template")
	}

	t := templates[0]
	if date, ok := t.Get("date"); ok {
		b.addInception(task, date)
	}

	source, _ := t.Get("source")
	source = strings.TrimSpace(source)
	if usaceSource.MatchString(source) {
		sdc.AddSource(task, source, wikibase.EntityUSACE)
	} else if source != "" {
		b.logger.Debug("source is not a USACE digital library URL", "mid", task.MID(), "source", source)
	}
	return nil
}

// addInception reads plain ISO dates and {{complex date|ca|DATE}}.
func (b *USACEBot) addInception(task *model.Task, date string) {
	if w, err := wikibase.ParseISODate(date); err == nil {
		sdc.AddInception(task, w, false)
		return
	}

	qualifier, value, ok := wikitext.ComplexDate(date)
	if !ok || qualifier != "ca" {
		b.logger.Debug("unsupported date", "mid", task.MID(), "date", date)
		return
	}
	if w, err := wikibase.ParseISODate(value); err == nil {
		sdc.AddInception(task, w, true)
	}
}

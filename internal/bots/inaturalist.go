package bots

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"regexp"
	"slices"
	"strconv"

	"github.com/nao1215/wikibots/internal/inaturalist"
	"github.com/nao1215/wikibots/internal/model"
	"github.com/nao1215/wikibots/internal/runner"
	"github.com/nao1215/wikibots/internal/sdc"
	"github.com/nao1215/wikibots/internal/wikibase"
	"github.com/nao1215/wikibots/internal/wikitext"
)

const (
	// INaturalistSummary is the default edit summary of the inaturalist bot.
	INaturalistSummary = "add [[Commons:Structured data|SDC]] based on metadata from iNaturalist. Test run."

	// INaturalistSearch selects reviewed iNaturalist files without a photo id.
	INaturalistSearch = "file: hastemplate:iNaturalist hastemplate:iNaturalistReview -haswbstatement:" + wikibase.PropertyINaturalistPhotoID
)

var (
	inaturalistReviewTemplates = []string{"iNaturalistReview", "iNaturalistreview"}
	inaturalistTemplates       = []string{"iNaturalist", "inaturalist"}
	inaturalistPhotoURL        = regexp.MustCompile(`^https://www\.inaturalist\.org/photos/(\d+)`)
)

// ObservationSource looks up iNaturalist observations.
type ObservationSource interface {
	Observation(ctx context.Context, id string) (*inaturalist.Observation, error)
}

// TaxonResolver finds Wikidata items by external identifier.
type TaxonResolver interface {
	ItemsByExternalID(ctx context.Context, property, value string) ([]string, error)
}

// INaturalistBot adds identifiers, creator and depicted taxon to files
// imported from iNaturalist.
type INaturalistBot struct {
	deps         Deps
	observations ObservationSource
	taxa         TaxonResolver
	settings     Settings
	logger       *slog.Logger
}

// NewINaturalist returns the inaturalist bot.
func NewINaturalist(deps Deps, observations ObservationSource, taxa TaxonResolver, settings Settings) *INaturalistBot {
	return &INaturalistBot{
		deps:         deps,
		observations: observations,
		taxa:         taxa,
		settings:     settings,
		logger:       deps.logger(NameINaturalist),
	}
}

// Name implements runner.Handler.
func (b *INaturalistBot) Name() string { return NameINaturalist }

// Summary implements runner.Handler.
func (b *INaturalistBot) Summary() string { return b.settings.summary(INaturalistSummary) }

// Pages implements runner.Handler.
func (b *INaturalistBot) Pages(ctx context.Context) iter.Seq2[*model.Page, error] {
	return b.deps.Wiki.Search(ctx, b.settings.search(INaturalistSearch), model.NamespaceFile)
}

// Skip implements runner.Handler. Pages the bot account already edited
// are left alone.
func (b *INaturalistBot) Skip(ctx context.Context, page *model.Page) (bool, error) {
	contributors, err := b.deps.Wiki.Contributors(ctx, page.Title)
	if err != nil {
		return false, err
	}
	return slices.Contains(contributors, b.deps.Wiki.Username()), nil
}

// Treat implements runner.Handler.
func (b *INaturalistBot) Treat(ctx context.Context, task *model.Task) error {
	doc := wikitext.Parse(task.Page.Text)

	status, err := templateValue(doc, inaturalistReviewTemplates, "status")
	if err != nil {
		return err
	}
	if status != "pass" && status != "pass-change" {
		return runner.Skip("iNaturalistReview status is %s", status)
	}

	observationID, err := templateValue(doc, inaturalistTemplates, "id", "1")
	if err != nil {
		return err
	}
	photoURL, err := templateValue(doc, inaturalistReviewTemplates, "sourceurl")
	if err != nil {
		return err
	}
	m := inaturalistPhotoURL.FindStringSubmatch(photoURL)
	if m == nil {
		return runner.Skip("invalid iNaturalist photo URL %s", photoURL)
	}
	photoID := m[1]
	b.logger.Info("inaturalist ids", "mid", task.MID(), "photo_id", photoID, "observation_id", observationID)

	obs, err := b.observations.Observation(ctx, observationID)
	if err != nil {
		return runner.SkipCause("failed to fetch observation", err)
	}
	if !obs.HasPhoto(photoID) {
		return runner.Skip("photo %s is not attached to observation %s", photoID, observationID)
	}

	depicts, err := b.depicts(ctx, obs)
	if err != nil {
		return err
	}

	sdc.AddID(task, wikibase.PropertyINaturalistPhotoID, photoID)
	sdc.AddID(task, wikibase.PropertyINaturalistObservationID, observationID)
	sdc.AddSource(task, "https://www.inaturalist.org/photos/"+photoID, wikibase.EntityINaturalist)
	sdc.AddDepicts(task, depicts, wikibase.NewSnak(wikibase.PropertyStatedIn, wikibase.ItemValue(wikibase.EntityINaturalist)))
	if obs.User != nil {
		sdc.AddCreator(task, obs.User.DisplayName(), "",
			wikibase.NewSnak(wikibase.PropertyINaturalistUserID, wikibase.StringValue(strconv.FormatInt(obs.User.ID, 10))))
	}
	return nil
}

// depicts walks the taxon ancestry from the most specific rank and
// returns the first taxon with exactly one Wikidata item. An ambiguous
// taxon ends the walk without a result.
func (b *INaturalistBot) depicts(ctx context.Context, obs *inaturalist.Observation) (string, error) {
	if !obs.IsResearchGrade() {
		b.logger.Warn("observation is not research grade", "observation_id", obs.ID, "quality_grade", obs.QualityGrade)
		return "", nil
	}

	taxon := obs.PreferredTaxon()
	if taxon == nil {
		return "", nil
	}

	for i := len(taxon.AncestorIDs) - 1; i >= 0; i-- {
		id := strconv.FormatInt(taxon.AncestorIDs[i], 10)

		items, err := b.taxa.ItemsByExternalID(ctx, wikibase.PropertyINaturalistTaxonID, id)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return "", err
			}
			return "", runner.Transient(err)
		}

		switch len(items) {
		case 0:
			b.logger.Warn("no Wikidata item for taxon", "taxon", "https://www.inaturalist.org/taxa/"+id)
			continue
		case 1:
			b.logger.Info("found Wikidata item for taxon", "taxon", id, "item", items[0])
			return items[0], nil
		default:
			b.logger.Warn("multiple Wikidata items for taxon", "taxon", id, "items", items)
			return "", nil
		}
	}
	return "", nil
}

package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/wikibots/internal/mediawiki"
	"github.com/nao1215/wikibots/internal/model"
	"github.com/nao1215/wikibots/internal/wikibase"
)

// cacheStep stops processing of pages whose key is already marked.
type cacheStep struct {
	r *Runner
}

func (s *cacheStep) Name() string { return "cache" }

func (s *cacheStep) Do(ctx context.Context, task *model.Task) error {
	found, err := s.r.store.Exists(ctx, task.CacheKey)
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", task.CacheKey, err)
	}
	if found {
		return errCached
	}
	return nil
}

// filterStep asks the handler whether to skip the page before loading it.
type filterStep struct {
	r *Runner
}

func (s *filterStep) Name() string { return "filter" }

func (s *filterStep) Do(ctx context.Context, task *model.Task) error {
	skip, err := s.r.handler.Skip(ctx, task.Page)
	if err != nil {
		return err
	}
	if skip {
		return errFiltered
	}
	return nil
}

// loadStep fetches the page content.
type loadStep struct {
	r *Runner
}

func (s *loadStep) Name() string { return "load" }

func (s *loadStep) Do(ctx context.Context, task *model.Task) error {
	if task.Page.Loaded {
		return nil
	}
	page, err := s.r.wiki.LoadPage(ctx, task.Page.Title)
	if err != nil {
		if errors.Is(err, mediawiki.ErrPageNotFound) {
			return SkipCause("page is gone", err)
		}
		return err
	}
	if page.PageID == 0 {
		page.PageID = task.Page.PageID
	}
	task.Page = page
	return nil
}

// claimsStep fetches the statements already on the file.
type claimsStep struct {
	r *Runner
}

func (s *claimsStep) Name() string { return "claims" }

func (s *claimsStep) Do(ctx context.Context, task *model.Task) error {
	existing, err := s.r.wiki.Entity(ctx, task.MID())
	if err != nil {
		return err
	}
	if existing == nil {
		existing = wikibase.ClaimCollection{}
	}
	task.Existing = existing
	return nil
}

// treatStep hands the page to the bot.
type treatStep struct {
	r *Runner
}

func (s *treatStep) Name() string { return "treat" }

func (s *treatStep) Do(ctx context.Context, task *model.Task) error {
	return s.r.handler.Treat(ctx, task)
}

// saveStep submits the queued statements. It sets the task outcome.
type saveStep struct {
	r *Runner
}

func (s *saveStep) Name() string { return "save" }

func (s *saveStep) Do(ctx context.Context, task *model.Task) error {
	logger := s.r.logger.With("mid", task.MID())

	if len(task.NewClaims) == 0 {
		logger.Info("no claims to set")
		task.Finish(model.OutcomeUnchanged, "no new statements", nil)
		return nil
	}

	if s.r.dryRun {
		logger.Info("dry run, not saving", "properties", task.Properties(), "diff", claimDiff(task))
		task.Finish(model.OutcomeDryRun, "", nil)
		return nil
	}

	if logger.Enabled(ctx, slog.LevelDebug) {
		logger.Debug("pending changes", "diff", claimDiff(task))
	}

	if err := s.r.limiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	revision, err := s.r.wiki.EditEntity(ctx, mediawiki.EditRequest{
		ID:      task.MID(),
		Claims:  task.NewClaims,
		Summary: s.r.handler.Summary(),
		Tags:    s.r.tags,
		Bot:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", task.MID(), err)
	}

	logger.Info("updated", "title", task.Page.Title, "revision", revision,
		"took", time.Since(start).Round(10*time.Millisecond))
	task.Finish(model.OutcomeEdited, "", nil)
	return nil
}

// claimDiff renders the difference between the statements a submission
// replaces and the statements it sends.
func claimDiff(task *model.Task) string {
	before := make([]any, 0)
	after := make([]any, 0, len(task.NewClaims))

	for _, s := range task.NewClaims {
		if s.ID != "" {
			for _, old := range task.Existing.Get(s.Property()) {
				if old.ID == s.ID {
					before = append(before, plain(old))
				}
			}
		}
		after = append(after, plain(s))
	}
	return cmp.Diff(before, after)
}

// plain converts a statement to its JSON shape so the diff shows field
// names as they appear on the wiki.
func plain(s *wikibase.Statement) any {
	data, err := json.Marshal(s)
	if err != nil {
		return s
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return s
	}
	return out
}

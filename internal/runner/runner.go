package runner

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/wikibots/internal/cache"
	"github.com/nao1215/wikibots/internal/mediawiki"
	"github.com/nao1215/wikibots/internal/model"
	"github.com/nao1215/wikibots/internal/wikibase"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// DefaultConcurrency is the number of pages processed at once.
	DefaultConcurrency = 1

	// DefaultThrottle is the minimum interval between two edits.
	DefaultThrottle = 10 * time.Second

	// DefaultBackoff is the pause after a transient failure.
	DefaultBackoff = 60 * time.Second
)

// Handler is the bot-specific part of a run.
type Handler interface {
	// Name identifies the bot, e.g. "flickr".
	Name() string

	// Summary is the edit summary.
	Summary() string

	// Pages yields the candidate file pages.
	Pages(ctx context.Context) iter.Seq2[*model.Page, error]

	// Skip reports whether page should be skipped without being loaded.
	// Filtered pages are not remembered in the cache.
	Skip(ctx context.Context, page *model.Page) (bool, error)

	// Treat inspects the loaded page and queues statements on task.
	Treat(ctx context.Context, task *model.Task) error
}

// Wiki is the part of the MediaWiki client the runner needs.
type Wiki interface {
	LoadPage(ctx context.Context, title string) (*model.Page, error)
	Entity(ctx context.Context, mid string) (wikibase.ClaimCollection, error)
	EditEntity(ctx context.Context, req mediawiki.EditRequest) (int64, error)
}

// Recorder persists task and run results.
type Recorder interface {
	Record(ctx context.Context, task *model.Task) error
	RecordRun(ctx context.Context, summary *model.RunSummary) error
}

// Runner processes the pages of one bot.
type Runner struct {
	handler  Handler
	wiki     Wiki
	store    cache.Store
	pipeline *Pipeline

	logger      *slog.Logger
	prefix      string
	concurrency int
	limit       int
	dryRun      bool
	throttle    time.Duration
	backoff     time.Duration
	limiter     *rate.Limiter
	recorder    Recorder
	runID       string
	tags        []string
	onTask      func(*model.Task)

	mu sync.Mutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithCachePrefix sets the prefix of cache keys. It defaults to a value
// derived from the bot name.
func WithCachePrefix(prefix string) Option {
	return func(r *Runner) {
		r.prefix = prefix
	}
}

// WithConcurrency sets how many pages are processed at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLimit stops the run after n pages. Zero means no limit.
func WithLimit(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.limit = n
		}
	}
}

// WithDryRun disables edits and cache writes.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) {
		r.dryRun = dryRun
	}
}

// WithThrottle sets the minimum interval between edits. Zero disables
// throttling.
func WithThrottle(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.throttle = d
		}
	}
}

// WithBackoff sets the pause after a transient failure.
func WithBackoff(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.backoff = d
		}
	}
}

// WithRecorder stores each finished task and the run summary.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithRunID sets the run id. A random UUID is used by default.
func WithRunID(id string) Option {
	return func(r *Runner) {
		r.runID = id
	}
}

// WithTags sets the change tags of edits.
func WithTags(tags ...string) Option {
	return func(r *Runner) {
		r.tags = tags
	}
}

// WithTaskCallback sets a function called after each page. It may be
// called from several goroutines, but never concurrently.
func WithTaskCallback(fn func(*model.Task)) Option {
	return func(r *Runner) {
		r.onTask = fn
	}
}

// New returns a runner for handler.
func New(handler Handler, wiki Wiki, store cache.Store, opts ...Option) *Runner {
	r := &Runner{
		handler:     handler,
		wiki:        wiki,
		store:       store,
		concurrency: DefaultConcurrency,
		throttle:    DefaultThrottle,
		backoff:     DefaultBackoff,
		tags:        []string{mediawiki.BotTag},
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With("bot", handler.Name())
	if r.prefix == "" {
		r.prefix = cache.Namespace(handler.Name())
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	if r.dryRun {
		r.store = cache.ReadOnly{Store: r.store}
	}

	if r.throttle == 0 {
		r.limiter = rate.NewLimiter(rate.Inf, 1)
	} else {
		r.limiter = rate.NewLimiter(rate.Every(r.throttle), 1)
	}

	r.pipeline = NewPipeline(WithPipelineLogger(r.logger))
	r.pipeline.AddSteps(
		&cacheStep{r: r},
		&filterStep{r: r},
		&loadStep{r: r},
		&claimsStep{r: r},
		&treatStep{r: r},
		&saveStep{r: r},
	)
	return r
}

// RunID returns the id of the run.
func (r *Runner) RunID() string {
	return r.runID
}

// CachePrefix returns the prefix of the runner's cache keys.
func (r *Runner) CachePrefix() string {
	return r.prefix
}

// StepNames returns the names of the processing steps in order.
func (r *Runner) StepNames() []string {
	return r.pipeline.StepNames()
}

// Run processes pages until the generator is exhausted, the limit is
// reached or ctx is cancelled. Cancellation is not an error: the summary
// is returned with Interrupted set. A generator error ends the run and is
// returned together with the summary of the pages processed so far.
func (r *Runner) Run(ctx context.Context) (*model.RunSummary, error) {
	summary := model.NewRunSummary(r.runID, r.handler.Name(), r.dryRun)
	r.logger.Info("starting run", "run_id", r.runID, "dry_run", r.dryRun,
		"concurrency", r.concurrency, "limit", r.limit)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	var (
		genErr error
		count  int
	)
	for page, err := range r.handler.Pages(ctx) {
		if err != nil {
			if ctx.Err() == nil {
				genErr = err
			}
			break
		}
		if ctx.Err() != nil {
			break
		}
		if r.limit > 0 && count >= r.limit {
			r.logger.Info("page limit reached", "limit", r.limit)
			break
		}
		count++

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			r.process(gctx, page, summary)
			return nil
		})
	}
	_ = g.Wait()

	interrupted := ctx.Err() != nil
	summary.Finish(interrupted)

	if r.recorder != nil {
		if err := r.recorder.RecordRun(context.WithoutCancel(ctx), summary); err != nil {
			r.logger.Warn("failed to record run", "error", err)
		}
	}

	r.logger.Info("run finished", "run_id", r.runID, "pages", summary.Total(),
		"edited", summary.Count(model.OutcomeEdited), "interrupted", interrupted,
		"elapsed", summary.Elapsed().Round(time.Millisecond))

	if genErr != nil {
		r.logger.Error("page generator failed", "error", genErr)
		return summary, genErr
	}
	return summary, nil
}

// process runs the pipeline for one page and classifies the result.
func (r *Runner) process(ctx context.Context, page *model.Page, summary *model.RunSummary) {
	task := model.NewTask(r.runID, r.handler.Name(), page)
	task.CacheKey = cache.PageKey(r.prefix, page.MID())
	logger := r.logger.With("mid", task.MID())

	err := r.pipeline.Execute(ctx, task)
	r.classify(ctx, logger, task, err)

	summary.Add(task)
	if r.recorder != nil {
		if rerr := r.recorder.Record(context.WithoutCancel(ctx), task); rerr != nil {
			logger.Warn("failed to record task", "error", rerr)
		}
	}
	if r.onTask != nil {
		r.mu.Lock()
		r.onTask(task)
		r.mu.Unlock()
	}
}

func (r *Runner) classify(ctx context.Context, logger *slog.Logger, task *model.Task, err error) {
	switch {
	case err == nil:
		if task.Outcome == "" {
			task.Finish(model.OutcomeUnchanged, "", nil)
		}
	case errors.Is(err, errCached):
		logger.Debug("already in cache")
		task.Finish(model.OutcomeCached, "already in cache", nil)
	case errors.Is(err, errFiltered):
		logger.Debug("filtered")
		task.Finish(model.OutcomeSkipped, "filtered", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Checked before ErrSkip: a fetch cut short must not mark the page.
		reason := "timed out"
		if ctx.Err() != nil {
			reason = "interrupted"
		}
		logger.Debug("page not finished", "reason", reason, "error", err)
		task.Finish(model.OutcomeFailed, reason, err)
	case errors.Is(err, ErrSkip):
		reason := skipReason(err)
		logger.Warn("skipping", "title", task.Page.Title, "reason", reason)
		if merr := r.store.Mark(context.WithoutCancel(ctx), task.CacheKey); merr != nil {
			logger.Warn("failed to mark page", "error", merr)
		}
		task.Finish(model.OutcomeSkipped, reason, nil)
	case errors.Is(err, ErrTransient):
		logger.Error("transient failure, backing off", "error", err, "backoff", r.backoff)
		task.Finish(model.OutcomeFailed, "", err)
		sleep(ctx, r.backoff)
	default:
		logger.Error("failed to process page", "title", task.Page.Title, "error", err)
		task.Finish(model.OutcomeFailed, "", err)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

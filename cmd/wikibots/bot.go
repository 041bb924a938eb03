package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/wikibots/internal/bots"
	"github.com/nao1215/wikibots/internal/cache"
	"github.com/nao1215/wikibots/internal/config"
	"github.com/nao1215/wikibots/internal/history"
	"github.com/nao1215/wikibots/internal/log"
	"github.com/nao1215/wikibots/internal/mediawiki"
	"github.com/nao1215/wikibots/internal/model"
	"github.com/nao1215/wikibots/internal/report"
	"github.com/nao1215/wikibots/internal/runner"
	"github.com/spf13/cobra"
)

// botDescriptions holds the short help of each bot command.
var botDescriptions = map[string]string{
	bots.NameFlickr:      "Add creator, source and date statements to Flickr imports",
	bots.NameINaturalist: "Add observation, taxon and creator statements to iNaturalist imports",
	bots.NameYouTube:     "Add video, channel and license statements to YouTube imports",
	bots.NamePAS:         "Add PAS image IDs to files whose bytes match the PAS database",
	bots.NameUSACE:       "Add source and inception statements to USACE library imports",
}

// NewBotCmd creates the command that runs the named bot.
func NewBotCmd(name string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: botDescriptions[name],
		Long: botDescriptions[name] + `.

The bot walks its candidate pages, skips files already recorded in the
Redis cache, and saves the statements each file is missing. A run summary
is printed when the generator is exhausted or the run is interrupted.

Examples:
  # Preview the first 10 edits without saving anything
  wikibots ` + name + ` --dry --limit 10

  # Run with two workers and write a Markdown summary
  wikibots ` + name + ` -b 2 -m -o reports/` + name + `.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBotCmd(cmd, name)
		},
	}

	cmd.Flags().Bool("dry", false,
		"Compute statements without editing and without writing the cache")
	cmd.Flags().IntP("limit", "l", 0,
		"Stop after this many pages (0 means no limit)")
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of pages processed at once")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .wikibots in current or home directory)")
	cmd.Flags().String("env-file", config.DefaultDotEnvFile,
		".env file merged into the environment")
	cmd.Flags().Bool("json-log", false,
		"Write logs as JSON lines")
	cmd.Flags().Bool("no-history", false,
		"Do not record tasks in the history database")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write summary to specified file path (creates directories if needed)")

	return cmd
}

// runBotCmd executes a bot command.
func runBotCmd(cmd *cobra.Command, name string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(name); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runBot(ctx, cfg, name, logger, cmd.OutOrStdout())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the configuration sources and the
// command flags. Flags are applied last.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.DotEnvFile, err = cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}

	if err := cfg.Load(); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	cfg.JSONLog, err = cmd.Flags().GetBool("json-log")
	if err != nil {
		return nil, err
	}

	cfg.DryRun, err = cmd.Flags().GetBool("dry")
	if err != nil {
		return nil, err
	}

	cfg.Limit, err = cmd.Flags().GetInt("limit")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.NoHistory, err = cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// setupLogger creates a structured logger that masks the configured
// secrets.
func setupLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	if cfg.JSONLog {
		return log.NewSecureJSONLogger(w, cfg.Verbose, cfg.Secrets()...)
	}
	return log.NewSecureLogger(w, cfg.Verbose, cfg.Secrets()...)
}

// runBot logs in, wires the bot and runs it to completion.
func runBot(ctx context.Context, cfg *config.Config, name string, logger *slog.Logger, stdout io.Writer) error {
	botCfg := cfg.Bot(name)

	wiki, err := mediawiki.New(ctx, cfg.Credentials(),
		mediawiki.WithEndpoint(cfg.Endpoint()),
		mediawiki.WithLogger(logger),
		mediawiki.WithEmail(cfg.Email),
	)
	if err != nil {
		return fmt.Errorf("failed to create wiki client: %w", err)
	}
	if err := wiki.Login(ctx); err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}
	logger.Info("logged in", "user", wiki.Username(), "endpoint", wiki.Endpoint())

	redis, err := cache.NewRedisStore(ctx, cfg.RedisURI)
	if err != nil {
		return fmt.Errorf("failed to connect to cache: %w", err)
	}
	defer redis.Close()

	var store cache.Store = redis
	if cfg.DryRun {
		store = cache.ReadOnly{Store: redis}
	}

	prefix := botCfg.RedisPrefix
	if prefix == "" {
		prefix = bots.DefaultPrefix(name)
	}

	deps := bots.Deps{
		Wiki:   wiki,
		Cache:  store,
		Prefix: prefix,
		Logger: logger,
	}
	handler, err := newHandler(ctx, name, cfg, deps, cfg.UserAgent(wiki.Username()))
	if err != nil {
		return err
	}

	opts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithCachePrefix(prefix),
		runner.WithConcurrency(cfg.Concurrency),
		runner.WithLimit(cfg.Limit),
		runner.WithDryRun(cfg.DryRun),
		runner.WithTaskCallback(progressPrinter(logger)),
	}
	if botCfg.Throttle > 0 {
		opts = append(opts, runner.WithThrottle(botCfg.Throttle))
	}

	if !cfg.NoHistory {
		db, err := history.Open(ctx, cfg.DBDir, history.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Debug("history database opened", "path", db.Path())
		opts = append(opts, runner.WithRecorder(db))
	}

	summary, runErr := runner.New(handler, wiki, store, opts...).Run(ctx)
	if summary != nil {
		if err := writeSummary(cfg, summary, stdout); err != nil {
			logger.Error("report failed", "error", err)
		}
	}

	return runErr
}

// progressPrinter logs each finished task at a level matching its outcome.
func progressPrinter(logger *slog.Logger) func(*model.Task) {
	return func(t *model.Task) {
		attrs := []any{"mid", t.MID(), "title", t.Page.Title, "outcome", t.Outcome}
		switch t.Outcome {
		case model.OutcomeFailed:
			logger.Warn("task finished", append(attrs, "reason", t.Reason)...)
		case model.OutcomeEdited, model.OutcomeDryRun:
			logger.Info("task finished", append(attrs, "properties", t.Properties())...)
		default:
			logger.Debug("task finished", append(attrs, "reason", t.Reason)...)
		}
	}
}

// writeSummary outputs the run summary in the requested format.
func writeSummary(cfg *config.Config, summary *model.RunSummary, stdout io.Writer) error {
	output, closeFn, err := report.Open(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer closeFn() //nolint:errcheck // Write errors are reported below

	format := report.FormatFor(cfg.JSONReport, cfg.MarkdownReport)
	_, err = report.New(format, output).Write(summary)
	return err
}

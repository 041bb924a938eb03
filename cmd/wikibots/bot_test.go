package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nao1215/wikibots/internal/bots"
	"github.com/nao1215/wikibots/internal/config"
	"github.com/nao1215/wikibots/internal/history"
	"github.com/nao1215/wikibots/internal/model"
	"github.com/spf13/cobra"
)

// envVars lists every variable the configuration reads.
var envVars = []string{
	"PWB_CONSUMER_TOKEN", "PWB_CONSUMER_SECRET", "PWB_ACCESS_TOKEN", "PWB_ACCESS_SECRET",
	"PWB_USERNAME", "PWB_PASSWORD", "TOOL_REDIS_URI", "EMAIL",
	"FLICKR_API_KEY", "YOUTUBE_API_KEY",
}

// isolateEnv unsets the configuration variables and points HOME at an empty
// directory for the duration of the test. Values are restored afterwards.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		if err := os.Unsetenv(k); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("HOME", t.TempDir())
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// botSubcommand returns the named bot command of a fresh root command.
func botSubcommand(t *testing.T, name string) *cobra.Command {
	t.Helper()
	for _, sub := range NewRootCmd().Commands() {
		if sub.Name() == name {
			return sub
		}
	}
	t.Fatalf("no %s subcommand", name)
	return nil
}

// TestNewBotCmd tests the flags of bot commands.
func TestNewBotCmd(t *testing.T) {
	t.Parallel()

	cmd := NewBotCmd(bots.NamePAS)
	if cmd.Use != "pas" || cmd.Short == "" {
		t.Errorf("unexpected use %q / short %q", cmd.Use, cmd.Short)
	}

	tests := []struct {
		flag      string
		shorthand string
		def       string
	}{
		{flag: "dry", def: "false"},
		{flag: "limit", shorthand: "l", def: "0"},
		{flag: "concurrency", shorthand: "b", def: "1"},
		{flag: "config", shorthand: "c", def: ""},
		{flag: "env-file", def: ".env"},
		{flag: "json-log", def: "false"},
		{flag: "no-history", def: "false"},
		{flag: "json", shorthand: "j", def: "false"},
		{flag: "markdown", shorthand: "m", def: "false"},
		{flag: "output", shorthand: "o", def: ""},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			t.Parallel()

			f := cmd.Flags().Lookup(tt.flag)
			if f == nil {
				t.Fatalf("expected %s flag", tt.flag)
			}
			if f.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, f.Shorthand)
			}
			if f.DefValue != tt.def {
				t.Errorf("expected default %q, got %q", tt.def, f.DefValue)
			}
		})
	}

	t.Run("every bot has a description", func(t *testing.T) {
		t.Parallel()
		for _, name := range bots.Names() {
			if botDescriptions[name] == "" {
				t.Errorf("missing description for %s", name)
			}
		}
	})
}

// TestBuildConfig tests that flags are applied over the loaded sources.
func TestBuildConfig(t *testing.T) {
	isolateEnv(t)

	dir := t.TempDir()
	envFile := writeFile(t, filepath.Join(dir, ".env"),
		"PWB_USERNAME=CuratorBot@sdc\nPWB_PASSWORD=from-dotenv\nFLICKR_API_KEY=abc123\n")
	cfgFile := writeFile(t, filepath.Join(dir, "wikibots.yaml"),
		"endpoint: https://test.wikipedia.org/w/api.php\nbots:\n  flickr:\n    throttle: 2s\n")
	t.Setenv("EMAIL", "bot@example.org")

	cmd := botSubcommand(t, bots.NameFlickr)
	err := cmd.ParseFlags([]string{
		"-v", "--dry", "-l", "5", "-b", "3", "-m", "-o", "out.md",
		"--json-log", "--no-history",
		"-c", cfgFile, "--env-file", envFile,
	})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}

	if !cfg.Verbose || !cfg.DryRun || !cfg.JSONLog || !cfg.NoHistory || !cfg.MarkdownReport || cfg.JSONReport {
		t.Errorf("boolean flags not applied: %+v", cfg)
	}
	if cfg.Limit != 5 || cfg.Concurrency != 3 || cfg.ReportFile != "out.md" {
		t.Errorf("value flags not applied: limit=%d concurrency=%d output=%q", cfg.Limit, cfg.Concurrency, cfg.ReportFile)
	}
	if cfg.Username != "CuratorBot@sdc" || cfg.Password != "from-dotenv" || cfg.FlickrAPIKey != "abc123" {
		t.Errorf(".env not loaded: %+v", cfg.Env)
	}
	if cfg.Email != "bot@example.org" {
		t.Errorf("process environment not read: %q", cfg.Email)
	}
	if cfg.Endpoint() != "https://test.wikipedia.org/w/api.php" {
		t.Errorf("config file not loaded: %q", cfg.Endpoint())
	}
	if cfg.Bot(bots.NameFlickr).Throttle != 2*time.Second {
		t.Errorf("bot override not loaded: %+v", cfg.Bot(bots.NameFlickr))
	}
	if err := cfg.Validate(bots.NameFlickr); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

// TestBuildConfigMissingFile tests that an explicit configuration file
// must exist.
func TestBuildConfigMissingFile(t *testing.T) {
	isolateEnv(t)

	cmd := NewBotCmd(bots.NamePAS)
	if err := cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")}); err != nil {
		t.Fatal(err)
	}
	if _, err := buildConfig(cmd); err == nil {
		t.Fatal("expected error for missing configuration file")
	}
}

// TestRunBotCmdValidates tests that configuration errors stop the run
// before anything is contacted.
func TestRunBotCmdValidates(t *testing.T) {
	isolateEnv(t)

	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantErr string
	}{
		{name: "no credentials", args: []string{"pas"}, wantErr: "credentials"},
		{
			name:    "flickr without key",
			args:    []string{"flickr"},
			env:     map[string]string{"PWB_USERNAME": "Bot@sdc", "PWB_PASSWORD": "pw"},
			wantErr: "FLICKR_API_KEY",
		},
		{
			name:    "both report formats",
			args:    []string{"pas", "-j", "-m"},
			env:     map[string]string{"PWB_USERNAME": "Bot@sdc", "PWB_PASSWORD": "pw"},
			wantErr: "configuration error",
		},
		{
			name:    "negative limit",
			args:    []string{"pas", "-l", "-1"},
			env:     map[string]string{"PWB_USERNAME": "Bot@sdc", "PWB_PASSWORD": "pw"},
			wantErr: "configuration error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cmd := NewRootCmd()
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cmd.SetArgs(append(tt.args, "--env-file", filepath.Join(t.TempDir(), "none.env")))

			err := cmd.Execute()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestSettingsFor tests the conversion of configured overrides.
func TestSettingsFor(t *testing.T) {
	t.Parallel()

	got := settingsFor(config.BotConfig{
		RedisPrefix: "ignored",
		Summary:     "summary",
		Search:      "search",
		Category:    "category",
		Uploader:    "Uploader",
		Throttle:    time.Second,
	})
	want := bots.Settings{Summary: "summary", Search: "search", Category: "category", Uploader: "Uploader"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

// TestNewHandler tests that every bot can be wired from configuration.
func TestNewHandler(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.FlickrAPIKey = "flickr-key"
	cfg.YouTubeAPIKey = "youtube-key"
	deps := bots.Deps{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Prefix: "test"}

	for _, name := range bots.Names() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h, err := newHandler(context.Background(), name, cfg, deps, "Bot / Wikimedia Commons")
			if err != nil {
				t.Fatalf("newHandler: %v", err)
			}
			if h.Name() != name {
				t.Errorf("handler name %q, want %q", h.Name(), name)
			}
			if h.Summary() == "" {
				t.Error("empty edit summary")
			}
		})
	}

	t.Run("unknown bot", func(t *testing.T) {
		t.Parallel()
		if _, err := newHandler(context.Background(), "commons", cfg, deps, "ua"); err == nil {
			t.Error("expected error for unknown bot")
		}
	})

	t.Run("missing api key", func(t *testing.T) {
		t.Parallel()
		if _, err := newHandler(context.Background(), bots.NameFlickr, config.NewConfig(), deps, "ua"); err == nil {
			t.Error("expected error without flickr key")
		}
	})
}

// fakeCommons answers the requests of a login followed by an empty search.
func fakeCommons(t *testing.T) *httptest.Server {
	t.Helper()

	write := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // test server
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		switch {
		case r.Form.Get("meta") == "tokens":
			write(w, map[string]any{"query": map[string]any{"tokens": map[string]string{"logintoken": "lt+\\"}}})
		case r.Form.Get("action") == "login":
			write(w, map[string]any{"login": map[string]any{"result": "Success", "lgusername": "CuratorBot"}})
		case r.Form.Get("meta") == "userinfo":
			write(w, map[string]any{"query": map[string]any{"userinfo": map[string]any{"id": 7, "name": "CuratorBot"}}})
		case r.Form.Get("list") == "search":
			write(w, map[string]any{"query": map[string]any{"search": []any{}}})
		default:
			t.Errorf("unexpected request %v", r.Form)
			http.Error(w, "unexpected", http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestRunBot tests a complete run that finds no pages.
func TestRunBot(t *testing.T) {
	t.Parallel()

	srv := fakeCommons(t)
	mr := miniredis.RunT(t)

	cfg := config.NewConfig()
	cfg.File = &config.File{Endpoint: srv.URL, Bots: map[string]config.BotConfig{}}
	cfg.Username = "CuratorBot@sdc"
	cfg.Password = "hunter2-bot-pass"
	cfg.RedisURI = "redis://" + mr.Addr()
	cfg.DBDir = t.TempDir()
	cfg.JSONReport = true

	var logs, stdout bytes.Buffer
	logger := setupLogger(cfg, &logs)

	if err := runBot(context.Background(), cfg, bots.NamePAS, logger, &stdout); err != nil {
		t.Fatalf("runBot: %v", err)
	}

	var summary struct {
		Bot         string `json:"bot"`
		Interrupted bool   `json:"interrupted"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &summary); err != nil {
		t.Fatalf("summary is not JSON: %v\n%s", err, stdout.String())
	}
	if summary.Bot != bots.NamePAS || summary.Interrupted {
		t.Errorf("unexpected summary %+v", summary)
	}

	if strings.Contains(logs.String(), "hunter2-bot-pass") {
		t.Errorf("password leaked into logs:\n%s", logs.String())
	}

	db, err := history.Open(context.Background(), cfg.DBDir, history.Options{})
	if err != nil {
		t.Fatalf("history not created: %v", err)
	}
	defer db.Close()

	runs, err := db.Runs(context.Background(), bots.NamePAS, 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Total != 0 {
		t.Errorf("unexpected runs %+v", runs)
	}
}

// TestWriteSummary tests report file output.
func TestWriteSummary(t *testing.T) {
	t.Parallel()

	summary := model.NewRunSummary("run-1", bots.NameUSACE, true)
	summary.Finish(false)

	cfg := config.NewConfig()
	cfg.MarkdownReport = true
	cfg.ReportFile = filepath.Join(t.TempDir(), "reports", "usace.md")

	var stdout bytes.Buffer
	if err := writeSummary(cfg, summary, &stdout); err != nil {
		t.Fatalf("writeSummary: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("summary written to stdout: %q", stdout.String())
	}

	data, err := os.ReadFile(cfg.ReportFile)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Run summary: usace") {
		t.Errorf("unexpected report:\n%s", data)
	}
}

// TestProgressPrinter tests per-task log levels.
func TestProgressPrinter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	printer := progressPrinter(logger)

	page := &model.Page{Title: "File:Fox.jpg", PageID: 42}
	edited := model.NewTask("run", "pas", page)
	edited.Finish(model.OutcomeEdited, "", nil)
	skipped := model.NewTask("run", "pas", page)
	skipped.Finish(model.OutcomeSkipped, "no link", nil)

	printer(edited)
	printer(skipped)

	out := buf.String()
	if !strings.Contains(out, "outcome=edited") {
		t.Errorf("edited task not logged:\n%s", out)
	}
	if strings.Contains(out, "no link") {
		t.Errorf("skipped task logged at info:\n%s", out)
	}
}

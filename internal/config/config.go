package config

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/nao1215/wikibots/internal/bots"
	"github.com/nao1215/wikibots/internal/cache"
	"github.com/nao1215/wikibots/internal/mediawiki"
	"github.com/nao1215/wikibots/internal/runner"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "wikibots"

	// DefaultConcurrency is the number of pages treated at once.
	DefaultConcurrency = runner.DefaultConcurrency

	// DefaultDotEnvFile is read from the working directory when present.
	DefaultDotEnvFile = ".env"
)

// Env holds the settings read from the environment. Secrets are only ever
// read from here, never from the YAML file.
type Env struct {
	// ConsumerToken, ConsumerSecret, AccessToken and AccessSecret are the
	// OAuth 1.0a owner-only consumer credentials of the bot account.
	ConsumerToken  string `env:"PWB_CONSUMER_TOKEN"`
	ConsumerSecret string `env:"PWB_CONSUMER_SECRET"`
	AccessToken    string `env:"PWB_ACCESS_TOKEN"`
	AccessSecret   string `env:"PWB_ACCESS_SECRET"`

	// Username is the bot account. With Password it forms a bot password
	// pair used when OAuth tokens are missing.
	Username string `env:"PWB_USERNAME"`
	Password string `env:"PWB_PASSWORD"`

	// RedisURI locates the shared skip cache.
	RedisURI string `env:"TOOL_REDIS_URI"`

	// Email is the operator contact placed in User-Agent headers.
	Email string `env:"EMAIL"`

	FlickrAPIKey  string `env:"FLICKR_API_KEY"`
	YouTubeAPIKey string `env:"YOUTUBE_API_KEY"`
}

// Credentials returns the wiki credentials.
func (e Env) Credentials() mediawiki.Credentials {
	return mediawiki.Credentials{
		ConsumerToken:  e.ConsumerToken,
		ConsumerSecret: e.ConsumerSecret,
		AccessToken:    e.AccessToken,
		AccessSecret:   e.AccessSecret,
		Username:       e.Username,
		Password:       e.Password,
	}
}

// Secrets returns the secret values set in the environment, for masking in
// logs.
func (e Env) Secrets() []string {
	var out []string
	for _, s := range []string{
		e.ConsumerToken, e.ConsumerSecret, e.AccessToken, e.AccessSecret,
		e.Password, e.FlickrAPIKey, e.YouTubeAPIKey,
	} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Config holds all configuration options of a bot run.
// It is populated by Load and CLI flags and passed through the application
// rather than kept in global state.
type Config struct {
	Env

	// File holds the settings loaded from the configuration file. It is
	// nil when no file was found.
	File *File

	// ConfigFilePath is the path to the configuration file.
	// If empty, .wikibots is searched in the current directory and then in
	// the user's home directory.
	ConfigFilePath string

	// DotEnvFile is the .env file merged into the environment. Variables
	// already set in the process environment win.
	DotEnvFile string

	// Verbose enables debug logging.
	Verbose bool

	// JSONLog switches log output to JSON lines.
	JSONLog bool

	// DryRun computes statements without editing and without writing the
	// skip cache.
	DryRun bool

	// Limit stops the run after this many pages. Zero means no limit.
	Limit int

	// Concurrency is the number of pages treated at once.
	Concurrency int

	// JSONReport and MarkdownReport select the run summary format.
	// They are mutually exclusive; the default is plain text.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile is the output file path for the run summary.
	// When empty, the summary is written to stdout.
	ReportFile string

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/wikibots on Linux).
	DBDir string

	// NoHistory disables the history database.
	NoHistory bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Env:         Env{RedisURI: cache.DefaultURL},
		DotEnvFile:  DefaultDotEnvFile,
		Concurrency: DefaultConcurrency,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for wikibots.
// On Linux: ~/.local/share/wikibots
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wikibots.
// On Linux: ~/.config/wikibots
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Endpoint returns the configured api.php URL, or Commons.
func (c *Config) Endpoint() string {
	if c.File != nil && c.File.Endpoint != "" {
		return c.File.Endpoint
	}
	return mediawiki.DefaultEndpoint
}

// Bot returns the overrides configured for a bot.
func (c *Config) Bot(name string) BotConfig {
	return c.File.BotConfig(name)
}

// UserAgent returns the User-Agent sent to third-party APIs on behalf of
// the logged-in account.
func (c *Config) UserAgent(username string) string {
	ua := username + " / Wikimedia Commons"
	if c.Email != "" {
		ua += " / " + c.Email
	}
	return ua
}

// apiKeys lists the bots that need an API key and how to read it.
var apiKeys = map[string]struct {
	env   string
	value func(Env) string
}{
	bots.NameFlickr:  {env: "FLICKR_API_KEY", value: func(e Env) string { return e.FlickrAPIKey }},
	bots.NameYouTube: {env: "YOUTUBE_API_KEY", value: func(e Env) string { return e.YouTubeAPIKey }},
}

// Validate checks whether the configuration can run the named bot.
// It returns the first problem found.
func (c *Config) Validate(bot string) error {
	if bot != "" && !isBot(bot) {
		return fmt.Errorf("%w: %s", ErrUnknownBot, bot)
	}

	creds := c.Credentials()
	if !creds.HasOAuth() && !creds.HasPassword() {
		return ErrNoCredentials
	}

	if c.RedisURI == "" {
		return ErrNoRedisURI
	}

	if key, ok := apiKeys[bot]; ok && key.value(c.Env) == "" {
		return fmt.Errorf("%w: %s needs %s", ErrMissingAPIKey, bot, key.env)
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.Limit < 0 {
		return ErrInvalidLimit
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if bot != "" && c.Bot(bot).Throttle < 0 {
		return ErrInvalidThrottle
	}

	return nil
}

func isBot(name string) bool {
	for _, n := range bots.Names() {
		if n == name {
			return true
		}
	}
	return false
}

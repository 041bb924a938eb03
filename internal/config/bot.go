package config

import "time"

// BotConfig holds per-bot overrides read from the configuration file.
// Zero values mean "use the bot's built-in default".
type BotConfig struct {
	// RedisPrefix is the namespace of the bot's skip cache keys.
	RedisPrefix string `yaml:"redisPrefix,omitempty"`

	// Summary replaces the default edit summary.
	Summary string `yaml:"summary,omitempty"`

	// Throttle is the minimum interval between two edits.
	Throttle time.Duration `yaml:"throttle,omitempty"`

	// Search replaces the CirrusSearch query that selects pages.
	Search string `yaml:"search,omitempty"`

	// Category replaces the category that selects pages.
	Category string `yaml:"category,omitempty"`

	// Uploader is the account whose uploads the usace bot handles.
	Uploader string `yaml:"uploader,omitempty"`
}

// File represents the structure of the .wikibots configuration file.
type File struct {
	// Endpoint is the api.php URL of the wiki. Empty means Commons.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Defaults apply to every bot unless overridden under Bots.
	Defaults BotConfig `yaml:"defaults,omitempty"`

	// Bots maps bot names to their overrides.
	Bots map[string]BotConfig `yaml:"bots,omitempty"`
}

// BotConfig returns the configuration of a bot merged over the defaults.
// It is safe to call on a nil File.
func (f *File) BotConfig(name string) BotConfig {
	if f == nil {
		return BotConfig{}
	}

	result := f.Defaults
	bot, ok := f.Bots[name]
	if !ok {
		return result
	}

	if bot.RedisPrefix != "" {
		result.RedisPrefix = bot.RedisPrefix
	}
	if bot.Summary != "" {
		result.Summary = bot.Summary
	}
	if bot.Throttle != 0 {
		result.Throttle = bot.Throttle
	}
	if bot.Search != "" {
		result.Search = bot.Search
	}
	if bot.Category != "" {
		result.Category = bot.Category
	}
	if bot.Uploader != "" {
		result.Uploader = bot.Uploader
	}
	return result
}

package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate and can be matched with
// errors.Is.
var (
	// ErrNoCredentials is returned when neither the four OAuth tokens nor a
	// bot password pair are set.
	ErrNoCredentials = errors.New("no credentials: set PWB_CONSUMER_TOKEN, PWB_CONSUMER_SECRET, PWB_ACCESS_TOKEN and PWB_ACCESS_SECRET, or PWB_USERNAME and PWB_PASSWORD")

	// ErrNoRedisURI is returned when the cache location is empty.
	ErrNoRedisURI = errors.New("no cache configured: set TOOL_REDIS_URI")

	// ErrMissingAPIKey is returned when a bot needs an API key that is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrUnknownBot is returned for a bot name no command exists for.
	ErrUnknownBot = errors.New("unknown bot")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidLimit is returned when the page limit is negative.
	// Use 0 for no limit.
	ErrInvalidLimit = errors.New("invalid limit: must be non-negative")

	// ErrInvalidThrottle is returned when a configured edit throttle is negative.
	ErrInvalidThrottle = errors.New("invalid throttle: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)

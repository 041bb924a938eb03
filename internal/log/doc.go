// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks:
//   - attributes whose key names a secret (password, token, secret, ...)
//   - values that look like credentials (OAuth headers, CSRF tokens, API keys)
//   - credential query parameters inside URLs and error messages
//   - any occurrence of the exact secret strings it was given
//
// Even in verbose mode, sensitive values are masked so that job logs can be
// shared when reporting a problem.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose, cfg.Secrets()...)
//	logger.Info("edit saved", "mid", "M123", "token", token) // token is masked
//	slog.SetDefault(logger)
package log

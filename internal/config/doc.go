// Package config provides configuration structures and utilities for the
// wikibots CLI. Settings come from defaults, a YAML file, a .env file, the
// process environment and command line flags, in increasing precedence.
package config

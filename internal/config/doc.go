// Package config loads, normalizes, and validates the TOML configuration
// file. Command-line flags override the loaded values; the file exists so
// recurring options (engine tuning, cache location, log format) do not
// have to be repeated on every invocation.
package config

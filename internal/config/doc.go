// Package config loads, normalizes, and validates quaver's TOML
// configuration. Defaults live in defaults.go; Load applies the file on top
// of them, expands ~ in paths, and rejects unusable values before anything
// else starts.
package config

// Package config loads, defaults, normalizes, and validates the TOML
// configuration that drives the daemon and the assembly pipeline.
package config

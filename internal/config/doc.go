// Package config loads, normalizes, and validates the TOML configuration
// shared by the daemon and CLI.
//
// Load applies repository defaults first, then overlays the resolved config
// file, expands filesystem paths, and validates the result so downstream
// packages never see a half-formed Config. External service sections may be
// left empty; the matching pipeline stages then run in simulated mode.
package config

// Package config loads, normalizes, and validates comictag configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// COMICVINE_API_KEY, which may also live in a .env file next to the config.
// The Config type centralizes every knob the identifier, the batch
// coordinator, and the catalog client need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, clamped thresholds, and clear validation errors.
package config

// Package config loads, normalizes, and validates Papri client configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PAPRI_API_BASE_URL. The Config type centralizes every knob the CLI and the
// task controller need, so backend endpoints, polling cadence, and history
// storage are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

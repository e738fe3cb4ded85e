// Package config loads, normalizes, and validates sdsconv configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SDSCONV_LOG_LEVEL. The Config type centralizes the knobs the conversion
// pipeline and CLI need so every command resolves them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

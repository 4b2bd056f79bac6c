// Package config loads, normalizes, and validates cinefile configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and an optional dotenv file. The Config type centralizes every
// knob the CLI needs, allowing the data directory, catalog credentials, and
// optional sync settings to be discovered in one pass.
//
// A missing TMDB key is deliberately not a validation failure: catalog
// lookups degrade to "unresolved" and imports report the skipped rows.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

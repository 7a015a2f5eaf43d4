// Package config loads, normalizes, and validates listingsmith configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// DEEPSEEK_API_KEY and SILICONFLOW_API_KEY. The Config type centralizes every
// knob the daemon and CLI need, so data directories, generation timings and
// model credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config

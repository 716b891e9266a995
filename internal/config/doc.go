// Package config loads, normalizes, and validates Packshot configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PACKSHOT_PORTAL_URL. The Config type centralizes every knob the daemon and
// CLI need, from portal connection settings to per-retailer destination roots.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

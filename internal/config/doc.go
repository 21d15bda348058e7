// Package config loads, normalizes, and validates seedkeeper configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the environment overrides used by
// the systemd units (COMPLETED_DIR, IMPORT_BASE, CATEGORIES, ...). The Config
// type centralizes the directory layout, category map, tracker endpoint,
// remote destination, and retention thresholds every pass needs.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a de-duplicated subdirectory list, and clear validation
// errors.
package config

// Package config loads, normalizes, and validates highlighter configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HIGHLIGHTER_CLASSIFIER_PYTHON. The Config type centralizes every knob the
// daemon and CLI need: data directories, external tool binaries, classifier
// invocation, highlight categories, and retention.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

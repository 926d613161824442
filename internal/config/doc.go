// Package config loads, normalizes, and validates metafix configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts) and reads TOML files. The Config type also answers the questions
// the pipeline asks of it: which timezone capture dates are rendered in, how
// many apply workers to start, and which exiftool binary to launch.
//
// Always obtain settings through this package so downstream code receives
// absolute paths and canonical log formats.
package config

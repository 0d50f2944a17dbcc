// Package config provides configuration structures and utilities for doccrawl.
// It defines the crawl options, the optional YAML configuration file with
// per-site overrides, and validation of the combined result.
package config

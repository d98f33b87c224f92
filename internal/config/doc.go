// Package config provides configuration structures and utilities for sitemd.
// It defines the main configuration options for discovery, crawling, and
// report generation, plus per-site overrides loaded from a .sitemd file.
package config

// Package config handles configuration loading for the rental console clients.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from RENTAL_CONFIG environment variable
//  2. ./rental.yaml (current directory)
//  3. ~/.config/rental/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	backend:
//	  base_url: ${RENTAL_BACKEND_URL}
//
// Unset variables expand to the empty string, so required fields fail
// validation loudly rather than pointing at a half-formed URL.
package config

// Package config loads and validates the application configuration from
// environment variables with an optional YAML file underneath.
package config

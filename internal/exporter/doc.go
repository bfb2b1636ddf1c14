// Package exporter writes the reconstructed statistics as Home Assistant
// importable YAML files, rotating backups of previous outputs.
package exporter

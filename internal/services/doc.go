// Package services glues the parsing engine, the statistics
// reconstruction and the YAML exporter into one processing pipeline
// shared by the CLI, the web surface and the folder watcher.
package services

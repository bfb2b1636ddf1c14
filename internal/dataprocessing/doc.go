// Package dataprocessing implements the meter-export engine: format
// detection, the per-format parsers, cumulative reconstruction and the
// unified orchestrator that ties them together.
//
// Three structurally distinct export formats are supported: the legacy
// web-portal export, the 15-minute interval email export and the daily
// cumulative-reading email export. All parsers normalize into the series
// schema of pkg/contracts/domain; the reconstructor turns baselines and
// interval deltas into the hour-aligned statistics points the Home
// Assistant recorder imports.
//
// The engine is synchronous and holds no shared mutable state: every
// ParseFile/ParseFiles call owns its intermediate buffers, so concurrent
// callers need no locking.
package dataprocessing

package dataprocessing

import (
	"log/slog"
	"strings"

	"spooker/pkg/contracts/domain"
)

// signature is one format's structural fingerprint: exact required
// columns, an optional dynamic-column predicate and marker substrings
// expected somewhere in the sample's first column.
type signature struct {
	format          domain.Format
	requiredColumns []string
	dynamicColumn   func(col string) bool
	markers         []string
}

// signatures are evaluated in priority order; the first full match wins.
// A file satisfying two signatures is resolved by this order, which is a
// deliberate tie-break rather than an error.
var signatures = []signature{
	{
		format:          domain.FormatLegacy,
		requiredColumns: []string{legacyColPOD, legacyColVariable, legacyColTime, legacyColValue},
	},
	{
		format:          domain.FormatInterval,
		requiredColumns: []string{intervalColTime, intervalColImport, intervalColExport},
		markers:         []string{markerMaximum, markerSum},
	},
	{
		format:          domain.FormatCumulative,
		requiredColumns: []string{cumulativeColDate},
		dynamicColumn:   isRegisterColumn,
		markers:         []string{markerMaximum, markerSum},
	},
}

// Detection carries the descriptive metadata of a classification.
type Detection struct {
	Format         domain.Format `json:"format"`
	Columns        []string      `json:"columns,omitempty"`
	SampleRows     int           `json:"sample_rows"`
	IntervalType   string        `json:"interval_type,omitempty"`
	HasSummaryRows bool          `json:"has_summary_rows"`
	DataColumns    []string      `json:"data_columns,omitempty"`
	Cumulative     bool          `json:"cumulative"`
}

// Detector classifies export files by sampling a handful of rows.
type Detector struct {
	logger *slog.Logger
}

// NewDetector creates a detector logging through the supplied sink.
func NewDetector(logger *slog.Logger) *Detector {
	return &Detector{logger: logger}
}

// Detect classifies the file at path. It never fails: any read or parse
// problem while sampling yields FormatUnknown with empty metadata.
func (d *Detector) Detect(path string, delimiter rune) (domain.Format, Detection) {
	sample, err := readSample(path, delimiter)
	if err != nil {
		d.logger.Error("format detection failed, treating file as unknown",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return domain.FormatUnknown, Detection{Format: domain.FormatUnknown}
	}

	d.logger.Debug("sampled file for detection",
		slog.String("path", path),
		slog.Any("columns", sample.header),
		slog.Int("rows", len(sample.rows)))

	for _, sig := range signatures {
		if matchesSignature(sample, sig) {
			det := describe(sample, sig.format)
			d.logger.Info("detected format",
				slog.String("path", path),
				slog.String("format", string(sig.format)))
			return sig.format, det
		}
	}

	d.logger.Warn("could not detect format", slog.String("path", path))
	return domain.FormatUnknown, Detection{
		Format:     domain.FormatUnknown,
		Columns:    sample.header,
		SampleRows: len(sample.rows),
	}
}

// matchesSignature checks a sample against one fingerprint. Required
// column comparison is exact and case-sensitive; markers are matched
// case-insensitively against the joined first-column values.
func matchesSignature(sample *table, sig signature) bool {
	for _, col := range sig.requiredColumns {
		if sample.columnIndex(col) < 0 {
			return false
		}
	}

	if sig.dynamicColumn != nil {
		found := false
		for _, col := range sample.header {
			if sig.dynamicColumn(col) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(sig.markers) > 0 {
		var firstCol []string
		for _, row := range sample.rows {
			firstCol = append(firstCol, cell(row, 0))
		}
		joined := strings.ToUpper(strings.Join(firstCol, " "))

		found := false
		for _, marker := range sig.markers {
			if strings.Contains(joined, strings.ToUpper(marker)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// describe extracts per-format metadata from the sample.
func describe(sample *table, format domain.Format) Detection {
	det := Detection{
		Format:     format,
		Columns:    sample.header,
		SampleRows: len(sample.rows),
	}

	switch format {
	case domain.FormatLegacy:
		det.IntervalType = "mixed"
		det.DataColumns = []string{legacyColValue}
	case domain.FormatInterval:
		det.IntervalType = "15_minute"
		det.HasSummaryRows = true
		det.DataColumns = []string{intervalColImport, intervalColExport}
	case domain.FormatCumulative:
		det.IntervalType = "daily"
		det.HasSummaryRows = true
		det.Cumulative = true
		for _, col := range sample.header {
			if isRegisterColumn(col) {
				det.DataColumns = append(det.DataColumns, col)
			}
		}
	}
	return det
}

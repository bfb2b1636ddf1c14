package dataprocessing

import (
	"log/slog"
	"time"

	apperrors "spooker/internal/errors"
	"spooker/pkg/contracts/domain"
)

// IntervalParser handles the 15-minute interval email export: a
// timestamp/value table with +A/-A columns and summary footer rows.
type IntervalParser struct {
	logger *slog.Logger
}

// NewIntervalParser creates an interval-format parser.
func NewIntervalParser(logger *slog.Logger) *IntervalParser {
	return &IntervalParser{logger: logger}
}

// Parse strips summary rows, reads the remaining rows as quarter-hour
// deltas per direction and aggregates them into hourly and daily sums.
func (p *IntervalParser) Parse(path string, delimiter rune) (*domain.ParseResult, error) {
	t, err := readTable(path, delimiter)
	if err != nil {
		return nil, apperrors.FileProcessing(path, err)
	}

	timeCol := t.columnIndex(intervalColTime)
	importCol := t.columnIndex(intervalColImport)
	exportCol := t.columnIndex(intervalColExport)
	if timeCol < 0 || importCol < 0 || exportCol < 0 {
		return nil, apperrors.FileProcessingf(path, "missing expected columns, found %v", t.header)
	}

	var rawImport, rawExport domain.Series
	for i, row := range t.rows {
		first := cell(row, timeCol)
		if isSummaryRow(first) {
			continue
		}

		ts, err := time.Parse(intervalTimeLayout, first)
		if err != nil {
			p.logger.Warn("skipping row with invalid interval timestamp",
				slog.String("path", path),
				slog.Int("row", i+2),
				slog.String("value", first))
			continue
		}

		imp, impErr := parseDecimal(cell(row, importCol))
		exp, expErr := parseDecimal(cell(row, exportCol))
		if impErr != nil || expErr != nil {
			p.logger.Warn("skipping row with non-numeric values",
				slog.String("path", path),
				slog.Int("row", i+2))
			continue
		}

		rawImport = append(rawImport, domain.Reading{Timestamp: ts, Value: imp})
		rawExport = append(rawExport, domain.Reading{Timestamp: ts, Value: exp})
	}

	rawImport = finishSeries(rawImport, "import_interval", p.logger)
	rawExport = finishSeries(rawExport, "export_interval", p.logger)

	result := &domain.ParseResult{
		Format:       domain.FormatInterval,
		HourlyImport: aggregate(rawImport, hourOf),
		HourlyExport: aggregate(rawExport, hourOf),
		DailyImport:  aggregate(rawImport, civilDate),
		DailyExport:  aggregate(rawExport, civilDate),
		Metadata: domain.ParseMetadata{
			FilePath:     path,
			RecordCount:  len(rawImport) + len(rawExport),
			IntervalType: "15_minute",
		},
	}
	result.Metadata.DateRange = mergeRange(result.Metadata.DateRange, rawImport)
	result.Metadata.DateRange = mergeRange(result.Metadata.DateRange, rawExport)

	p.logger.Info("parsed interval file",
		slog.String("path", path),
		slog.Int("records", result.Metadata.RecordCount),
		slog.Int("hourly_points", len(result.HourlyImport)))

	return result, nil
}

// hourOf truncates a timestamp to its hour.
func hourOf(ts time.Time) time.Time {
	return ts.Truncate(time.Hour)
}

// aggregate sums a sorted series into buckets keyed by the truncation
// function, rounding each sum to the fixed output precision. The input
// order is preserved, so the output stays sorted.
func aggregate(s domain.Series, truncate func(time.Time) time.Time) domain.Series {
	var out domain.Series
	for _, r := range s {
		key := truncate(r.Timestamp)
		if len(out) > 0 && out[len(out)-1].Timestamp.Equal(key) {
			out[len(out)-1].Value += r.Value
			continue
		}
		out = append(out, domain.Reading{Timestamp: key, Value: r.Value})
	}
	for i := range out {
		out[i].Value = round3(out[i].Value)
	}
	return out
}

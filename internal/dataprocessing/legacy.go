package dataprocessing

import (
	"log/slog"
	"time"

	apperrors "spooker/internal/errors"
	"spooker/pkg/contracts/domain"
)

// LegacyParser handles the original web-portal export: one row per
// reading, categorized into four buckets by its variable token.
type LegacyParser struct {
	logger *slog.Logger
}

// NewLegacyParser creates a legacy-format parser.
func NewLegacyParser(logger *slog.Logger) *LegacyParser {
	return &LegacyParser{logger: logger}
}

// Parse reads the file into interval and daily-baseline series per
// direction. Rows with an invalid timestamp, a non-numeric value or an
// unrecognized variable token are skipped, never fatal.
func (p *LegacyParser) Parse(path string, delimiter rune) (*domain.ParseResult, error) {
	t, err := readTable(path, delimiter)
	if err != nil {
		return nil, apperrors.FileProcessing(path, err)
	}

	cols := map[string]int{
		legacyColPOD:      t.columnIndex(legacyColPOD),
		legacyColVariable: t.columnIndex(legacyColVariable),
		legacyColTime:     t.columnIndex(legacyColTime),
		legacyColValue:    t.columnIndex(legacyColValue),
	}
	for name, idx := range cols {
		if idx < 0 {
			return nil, apperrors.FileProcessingf(path, "missing required column %q", name)
		}
	}

	result := &domain.ParseResult{
		Format: domain.FormatLegacy,
		Metadata: domain.ParseMetadata{
			FilePath:     path,
			IntervalType: "mixed",
		},
	}

	for i, row := range t.rows {
		ts, err := time.Parse(legacyTimeLayout, cell(row, cols[legacyColTime]))
		if err != nil {
			p.logger.Warn("skipping row with invalid timestamp",
				slog.String("path", path),
				slog.Int("row", i+2),
				slog.String("error", err.Error()))
			continue
		}

		value, err := parseDecimal(cell(row, cols[legacyColValue]))
		if err != nil {
			p.logger.Warn("skipping row with invalid value",
				slog.String("path", path),
				slog.Int("row", i+2),
				slog.String("error", err.Error()))
			continue
		}

		reading := domain.Reading{Timestamp: ts, Value: value}
		switch cell(row, cols[legacyColVariable]) {
		case tokenImportInterval:
			result.HourlyImport = append(result.HourlyImport, reading)
		case tokenExportInterval:
			result.HourlyExport = append(result.HourlyExport, reading)
		case tokenImportBaseline:
			result.DailyImport = append(result.DailyImport, reading)
		case tokenExportBaseline:
			result.DailyExport = append(result.DailyExport, reading)
		default:
			p.logger.Debug("discarding row with unknown variable token",
				slog.String("path", path),
				slog.Int("row", i+2),
				slog.String("variable", cell(row, cols[legacyColVariable])))
		}
	}

	result.HourlyImport = finishSeries(result.HourlyImport, "import_hourly", p.logger)
	result.HourlyExport = finishSeries(result.HourlyExport, "export_hourly", p.logger)
	result.DailyImport = finishSeries(result.DailyImport, "import_daily", p.logger)
	result.DailyExport = finishSeries(result.DailyExport, "export_daily", p.logger)

	for _, s := range []domain.Series{result.HourlyImport, result.HourlyExport, result.DailyImport, result.DailyExport} {
		result.Metadata.RecordCount += len(s)
		result.Metadata.DateRange = mergeRange(result.Metadata.DateRange, s)
	}

	p.logger.Info("parsed legacy file",
		slog.String("path", path),
		slog.Int("records", result.Metadata.RecordCount),
		slog.Int("import_hourly", len(result.HourlyImport)),
		slog.Int("export_hourly", len(result.HourlyExport)),
		slog.Int("import_daily", len(result.DailyImport)),
		slog.Int("export_daily", len(result.DailyExport)))

	return result, nil
}

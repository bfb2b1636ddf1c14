package dataprocessing

import (
	"log/slog"
	"sort"
	"time"

	apperrors "spooker/internal/errors"
	"spooker/pkg/contracts/domain"
)

// CumulativeParser handles the daily cumulative email export: one row
// per calendar day holding the absolute meter registers per direction.
// It produces baselines only; computing consumption deltas is the
// reconstructor's job, since that requires either consecutive-baseline
// subtraction or a companion interval file.
type CumulativeParser struct {
	logger *slog.Logger
}

// NewCumulativeParser creates a cumulative-format parser.
func NewCumulativeParser(logger *slog.Logger) *CumulativeParser {
	return &CumulativeParser{logger: logger}
}

// Parse strips summary rows and reads the remaining rows as daily
// absolute baselines. The first register column is the import register,
// the second the export register, matching the export's column order.
func (p *CumulativeParser) Parse(path string, delimiter rune) (*domain.ParseResult, error) {
	t, err := readTable(path, delimiter)
	if err != nil {
		return nil, apperrors.FileProcessing(path, err)
	}

	dateCol := t.columnIndex(cumulativeColDate)
	if dateCol < 0 {
		return nil, apperrors.FileProcessingf(path, "missing required column %q", cumulativeColDate)
	}

	var registerCols []int
	var registerNames []string
	for i, col := range t.header {
		if isRegisterColumn(col) {
			registerCols = append(registerCols, i)
			registerNames = append(registerNames, col)
		}
	}
	if len(registerCols) < 2 {
		return nil, apperrors.FileProcessingf(path, "expected two register columns, found %v", registerNames)
	}
	importCol, exportCol := registerCols[0], registerCols[1]

	var baselines []domain.DailyBaseline
	for i, row := range t.rows {
		first := cell(row, dateCol)
		if isSummaryRow(first) {
			continue
		}

		date, err := time.Parse(cumulativeLayout, first)
		if err != nil {
			p.logger.Warn("skipping row with invalid date",
				slog.String("path", path),
				slog.Int("row", i+2),
				slog.String("value", first))
			continue
		}

		imp, impErr := parseDecimal(cell(row, importCol))
		exp, expErr := parseDecimal(cell(row, exportCol))
		if impErr != nil || expErr != nil {
			p.logger.Warn("skipping row with non-numeric register values",
				slog.String("path", path),
				slog.Int("row", i+2))
			continue
		}

		baselines = append(baselines, domain.DailyBaseline{Date: date, Import: imp, Export: exp})
	}

	baselines = sortBaselines(baselines, p.logger)

	result := &domain.ParseResult{
		Format:    domain.FormatCumulative,
		Baselines: baselines,
		Metadata: domain.ParseMetadata{
			FilePath:     path,
			RecordCount:  len(baselines),
			IntervalType: "daily",
			Extra:        map[string]string{"cumulative": "true"},
		},
	}

	// The daily series mirror the absolute registers so downstream
	// merging treats them like any other day-start baseline.
	for _, b := range baselines {
		result.DailyImport = append(result.DailyImport, domain.Reading{Timestamp: b.Date, Value: b.Import})
		result.DailyExport = append(result.DailyExport, domain.Reading{Timestamp: b.Date, Value: b.Export})
	}
	result.Metadata.DateRange = mergeRange(result.Metadata.DateRange, result.DailyImport)

	p.logger.Info("parsed cumulative file",
		slog.String("path", path),
		slog.Int("days", len(baselines)))

	return result, nil
}

// sortBaselines orders baselines by date and drops repeated days,
// keeping the first occurrence.
func sortBaselines(baselines []domain.DailyBaseline, logger *slog.Logger) []domain.DailyBaseline {
	if len(baselines) < 2 {
		return baselines
	}

	sorted := make([]domain.DailyBaseline, len(baselines))
	copy(sorted, baselines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := sorted[:1]
	for _, b := range sorted[1:] {
		if b.Date.Equal(out[len(out)-1].Date) {
			logger.Warn("duplicate baseline date, keeping first occurrence",
				slog.Time("date", b.Date))
			continue
		}
		out = append(out, b)
	}
	return out
}

package dataprocessing

import (
	"log/slog"
	"strings"
	"time"

	"spooker/pkg/contracts/domain"
)

// Column names and variable tokens of the legacy web-portal export. The
// variable tokens appear quoted in the file.
const (
	legacyColPOD      = "POD Name"
	legacyColVariable = "Variable name"
	legacyColTime     = "Time"
	legacyColValue    = "Value [kWh]"

	tokenImportInterval = "'+A'"
	tokenExportInterval = "'-A'"
	tokenImportBaseline = "'DP_1-1:1.8.0*0'"
	tokenExportBaseline = "'DP_1-1:2.8.0*0'"
)

// Column names of the email exports.
const (
	intervalColTime   = "Dátum/Idő"
	intervalColImport = "+A"
	intervalColExport = "-A"

	cumulativeColDate = "Dátum"

	// Dynamic register columns carry the OBIS code prefix plus a colon,
	// e.g. "DP_1-1:1.8.0*0".
	registerColumnPrefix = "DP_"
)

// Timestamp layouts used by the exports.
const (
	legacyTimeLayout   = "2006.01.02 15:04:05"
	intervalTimeLayout = "2006.01.02. 15:04"
	cumulativeLayout   = "2006.01.02."
)

// Summary/footer markers. Detection matches the exact marker strings
// case-insensitively; row cleaning additionally skips English "SUM" rows
// seen in some exports.
var (
	markerMaximum = "MAXIMUM ÉRTÉK"
	markerSum     = "ÖSSZEG"

	summaryKeywords = []string{"MAXIMUM", "ÖSSZEG", "SUM"}
)

// isRegisterColumn reports whether a header cell names a dynamic meter
// register column.
func isRegisterColumn(col string) bool {
	return strings.Contains(col, registerColumnPrefix) && strings.Contains(col, ":")
}

// isSummaryRow reports whether a first-column cell belongs to a
// summary/footer row rather than data.
func isSummaryRow(firstCol string) bool {
	upper := strings.ToUpper(firstCol)
	for _, kw := range summaryKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// finishSeries sorts a bucket and drops repeated timestamps, keeping the
// first occurrence. Real exports occasionally repeat a row; that is a
// warning, not a failure.
func finishSeries(s domain.Series, bucket string, logger *slog.Logger) domain.Series {
	s.Sort()
	if len(s) < 2 {
		return s
	}

	out := s[:1]
	for _, r := range s[1:] {
		if r.Timestamp.Equal(out[len(out)-1].Timestamp) {
			logger.Warn("duplicate timestamp in series, keeping first occurrence",
				slog.String("bucket", bucket),
				slog.Time("timestamp", r.Timestamp))
			continue
		}
		out = append(out, r)
	}
	return out
}

// mergeRange widens a range to include a series' span.
func mergeRange(r *domain.DateRange, s domain.Series) *domain.DateRange {
	start, end, ok := s.DateRange()
	if !ok {
		return r
	}
	if r == nil {
		return &domain.DateRange{Start: start, End: end}
	}
	if start.Before(r.Start) {
		r.Start = start
	}
	if end.After(r.End) {
		r.End = end
	}
	return r
}

// civilDate truncates a timestamp to its calendar day.
func civilDate(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
}

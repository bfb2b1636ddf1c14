package domain

import (
	"sort"
	"time"
)

// Format identifies the structural layout of a meter export file.
type Format string

const (
	// FormatLegacy is the original web-portal export: one row per reading
	// with a POD identifier, a variable name and a timestamp.
	FormatLegacy Format = "legacy"
	// FormatInterval is the 15-minute interval email export with +A/-A
	// columns per row.
	FormatInterval Format = "interval"
	// FormatCumulative is the daily cumulative email export: one row per
	// calendar day holding absolute meter registers.
	FormatCumulative Format = "cumulative"
	// FormatUnknown is returned when no signature matches.
	FormatUnknown Format = "unknown"
)

// ParseFormat maps a caller-supplied format name to a Format tag.
// The second return value is false for unrecognized names.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatLegacy, FormatInterval, FormatCumulative, FormatUnknown:
		return Format(s), true
	}
	return FormatUnknown, false
}

// Direction distinguishes energy flowing from the grid (import) from
// energy fed back into it (export).
type Direction string

const (
	DirectionImport Direction = "import"
	DirectionExport Direction = "export"
)

// Reading is a single observation: either an absolute meter value or a
// per-interval delta, depending on the series it belongs to.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is an ordered sequence of readings for one direction.
type Series []Reading

// Sort orders the series by timestamp. The sort is stable so readings
// with equal timestamps keep their input order.
func (s Series) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Timestamp.Before(s[j].Timestamp)
	})
}

// DateRange returns the first and last timestamp of a sorted series.
// ok is false for an empty series.
func (s Series) DateRange() (start, end time.Time, ok bool) {
	if len(s) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s[0].Timestamp, s[len(s)-1].Timestamp, true
}

// DuplicateTimestamps returns the timestamps that occur more than once in
// a sorted series. A finished series must not contain any.
func (s Series) DuplicateTimestamps() []time.Time {
	var dups []time.Time
	for i := 1; i < len(s); i++ {
		if s[i].Timestamp.Equal(s[i-1].Timestamp) {
			if len(dups) == 0 || !dups[len(dups)-1].Equal(s[i].Timestamp) {
				dups = append(dups, s[i].Timestamp)
			}
		}
	}
	return dups
}

// DailyBaseline is an absolute cumulative meter reading captured once per
// calendar day, one register per direction.
type DailyBaseline struct {
	Date   time.Time `json:"date"`
	Import float64   `json:"import"`
	Export float64   `json:"export"`
}

// DateRange is an inclusive timestamp interval.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseMetadata describes what a parser saw in one file.
type ParseMetadata struct {
	FilePath     string            `json:"file_path"`
	RecordCount  int               `json:"record_count"`
	DateRange    *DateRange        `json:"date_range,omitempty"`
	IntervalType string            `json:"interval_type,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// ParseResult is the normalized output of parsing a single export file.
// It is owned by the caller that requested the parse and is never shared
// between concurrent parses.
type ParseResult struct {
	Format Format `json:"format"`

	// Hourly holds interval readings (deltas) per direction.
	HourlyImport Series `json:"hourly_import"`
	HourlyExport Series `json:"hourly_export"`

	// Daily holds absolute day-start meter values per direction where the
	// format provides them, otherwise daily consumption sums.
	DailyImport Series `json:"daily_import"`
	DailyExport Series `json:"daily_export"`

	// Baselines is populated by the cumulative parser only; it pairs the
	// import and export registers of each day.
	Baselines []DailyBaseline `json:"baselines,omitempty"`

	Metadata ParseMetadata `json:"metadata"`
}

// FileError records a per-file parse failure in a multi-file run.
type FileError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// MergedResult aggregates the parse results of multiple files. Partial
// failures are recorded in FileErrors, not raised.
type MergedResult struct {
	Files       []string `json:"files"`
	FormatsSeen []Format `json:"formats_seen"`

	CombinedHourlyImport Series `json:"combined_hourly_import"`
	CombinedHourlyExport Series `json:"combined_hourly_export"`
	CombinedDailyImport  Series `json:"combined_daily_import"`
	CombinedDailyExport  Series `json:"combined_daily_export"`

	Baselines []DailyBaseline `json:"baselines,omitempty"`

	TotalRecords int         `json:"total_records"`
	OverallRange *DateRange  `json:"overall_range,omitempty"`
	FileErrors   []FileError `json:"file_errors"`
}

// SawFormat reports whether files of the given format contributed to
// the merge.
func (m *MergedResult) SawFormat(f Format) bool {
	for _, seen := range m.FormatsSeen {
		if seen == f {
			return true
		}
	}
	return false
}

// Hourly returns the combined hourly series for one direction.
func (m *MergedResult) Hourly(d Direction) Series {
	if d == DirectionExport {
		return m.CombinedHourlyExport
	}
	return m.CombinedHourlyImport
}

// Daily returns the combined daily series for one direction.
func (m *MergedResult) Daily(d Direction) Series {
	if d == DirectionExport {
		return m.CombinedDailyExport
	}
	return m.CombinedDailyImport
}

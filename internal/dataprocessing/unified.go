package dataprocessing

import (
	"fmt"
	"log/slog"

	apperrors "spooker/internal/errors"
	"spooker/pkg/contracts/domain"
)

// Parser is the contract shared by all format parsers.
type Parser interface {
	Parse(path string, delimiter rune) (*domain.ParseResult, error)
}

// UnifiedParser dispatches files to the right parser by classification
// or explicit override, and merges results across multiple files with
// per-file failure isolation.
type UnifiedParser struct {
	detector *Detector
	parsers  map[domain.Format]Parser
	logger   *slog.Logger
}

// NewUnifiedParser wires the detector and the format parsers.
func NewUnifiedParser(logger *slog.Logger) *UnifiedParser {
	return &UnifiedParser{
		detector: NewDetector(logger),
		parsers: map[domain.Format]Parser{
			domain.FormatLegacy:     NewLegacyParser(logger),
			domain.FormatInterval:   NewIntervalParser(logger),
			domain.FormatCumulative: NewCumulativeParser(logger),
		},
		logger: logger,
	}
}

// ParseFile parses a single file. A non-empty override skips
// classification; an unrecognized override name is a configuration
// error. Dispatch failures surface as file-processing errors.
func (u *UnifiedParser) ParseFile(path string, delimiter rune, override string) (*domain.ParseResult, error) {
	var format domain.Format
	var detection Detection

	if override != "" {
		f, ok := domain.ParseFormat(override)
		if !ok || f == domain.FormatUnknown {
			return nil, apperrors.Configurationf("format", "unrecognized format override %q", override)
		}
		format = f
		detection = Detection{Format: f}
		u.logger.Info("using format override",
			slog.String("path", path),
			slog.String("format", override))
	} else {
		format, detection = u.detector.Detect(path, delimiter)
	}

	parser, ok := u.parsers[format]
	if !ok {
		return nil, apperrors.FileProcessingf(path, "no parser available for format %q", format)
	}

	result, err := parser.Parse(path, delimiter)
	if err != nil {
		return nil, err
	}

	if result.Metadata.Extra == nil {
		result.Metadata.Extra = make(map[string]string)
	}
	result.Metadata.Extra["detected_format"] = string(detection.Format)
	if detection.IntervalType != "" {
		result.Metadata.Extra["interval_type"] = detection.IntervalType
	}

	return result, nil
}

// ParseFiles parses every path independently and merges the successes.
// A failing file is recorded in FileErrors and processing continues; only
// zero usable files is a top-level error. Combined series are sorted by
// timestamp with input order breaking ties.
func (u *UnifiedParser) ParseFiles(paths []string, delimiter rune) (*domain.MergedResult, error) {
	merged := &domain.MergedResult{}
	seen := make(map[domain.Format]bool)

	for _, path := range paths {
		result, err := u.ParseFile(path, delimiter, "")
		if err != nil {
			u.logger.Warn("file failed to parse, continuing with remaining files",
				slog.String("path", path),
				slog.String("error", err.Error()))
			merged.FileErrors = append(merged.FileErrors, domain.FileError{
				File:    path,
				Message: err.Error(),
			})
			continue
		}

		merged.Files = append(merged.Files, path)
		if !seen[result.Format] {
			seen[result.Format] = true
			merged.FormatsSeen = append(merged.FormatsSeen, result.Format)
		}

		merged.CombinedHourlyImport = append(merged.CombinedHourlyImport, result.HourlyImport...)
		merged.CombinedHourlyExport = append(merged.CombinedHourlyExport, result.HourlyExport...)
		merged.CombinedDailyImport = append(merged.CombinedDailyImport, result.DailyImport...)
		merged.CombinedDailyExport = append(merged.CombinedDailyExport, result.DailyExport...)
		merged.Baselines = append(merged.Baselines, result.Baselines...)

		merged.TotalRecords += result.Metadata.RecordCount
		if dr := result.Metadata.DateRange; dr != nil {
			if merged.OverallRange == nil {
				merged.OverallRange = &domain.DateRange{Start: dr.Start, End: dr.End}
			} else {
				if dr.Start.Before(merged.OverallRange.Start) {
					merged.OverallRange.Start = dr.Start
				}
				if dr.End.After(merged.OverallRange.End) {
					merged.OverallRange.End = dr.End
				}
			}
		}
	}

	if len(merged.Files) == 0 {
		return nil, fmt.Errorf("%w: none of the %d input files could be parsed",
			apperrors.ErrFileProcessing, len(paths))
	}

	// Stable sorts keep input order for equal timestamps.
	merged.CombinedHourlyImport.Sort()
	merged.CombinedHourlyExport.Sort()
	merged.CombinedDailyImport.Sort()
	merged.CombinedDailyExport.Sort()

	u.logger.Info("merged parse results",
		slog.Int("files_ok", len(merged.Files)),
		slog.Int("files_failed", len(merged.FileErrors)),
		slog.Int("total_records", merged.TotalRecords),
		slog.Any("formats", merged.FormatsSeen))

	return merged, nil
}

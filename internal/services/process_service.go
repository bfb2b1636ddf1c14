package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spooker/internal/config"
	"spooker/internal/dataprocessing"
	apperrors "spooker/internal/errors"
	"spooker/internal/exporter"
	"spooker/internal/metrics"
	"spooker/internal/notify"
	"spooker/pkg/contracts/domain"
)

// ProcessOptions tunes a single processing run.
type ProcessOptions struct {
	// FormatOverride skips classification for every file in the run.
	FormatOverride string
	// Delimiter overrides the configured CSV separator; zero means use
	// the configured value (which itself may request auto-detection).
	Delimiter rune
	// DryRun parses and reconstructs but writes nothing.
	DryRun bool
}

// Summary reports what one processing run did.
type Summary struct {
	Files        []string           `json:"files"`
	FormatsSeen  []domain.Format    `json:"formats_seen"`
	FileErrors   []domain.FileError `json:"file_errors,omitempty"`
	TotalRecords int                `json:"total_records"`
	Range        *domain.DateRange  `json:"range,omitempty"`
	ImportPoints int                `json:"import_points"`
	ExportPoints int                `json:"export_points"`
	Outputs      []exporter.Output  `json:"outputs,omitempty"`
	DryRun       bool               `json:"dry_run"`
	Duration     time.Duration      `json:"duration"`
}

// ProcessService runs the full pipeline: parse, reconstruct, export,
// notify.
type ProcessService struct {
	cfg           *config.Config
	parser        *dataprocessing.UnifiedParser
	reconstructor *dataprocessing.Reconstructor
	writer        *exporter.StatisticsWriter
	notifier      *notify.Notifier
	logger        *slog.Logger
}

// NewProcessService wires the pipeline from configuration.
func NewProcessService(cfg *config.Config, logger *slog.Logger) *ProcessService {
	return &ProcessService{
		cfg:           cfg,
		parser:        dataprocessing.NewUnifiedParser(logger),
		reconstructor: dataprocessing.NewReconstructor(cfg.Processing.Timezone, logger),
		writer: exporter.NewStatisticsWriter(exporter.Options{
			OutputDir:   cfg.Paths.OutputDir,
			Backups:     cfg.Processing.Backups,
			BackupsKept: cfg.Processing.BackupsKept,
		}, logger),
		notifier: notify.New(cfg.Notify, logger),
		logger:   logger,
	}
}

// ProcessFile runs the pipeline for a single input file; used by the
// folder watcher.
func (s *ProcessService) ProcessFile(ctx context.Context, path string) (*Summary, error) {
	return s.ProcessPaths(ctx, []string{path}, ProcessOptions{})
}

// ProcessPaths runs the pipeline over the given input files. Individual
// file failures are isolated and reported in the summary; only a run
// producing no usable data is an error.
func (s *ProcessService) ProcessPaths(ctx context.Context, paths []string, opts ProcessOptions) (*Summary, error) {
	start := time.Now()

	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = s.cfg.DelimiterRune()
	}

	merged, err := s.parseAll(paths, delimiter, opts.FormatOverride)
	if err != nil {
		metrics.ParseFailed("run")
		return nil, err
	}
	for _, f := range merged.FormatsSeen {
		metrics.FileProcessed(string(f))
	}
	for range merged.FileErrors {
		metrics.ParseFailed("file")
	}

	importPoints := s.buildPoints(merged, domain.DirectionImport)
	exportPoints := s.buildPoints(merged, domain.DirectionExport)
	if err := validatePoints(importPoints, domain.DirectionImport); err != nil {
		metrics.ParseFailed("validation")
		return nil, err
	}
	if err := validatePoints(exportPoints, domain.DirectionExport); err != nil {
		metrics.ParseFailed("validation")
		return nil, err
	}

	summary := &Summary{
		Files:        merged.Files,
		FormatsSeen:  merged.FormatsSeen,
		FileErrors:   merged.FileErrors,
		TotalRecords: merged.TotalRecords,
		Range:        merged.OverallRange,
		ImportPoints: len(importPoints),
		ExportPoints: len(exportPoints),
		DryRun:       opts.DryRun,
	}

	if !opts.DryRun {
		outputs, err := s.writer.WriteStatistics(s.cfg.Processing.OutputBase, importPoints, exportPoints)
		if err != nil {
			return nil, err
		}
		summary.Outputs = outputs
		metrics.PointsWritten(string(domain.DirectionImport), len(importPoints))
		metrics.PointsWritten(string(domain.DirectionExport), len(exportPoints))

		s.notifier.Notify(ctx, "Meter export processed",
			fmt.Sprintf("%d file(s) converted: %d import and %d export statistics points",
				len(merged.Files), len(importPoints), len(exportPoints)))
	}

	summary.Duration = time.Since(start)
	metrics.ObserveRunDuration(summary.Duration.Seconds())

	s.logger.Info("processing run finished",
		slog.Int("files", len(summary.Files)),
		slog.Int("failed", len(summary.FileErrors)),
		slog.Int("import_points", summary.ImportPoints),
		slog.Int("export_points", summary.ExportPoints),
		slog.Bool("dry_run", summary.DryRun),
		slog.Duration("duration", summary.Duration))
	return summary, nil
}

// parseAll dispatches to the multi-file orchestrator, or replicates its
// failure isolation when an override pins the format for every file.
func (s *ProcessService) parseAll(paths []string, delimiter rune, override string) (*domain.MergedResult, error) {
	if override == "" {
		return s.parser.ParseFiles(paths, delimiter)
	}

	merged := &domain.MergedResult{}
	seen := make(map[domain.Format]bool)
	for _, path := range paths {
		result, err := s.parser.ParseFile(path, delimiter, override)
		if err != nil {
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
		return nil, fmt.Errorf("%w: none of the %d input files could be parsed with format %q: %s",
			apperrors.ErrFileProcessing, len(paths), override, firstError(merged.FileErrors))
	}
	merged.CombinedHourlyImport.Sort()
	merged.CombinedHourlyExport.Sort()
	merged.CombinedDailyImport.Sort()
	merged.CombinedDailyExport.Sort()
	return merged, nil
}

func firstError(errs []domain.FileError) string {
	if len(errs) == 0 {
		return "no files given"
	}
	return errs[0].Message
}

// buildPoints turns the merged series into statistics points for one
// direction, honoring the configured resolution.
func (s *ProcessService) buildPoints(m *domain.MergedResult, d domain.Direction) []domain.StatisticsPoint {
	hourly := m.Hourly(d)

	if s.cfg.Processing.Resolution == "daily" {
		return s.dailyPoints(m, d)
	}

	// A cumulative-only run has registers but no interval data: spread
	// each day's consumption evenly instead of skipping everything.
	if len(hourly) == 0 && len(m.Baselines) >= 2 {
		return s.reconstructor.DistributeBaselines(m.Baselines, d)
	}

	baselines := baselineSeries(m.Baselines, d)
	if len(baselines) == 0 && m.SawFormat(domain.FormatLegacy) {
		// Legacy daily rows are absolute registers; they anchor the walk
		// the same way the cumulative format's baselines do.
		baselines = m.Daily(d)
	}
	return s.reconstructor.HourlyStatistics(baselines, hourly, d)
}

// validatePoints rejects a finished output series containing the same
// start twice; the recorder refuses such an import wholesale.
func validatePoints(points []domain.StatisticsPoint, d domain.Direction) error {
	seen := make(map[string]bool, len(points))
	for _, p := range points {
		if seen[p.Start] {
			return apperrors.Validationf(string(d)+" statistics",
				"duplicate start %q in output series", p.Start)
		}
		seen[p.Start] = true
	}
	return nil
}

// dailyPoints emits one point per day. With registers available the
// absolute values are used directly; otherwise daily sums accumulate
// from zero.
func (s *ProcessService) dailyPoints(m *domain.MergedResult, d domain.Direction) []domain.StatisticsPoint {
	offset := s.cfg.Processing.Timezone

	if len(m.Baselines) > 0 {
		points := make([]domain.StatisticsPoint, 0, len(m.Baselines))
		for _, b := range m.Baselines {
			value := b.Import
			if d == domain.DirectionExport {
				value = b.Export
			}
			points = append(points, domain.NewStatisticsPoint(b.Date, offset, value))
		}
		return points
	}

	daily := m.Daily(d)
	if m.SawFormat(domain.FormatLegacy) {
		// Legacy daily readings are absolute registers already.
		points := make([]domain.StatisticsPoint, 0, len(daily))
		for _, r := range daily {
			points = append(points, domain.NewStatisticsPoint(r.Timestamp, offset, r.Value))
		}
		return points
	}

	var points []domain.StatisticsPoint
	running := 0.0
	for _, r := range daily {
		running += r.Value
		points = append(points, domain.NewStatisticsPoint(r.Timestamp, offset, running))
	}
	return points
}

// baselineSeries projects one direction's register out of the paired
// baselines.
func baselineSeries(baselines []domain.DailyBaseline, d domain.Direction) domain.Series {
	if len(baselines) == 0 {
		return nil
	}
	out := make(domain.Series, 0, len(baselines))
	for _, b := range baselines {
		value := b.Import
		if d == domain.DirectionExport {
			value = b.Export
		}
		out = append(out, domain.Reading{Timestamp: b.Date, Value: value})
	}
	return out
}

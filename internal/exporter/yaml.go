package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	apperrors "spooker/internal/errors"
	"spooker/pkg/contracts/domain"
)

// Options configures the statistics writer.
type Options struct {
	// OutputDir receives the generated files; created if missing.
	OutputDir string
	// Backups enables .bak rotation of files about to be overwritten.
	Backups bool
	// BackupsKept bounds the rotation depth; older copies are dropped.
	BackupsKept int
}

// StatisticsWriter renders statistics points to YAML files.
type StatisticsWriter struct {
	opts   Options
	logger *slog.Logger
}

// Output describes one generated file.
type Output struct {
	Path   string `json:"path"`
	Points int    `json:"points"`
	Bytes  int    `json:"bytes"`
}

// NewStatisticsWriter creates a writer for the given output directory.
func NewStatisticsWriter(opts Options, logger *slog.Logger) *StatisticsWriter {
	if opts.BackupsKept <= 0 {
		opts.BackupsKept = 3
	}
	return &StatisticsWriter{opts: opts, logger: logger}
}

// WriteStatistics writes <base>_import.yaml and <base>_export.yaml for the
// non-empty directions plus <base>_combined.yaml holding both, and returns
// the files produced. Existing outputs are rotated away first unless
// backups are disabled.
func (w *StatisticsWriter) WriteStatistics(base string, importPoints, exportPoints []domain.StatisticsPoint) ([]Output, error) {
	if len(importPoints) == 0 && len(exportPoints) == 0 {
		return nil, apperrors.Validationf(base, "no statistics points to write")
	}

	if err := os.MkdirAll(w.opts.OutputDir, 0o755); err != nil {
		return nil, apperrors.FileProcessingf(w.opts.OutputDir, "create output directory: %v", err)
	}

	var outputs []Output
	write := func(name, direction string, doc interface{}, points int) error {
		path := filepath.Join(w.opts.OutputDir, name)
		body, err := yaml.Marshal(doc)
		if err != nil {
			return apperrors.FileProcessingf(path, "marshal statistics: %v", err)
		}
		content := header(direction, points) + string(body)

		if w.opts.Backups {
			if err := rotateBackups(path, w.opts.BackupsKept); err != nil {
				return err
			}
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return apperrors.FileProcessingf(path, "write statistics: %v", err)
		}

		w.logger.Info("wrote statistics file",
			slog.String("path", path),
			slog.Int("points", points),
			slog.Int("bytes", len(content)))
		outputs = append(outputs, Output{Path: path, Points: points, Bytes: len(content)})
		return nil
	}

	if len(importPoints) > 0 {
		if err := write(base+"_import.yaml", "import", importPoints, len(importPoints)); err != nil {
			return nil, err
		}
	}
	if len(exportPoints) > 0 {
		if err := write(base+"_export.yaml", "export", exportPoints, len(exportPoints)); err != nil {
			return nil, err
		}
	}

	combined := map[string][]domain.StatisticsPoint{}
	if len(importPoints) > 0 {
		combined["import"] = importPoints
	}
	if len(exportPoints) > 0 {
		combined["export"] = exportPoints
	}
	if err := write(base+"_combined.yaml", "combined import/export",
		combined, len(importPoints)+len(exportPoints)); err != nil {
		return nil, err
	}

	return outputs, nil
}

func header(direction string, points int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Home Assistant statistics data for %s\n", direction)
	fmt.Fprintf(&b, "# Generated by spooker at %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "# Data points: %d\n\n", points)
	return b.String()
}

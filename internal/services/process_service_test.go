package services

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"spooker/internal/config"
	apperrors "spooker/internal/errors"
	"spooker/pkg/contracts/domain"
)

const intervalCSV = `Dátum/Idő;+A;-A
2024.01.01. 00:00;1,5;0,1
2024.01.01. 00:15;0,25;0,1
2024.01.01. 01:00;2;0,1
ÖSSZEG;;
`

const cumulativeCSV = `Dátum;DP_1-1:1.8.0*0;DP_1-1:2.8.0*0
2024.01.01.;1000;500
2024.01.02.;1010,5;505
ÖSSZEG;;
`

const legacyCSV = `POD Name;Variable name;Time;Value [kWh]
POD1;'DP_1-1:1.8.0*0';2024.01.01 00:00:00;1000
POD1;'+A';2024.01.01 00:00:00;1
POD1;'+A';2024.01.01 01:00:00;1
POD1;'+A';2024.01.01 02:00:00;1
POD1;'+A';2024.01.01 03:00:00;1
POD1;'+A';2024.01.01 04:00:00;1
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*ProcessService, *config.Config, string) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.InputDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Processing.Backups = false
	return NewProcessService(cfg, testLogger()), cfg, cfg.Paths.InputDir
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProcessPathsEndToEnd(t *testing.T) {
	svc, cfg, in := newTestService(t)
	interval := writeInput(t, in, "interval.csv", intervalCSV)
	cumulative := writeInput(t, in, "cumulative.csv", cumulativeCSV)

	summary, err := svc.ProcessPaths(context.Background(), []string{interval, cumulative}, ProcessOptions{})
	require.NoError(t, err)

	assert.Len(t, summary.Files, 2)
	assert.Empty(t, summary.FileErrors)
	assert.ElementsMatch(t, []domain.Format{domain.FormatInterval, domain.FormatCumulative}, summary.FormatsSeen)
	assert.Greater(t, summary.ImportPoints, 0)
	require.Len(t, summary.Outputs, 3)

	data, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, "energy_statistics_import.yaml"))
	require.NoError(t, err)
	var points []domain.StatisticsPoint
	require.NoError(t, yaml.Unmarshal(data, &points))
	require.NotEmpty(t, points)
	// Day 1 anchors to its own register; the hour-0 point carries it.
	assert.Equal(t, "2024-01-01 00:00:00+02:00", points[0].Start)
	assert.Equal(t, 1000.0, points[0].State)
}

func TestProcessPathsLegacyAnchorsToRegister(t *testing.T) {
	svc, cfg, in := newTestService(t)
	legacy := writeInput(t, in, "legacy.csv", legacyCSV)

	summary, err := svc.ProcessPaths(context.Background(), []string{legacy}, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, []domain.Format{domain.FormatLegacy}, summary.FormatsSeen)
	assert.Equal(t, 5, summary.ImportPoints)

	data, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, "energy_statistics_import.yaml"))
	require.NoError(t, err)
	var points []domain.StatisticsPoint
	require.NoError(t, yaml.Unmarshal(data, &points))
	require.Len(t, points, 5)
	// The register row is the day's baseline, not a zero start.
	assert.Equal(t, "2024-01-01 00:00:00+02:00", points[0].Start)
	assert.Equal(t, 1000.0, points[0].State)
	assert.Equal(t, 1000.0, points[0].Sum)
	assert.Equal(t, 1004.0, points[4].State)
}

func TestProcessPathsLegacyDailyResolution(t *testing.T) {
	svc, cfg, in := newTestService(t)
	cfg.Processing.Resolution = "daily"
	legacy := writeInput(t, in, "legacy.csv", `POD Name;Variable name;Time;Value [kWh]
POD1;'DP_1-1:1.8.0*0';2024.01.01 00:00:00;1000
POD1;'DP_1-1:1.8.0*0';2024.01.02 00:00:00;1010
`)

	summary, err := svc.ProcessPaths(context.Background(), []string{legacy}, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ImportPoints)

	data, err := os.ReadFile(filepath.Join(cfg.Paths.OutputDir, "energy_statistics_import.yaml"))
	require.NoError(t, err)
	var points []domain.StatisticsPoint
	require.NoError(t, yaml.Unmarshal(data, &points))
	require.Len(t, points, 2)
	// Registers are absolute; the second day must not double-count.
	assert.Equal(t, 1000.0, points[0].Sum)
	assert.Equal(t, 1010.0, points[1].Sum)
}

func TestProcessPathsRejectsDuplicateOutputStarts(t *testing.T) {
	svc, _, in := newTestService(t)
	first := writeInput(t, in, "interval1.csv", intervalCSV)
	second := writeInput(t, in, "interval2.csv", intervalCSV)

	_, err := svc.ProcessPaths(context.Background(), []string{first, second}, ProcessOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDataValidation)
}

func TestProcessPathsDryRunWritesNothing(t *testing.T) {
	svc, cfg, in := newTestService(t)
	interval := writeInput(t, in, "interval.csv", intervalCSV)

	summary, err := svc.ProcessPaths(context.Background(), []string{interval}, ProcessOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, summary.DryRun)
	assert.Greater(t, summary.ImportPoints, 0)
	assert.Empty(t, summary.Outputs)

	entries, err := os.ReadDir(cfg.Paths.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessPathsIsolatesBadFile(t *testing.T) {
	svc, _, in := newTestService(t)
	good := writeInput(t, in, "interval.csv", intervalCSV)
	bad := writeInput(t, in, "junk.csv", "foo;bar\n1;2\n")

	summary, err := svc.ProcessPaths(context.Background(), []string{good, bad}, ProcessOptions{})
	require.NoError(t, err)
	assert.Len(t, summary.Files, 1)
	require.Len(t, summary.FileErrors, 1)
	assert.Equal(t, bad, summary.FileErrors[0].File)
}

func TestProcessPathsAllBad(t *testing.T) {
	svc, _, in := newTestService(t)
	bad := writeInput(t, in, "junk.csv", "foo;bar\n1;2\n")

	_, err := svc.ProcessPaths(context.Background(), []string{bad}, ProcessOptions{})
	require.Error(t, err)
}

func TestProcessPathsWithOverride(t *testing.T) {
	svc, _, in := newTestService(t)
	cumulative := writeInput(t, in, "cumulative.csv", cumulativeCSV)

	summary, err := svc.ProcessPaths(context.Background(), []string{cumulative},
		ProcessOptions{FormatOverride: "cumulative", DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, []domain.Format{domain.FormatCumulative}, summary.FormatsSeen)

	// Forcing the wrong parser fails the file; with only one file the
	// whole run fails.
	_, err = svc.ProcessPaths(context.Background(), []string{cumulative},
		ProcessOptions{FormatOverride: "legacy", DryRun: true})
	require.Error(t, err)
}

func TestProcessPathsCumulativeOnlyDistributes(t *testing.T) {
	svc, _, in := newTestService(t)
	cumulative := writeInput(t, in, "cumulative.csv", cumulativeCSV)

	summary, err := svc.ProcessPaths(context.Background(), []string{cumulative}, ProcessOptions{DryRun: true})
	require.NoError(t, err)
	// One day of consumption spread across 24 hourly points.
	assert.Equal(t, 24, summary.ImportPoints)
	assert.Equal(t, 24, summary.ExportPoints)
}

func TestProcessPathsDailyResolution(t *testing.T) {
	svc, cfg, in := newTestService(t)
	cfg.Processing.Resolution = "daily"
	cumulative := writeInput(t, in, "cumulative.csv", cumulativeCSV)

	summary, err := svc.ProcessPaths(context.Background(), []string{cumulative}, ProcessOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ImportPoints)
	assert.Equal(t, 2, summary.ExportPoints)
}

func TestProcessFileDelegates(t *testing.T) {
	svc, _, in := newTestService(t)
	interval := writeInput(t, in, "interval.csv", intervalCSV)

	summary, err := svc.ProcessFile(context.Background(), interval)
	require.NoError(t, err)
	assert.Equal(t, []string{interval}, summary.Files)
	assert.NotEmpty(t, summary.Outputs)
}

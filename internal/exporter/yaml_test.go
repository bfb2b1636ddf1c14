package exporter

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	apperrors "spooker/internal/errors"
	"spooker/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func samplePoints() []domain.StatisticsPoint {
	return []domain.StatisticsPoint{
		{Start: "2024-01-01 00:00:00+02:00", State: 1000.0, Sum: 1000.0},
		{Start: "2024-01-01 01:00:00+02:00", State: 1004.0, Sum: 1004.0},
	}
}

func TestWriteStatisticsProducesAllFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewStatisticsWriter(Options{OutputDir: dir}, testLogger())

	outputs, err := w.WriteStatistics("energy", samplePoints(), samplePoints()[:1])
	require.NoError(t, err)
	require.Len(t, outputs, 3)

	data, err := os.ReadFile(filepath.Join(dir, "energy_import.yaml"))
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "# Home Assistant statistics data for import"))
	assert.Contains(t, content, "# Data points: 2")

	// The body below the header must round-trip.
	var points []domain.StatisticsPoint
	require.NoError(t, yaml.Unmarshal(data, &points))
	require.Len(t, points, 2)
	assert.Equal(t, "2024-01-01 00:00:00+02:00", points[0].Start)
	assert.Equal(t, 1004.0, points[1].State)

	combined, err := os.ReadFile(filepath.Join(dir, "energy_combined.yaml"))
	require.NoError(t, err)
	var doc map[string][]domain.StatisticsPoint
	require.NoError(t, yaml.Unmarshal(combined, &doc))
	assert.Len(t, doc["import"], 2)
	assert.Len(t, doc["export"], 1)
}

func TestWriteStatisticsSkipsEmptyDirection(t *testing.T) {
	dir := t.TempDir()
	w := NewStatisticsWriter(Options{OutputDir: dir}, testLogger())

	outputs, err := w.WriteStatistics("energy", samplePoints(), nil)
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	_, err = os.Stat(filepath.Join(dir, "energy_export.yaml"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteStatisticsNoPoints(t *testing.T) {
	w := NewStatisticsWriter(Options{OutputDir: t.TempDir()}, testLogger())

	_, err := w.WriteStatistics("energy", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDataValidation)
}

func TestWriteStatisticsCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := NewStatisticsWriter(Options{OutputDir: dir}, testLogger())

	_, err := w.WriteStatistics("energy", samplePoints(), nil)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "energy_import.yaml"))
	assert.NoError(t, err)
}

func TestBackupRotation(t *testing.T) {
	dir := t.TempDir()
	w := NewStatisticsWriter(Options{OutputDir: dir, Backups: true, BackupsKept: 2}, testLogger())

	for i := 0; i < 4; i++ {
		_, err := w.WriteStatistics("energy", samplePoints(), nil)
		require.NoError(t, err)
	}

	target := filepath.Join(dir, "energy_import.yaml")
	for _, name := range []string{target, target + ".bak.1", target + ".bak.2"} {
		_, err := os.Stat(name)
		assert.NoError(t, err, name)
	}
	_, err := os.Stat(target + ".bak.3")
	assert.True(t, os.IsNotExist(err))
}

func TestBackupsDisabled(t *testing.T) {
	dir := t.TempDir()
	w := NewStatisticsWriter(Options{OutputDir: dir, Backups: false}, testLogger())

	_, err := w.WriteStatistics("energy", samplePoints(), nil)
	require.NoError(t, err)
	_, err = w.WriteStatistics("energy", samplePoints(), nil)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".bak.")
	}
}

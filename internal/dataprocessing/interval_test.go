package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalParseAggregation(t *testing.T) {
	path := writeFixture(t, "interval.csv", intervalFixture)
	parser := NewIntervalParser(testLogger())

	result, err := parser.Parse(path, ';')
	require.NoError(t, err)

	// Hour 0 sums three quarters, hour 1 one. Summary rows are stripped.
	require.Len(t, result.HourlyImport, 2)
	assert.Equal(t, 1.75, result.HourlyImport[0].Value)
	assert.Equal(t, 2.0, result.HourlyImport[1].Value)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), result.HourlyImport[0].Timestamp)

	require.Len(t, result.HourlyExport, 2)
	assert.Equal(t, 0.3, result.HourlyExport[0].Value)

	require.Len(t, result.DailyImport, 1)
	assert.Equal(t, 3.75, result.DailyImport[0].Value)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), result.DailyImport[0].Timestamp)

	assert.Equal(t, 8, result.Metadata.RecordCount)
	assert.Equal(t, "15_minute", result.Metadata.IntervalType)
}

func TestIntervalParseBOMAndDecimalComma(t *testing.T) {
	// The fixture already starts with a UTF-8 BOM and uses decimal commas;
	// both must be transparent.
	path := writeFixture(t, "interval.csv", intervalFixture)
	parser := NewIntervalParser(testLogger())

	result, err := parser.Parse(path, ';')
	require.NoError(t, err)
	assert.Equal(t, 0.25, result.HourlyImport[0].Value-1.5)
}

func TestIntervalParseRoundsSums(t *testing.T) {
	content := `Dátum/Idő;+A;-A
2024.01.01. 00:00;0,1111;0
2024.01.01. 00:15;0,2222;0
ÖSSZEG;;
`
	path := writeFixture(t, "interval.csv", content)
	parser := NewIntervalParser(testLogger())

	result, err := parser.Parse(path, ';')
	require.NoError(t, err)
	require.Len(t, result.HourlyImport, 1)
	assert.Equal(t, 0.333, result.HourlyImport[0].Value)
}

func TestIntervalParseSkipsInvalidRows(t *testing.T) {
	content := `Dátum/Idő;+A;-A
garbage;1;1
2024.01.01. 00:00;abc;1
2024.01.01. 00:15;0,5;0,5
ÖSSZEG;;
`
	path := writeFixture(t, "interval.csv", content)
	parser := NewIntervalParser(testLogger())

	result, err := parser.Parse(path, ';')
	require.NoError(t, err)
	assert.Equal(t, 2, result.Metadata.RecordCount)
	require.Len(t, result.HourlyImport, 1)
	assert.Equal(t, 0.5, result.HourlyImport[0].Value)
}

func TestIntervalParseMissingColumns(t *testing.T) {
	path := writeFixture(t, "interval.csv", "Dátum/Idő;+A\n2024.01.01. 00:00;1\n")
	parser := NewIntervalParser(testLogger())

	_, err := parser.Parse(path, ';')
	require.Error(t, err)
}

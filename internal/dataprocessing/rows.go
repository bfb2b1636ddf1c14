package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultDelimiter is used when the caller supplies none and detection
// finds nothing better.
const DefaultDelimiter = ';'

// sampleRowLimit bounds how many rows the classifier inspects.
const sampleRowLimit = 10

// supportedDelimiters are the candidates considered by auto-detection.
var supportedDelimiters = []rune{';', ',', '\t'}

// table is the in-memory row representation shared by delimited-text and
// Excel inputs. Header cells are trimmed; data cells are left as-is.
type table struct {
	header []string
	rows   [][]string
}

// columnIndex returns the position of an exact header name, or -1.
func (t *table) columnIndex(name string) int {
	for i, col := range t.header {
		if col == name {
			return i
		}
	}
	return -1
}

// cell returns the trimmed cell at col for a row, tolerating short rows.
func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// readTable reads the whole file. A zero delimiter requests detection.
func readTable(path string, delimiter rune) (*table, error) {
	return readRows(path, delimiter, 0)
}

// readSample reads at most sampleRowLimit data rows for classification.
func readSample(path string, delimiter rune) (*table, error) {
	return readRows(path, delimiter, sampleRowLimit)
}

func readRows(path string, delimiter rune, limit int) (*table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return readExcelRows(path, limit)
	default:
		return readDelimitedRows(path, delimiter, limit)
	}
}

func readDelimitedRows(path string, delimiter rune, limit int) (*table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Email exports carry a UTF-8 byte-order mark.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	if delimiter == 0 {
		delimiter = DetectDelimiter(data)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("file is empty")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := &table{header: header}
	for limit == 0 || len(t.rows) < limit {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(t.rows)+2, err)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func readExcelRows(path string, limit int) (*table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	header := make([]string, len(rows[0]))
	for i, col := range rows[0] {
		header[i] = strings.TrimSpace(col)
	}

	data := rows[1:]
	if limit > 0 && len(data) > limit {
		data = data[:limit]
	}
	return &table{header: header, rows: data}, nil
}

// DetectDelimiter picks the candidate delimiter occurring most often in
// the first KiB of the file, defaulting to a semicolon.
func DetectDelimiter(data []byte) rune {
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}

	best := DefaultDelimiter
	bestCount := 0
	for _, d := range supportedDelimiters {
		if n := bytes.Count(sample, []byte(string(d))); n > bestCount {
			best = d
			bestCount = n
		}
	}
	return best
}

// parseDecimal converts a cell to a float, accepting the decimal comma
// used by the email exports.
func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(s, 64)
}

// round3 rounds to the fixed 3-decimal precision of the output schema.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

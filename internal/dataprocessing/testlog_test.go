package dataprocessing

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// testLogger returns a silent logger for engine components under test.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeFixture writes CSV content into a temp dir and returns its path.
func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}

const legacyFixture = `POD Name;Variable name;Time;Value [kWh]
POD123;'+A';2024.01.01 00:00:00;0.5
POD123;'+A';2024.01.01 00:15:00;0.3
POD123;'-A';2024.01.01 00:00:00;0.1
POD123;'DP_1-1:1.8.0*0';2024.01.01 00:00:00;1000.0
POD123;'DP_1-1:2.8.0*0';2024.01.01 00:00:00;500.0
`

const intervalFixture = "\ufeff" + `Dátum/Idő;+A;-A
2024.01.01. 00:00;0,5;0,1
2024.01.01. 00:15;0,25;0
2024.01.01. 00:30;1;0,2
2024.01.01. 01:00;2;0
ÖSSZEG;3,75;0,3
MAXIMUM ÉRTÉK;2;0,2
`

const cumulativeFixture = `Dátum;DP_1-1:1.8.0*0;DP_1-1:2.8.0*0
2024.01.02.;1010,5;505
2024.01.01.;1000;500
ÖSSZEG;;
`

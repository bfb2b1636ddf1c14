package exporter

import (
	"fmt"
	"os"

	apperrors "spooker/internal/errors"
)

// rotateBackups shifts path.bak.1..bak.kept-1 up by one, drops the oldest,
// and moves the current file to path.bak.1. A missing current file is not
// an error.
func rotateBackups(path string, kept int) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	oldest := backupName(path, kept)
	if _, err := os.Stat(oldest); err == nil {
		if err := os.Remove(oldest); err != nil {
			return apperrors.FileProcessingf(oldest, "drop oldest backup: %v", err)
		}
	}

	for n := kept - 1; n >= 1; n-- {
		from := backupName(path, n)
		if _, err := os.Stat(from); os.IsNotExist(err) {
			continue
		}
		if err := os.Rename(from, backupName(path, n+1)); err != nil {
			return apperrors.FileProcessingf(from, "rotate backup: %v", err)
		}
	}

	if err := os.Rename(path, backupName(path, 1)); err != nil {
		return apperrors.FileProcessingf(path, "backup current output: %v", err)
	}
	return nil
}

func backupName(path string, n int) string {
	return fmt.Sprintf("%s.bak.%d", path, n)
}

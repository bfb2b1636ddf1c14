package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	apperrors "spooker/internal/errors"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Manager owns the working directories and the upload lifecycle.
type Manager struct {
	inputDir  string
	outputDir string
	logger    *slog.Logger
}

// NewManager creates a manager over the input and output folders.
func NewManager(inputDir, outputDir string, logger *slog.Logger) *Manager {
	return &Manager{inputDir: inputDir, outputDir: outputDir, logger: logger}
}

// EnsureDirectories creates the working directories if missing.
func (m *Manager) EnsureDirectories() error {
	for _, dir := range []string{m.inputDir, m.outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.FileProcessingf(dir, "create directory: %v", err)
		}
	}
	return nil
}

// SanitizeFilename strips path components and unsafe characters from an
// uploaded filename. An empty or fully-stripped name is rejected.
func SanitizeFilename(name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) {
		return "", apperrors.Validationf(name, "empty filename")
	}
	clean := unsafeFilenameChars.ReplaceAllString(base, "_")
	if strings.Trim(clean, "._") == "" {
		return "", apperrors.Validationf(name, "filename reduces to nothing after sanitization")
	}
	return clean, nil
}

// SaveUpload streams an uploaded file into the input folder under its
// sanitized name and returns the stored path. Unreadable extensions are
// rejected before any bytes land on disk.
func (m *Manager) SaveUpload(name string, r io.Reader) (string, error) {
	clean, err := SanitizeFilename(name)
	if err != nil {
		return "", err
	}
	if !IsInputFile(clean) {
		return "", apperrors.Validationf(clean, "unsupported file type")
	}

	if err := os.MkdirAll(m.inputDir, 0o755); err != nil {
		return "", apperrors.FileProcessingf(m.inputDir, "create input directory: %v", err)
	}

	path := filepath.Join(m.inputDir, clean)
	f, err := os.Create(path)
	if err != nil {
		return "", apperrors.FileProcessingf(path, "create upload: %v", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return "", apperrors.FileProcessingf(path, "write upload: %v", err)
	}

	m.logger.Info("saved upload",
		slog.String("path", path),
		slog.Int64("bytes", n))
	return path, nil
}

// DeleteInput removes a file from the input folder. The name is
// sanitized again so handler callers cannot reach outside the folder.
func (m *Manager) DeleteInput(name string) error {
	clean, err := SanitizeFilename(name)
	if err != nil {
		return err
	}
	path := filepath.Join(m.inputDir, clean)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return apperrors.FileProcessingf(path, "file does not exist")
		}
		return apperrors.FileProcessingf(path, "delete: %v", err)
	}
	m.logger.Info("deleted input file", slog.String("path", path))
	return nil
}

// OutputPath resolves a sanitized filename inside the output folder,
// verifying the file exists.
func (m *Manager) OutputPath(name string) (string, error) {
	clean, err := SanitizeFilename(name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(m.outputDir, clean)
	if _, err := os.Stat(path); err != nil {
		return "", apperrors.FileProcessingf(path, "file does not exist")
	}
	return path, nil
}

// InputDir returns the managed input folder path.
func (m *Manager) InputDir() string { return m.inputDir }

// OutputDir returns the managed output folder path.
func (m *Manager) OutputDir() string { return m.outputDir }

// String implements fmt.Stringer for log payloads.
func (m *Manager) String() string {
	return fmt.Sprintf("files.Manager(input=%s output=%s)", m.inputDir, m.outputDir)
}

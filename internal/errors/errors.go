package errors

import (
	"errors"
	"fmt"
)

// The engine exposes exactly three error kinds to its callers. Callers
// test for them with errors.Is; the concrete wrappers below carry the
// file path or field for human-readable messages.
var (
	// ErrFileProcessing marks failures fatal to one file's parse: the
	// file is missing or unreadable, required columns are absent, or
	// parser dispatch failed.
	ErrFileProcessing = errors.New("file processing failed")

	// ErrDataValidation marks semantic failures of structurally parsed
	// data, e.g. duplicate timestamps in a finished series.
	ErrDataValidation = errors.New("data validation failed")

	// ErrConfiguration marks invalid caller-supplied settings such as an
	// unrecognized format override or a multi-character delimiter.
	ErrConfiguration = errors.New("invalid configuration")
)

// FileError wraps a failure that aborts a single file's parse.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("processing %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Is reports ErrFileProcessing so callers need not know the concrete type.
func (e *FileError) Is(target error) bool { return target == ErrFileProcessing }

// FileProcessing wraps err as a file-level failure for path.
func FileProcessing(path string, err error) error {
	return &FileError{Path: path, Err: err}
}

// FileProcessingf builds a file-level failure from a format string.
func FileProcessingf(path, format string, args ...any) error {
	return &FileError{Path: path, Err: fmt.Errorf(format, args...)}
}

// ValidationError wraps a whole-series invariant violation.
type ValidationError struct {
	Subject string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validating %s: %v", e.Subject, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrDataValidation }

// Validation wraps err as a data-validation failure of subject.
func Validation(subject string, err error) error {
	return &ValidationError{Subject: subject, Err: err}
}

// Validationf builds a data-validation failure from a format string.
func Validationf(subject, format string, args ...any) error {
	return &ValidationError{Subject: subject, Err: fmt.Errorf(format, args...)}
}

// ConfigError wraps an invalid setting.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// Configuration wraps err as a configuration failure of field.
func Configuration(field string, err error) error {
	return &ConfigError{Field: field, Err: err}
}

// Configurationf builds a configuration failure from a format string.
func Configurationf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Err: fmt.Errorf(format, args...)}
}

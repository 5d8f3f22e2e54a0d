package finaudit

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrUnsupportedFormat indicates the input file is neither a workbook nor
// an HTML document.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// ErrInvalidConfig indicates options that cannot drive a run.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError reports one invalid option. It matches ErrInvalidConfig
// with errors.Is.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Option, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// ExtractionError represents an error while reading tables from a source.
type ExtractionError struct {
	Source    string
	Component string // "workbook", "sheet", "html"
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error in %q (%s): %v", e.Source, e.Component, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(source, component string, err error) *ExtractionError {
	return &ExtractionError{
		Source:    source,
		Component: component,
		Err:       err,
	}
}

// Package errors provides standardized error types and helpers for the sortxml codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrInput indicates the document source could not be opened or read
	ErrInput = errors.New("input unreadable")
	// ErrParse indicates the document source is not well-formed XML
	ErrParse = errors.New("malformed xml")
	// ErrPath indicates a path expression is invalid or unsupported
	ErrPath = errors.New("invalid path expression")
	// ErrConfig indicates a conflicting or invalid sort configuration
	ErrConfig = errors.New("invalid configuration")
)

// InputError represents a document source that could not be opened or read
type InputError struct {
	Path string // Source path or description of the source
	Err  error  // Underlying error
}

func (e *InputError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("cannot read input: %v", e.Err)
}

// Unwrap reports both the sentinel and the underlying error so errors.Is
// matches either.
func (e *InputError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInput, e.Err}
	}
	return []error{ErrInput}
}

// ParseError represents malformed XML in the document source
type ParseError struct {
	Path    string // Source path, if known
	Message string // Error details from the parser
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse XML at %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse XML: %s", e.Message)
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParse, e.Err}
	}
	return []error{ErrParse}
}

// PathError represents an invalid or unsupported path expression
type PathError struct {
	Expr string // The offending path expression
	Err  error  // Underlying error from the path compiler, if any
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid path expression %q: %v", e.Expr, e.Err)
}

func (e *PathError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrPath, e.Err}
	}
	return []error{ErrPath}
}

// ConfigError represents a conflicting or invalid sort configuration
type ConfigError struct {
	Field   string // Configuration field at fault, if any
	Message string // Human-readable error message
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// Helper functions for creating common errors

// NewInput creates an InputError
func NewInput(path string, err error) *InputError {
	return &InputError{
		Path: path,
		Err:  err,
	}
}

// NewParse creates a ParseError
func NewParse(path, message string, err error) *ParseError {
	return &ParseError{
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// NewPath creates a PathError
func NewPath(expr string, err error) *PathError {
	return &PathError{
		Expr: expr,
		Err:  err,
	}
}

// NewConfig creates a ConfigError
func NewConfig(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

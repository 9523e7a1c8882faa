// Package validation provides input validation for user-supplied sort keys
// and file paths.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Limits on user-supplied values.
const (
	// MaxKeyNameLength is the maximum allowed sort key name length.
	MaxKeyNameLength = 255
	// MaxPathLength is the maximum allowed file path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrEmptyKeyName     = errors.New("sort key name cannot be empty")
	ErrInvalidKeyName   = errors.New("invalid sort key name")
	ErrKeyNameTooLong   = errors.New("sort key name too long")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
)

// ValidateKeyName checks that a sort key name is a plausible attribute or
// element name: a letter or underscore followed by letters, digits, or
// underscores. Surrounding whitespace is tolerated; the trimmed name is
// returned.
func ValidateKeyName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyKeyName
	}
	if len(name) > MaxKeyNameLength {
		return "", ErrKeyNameTooLong
	}

	for i, r := range name {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return "", fmt.Errorf("%w: must start with a letter or underscore: %q", ErrInvalidKeyName, name)
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return "", fmt.Errorf("%w: %q", ErrInvalidKeyName, name)
		}
	}

	return name, nil
}

// ValidatePath performs basic path validation: length limits, null bytes,
// and control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}

	// Check for null bytes
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}

	// Check for control characters
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	return nil
}

// Package nqcerr holds the sentinel errors shared by the internal packages
// and re-exported by the root package.
package nqcerr

import (
	"errors"
	"fmt"
)

var (
	// Container errors
	ErrInvalidContainer = errors.New("invalid container")
	ErrInvalidFormat    = errors.New("invalid format")

	// Field errors
	ErrFieldNotFound = errors.New("field not found")
	ErrOverflow      = errors.New("integer overflow")

	// Operation errors
	ErrOperationFailed = errors.New("operation failed")
	ErrRandomSource    = errors.New("random source failure")
)

func NewFieldNotFoundError(fieldName string, action Action) error {
	return fmt.Errorf("%w: '%s' is required to %s", ErrFieldNotFound, fieldName, action)
}

func NewOverflowError(fieldName string, action Action) error {
	if fieldName == "" {
		return fmt.Errorf("%w: %s result exceeds 64 bits", ErrOverflow, action)
	}
	return fmt.Errorf("%w: %s of field '%s' exceeds 64 bits", ErrOverflow, action, fieldName)
}

func NewInvalidContainerError(details string) error {
	return fmt.Errorf("%w: %s", ErrInvalidContainer, details)
}

func NewInvalidFormatError(formatName string, action Action, details string) error {
	return fmt.Errorf("%w: cannot %s %s data: %s", ErrInvalidFormat, action, formatName, details)
}

func NewOperationFailedError(fieldName string, action Action, details string) error {
	if details != "" {
		return fmt.Errorf("%w: %s operation failed for field '%s': %s",
			ErrOperationFailed, action, fieldName, details)
	}
	return fmt.Errorf("%w: %s operation failed for field '%s'",
		ErrOperationFailed, action, fieldName)
}

func NewRandomSourceError(action Action, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrRandomSource, action, err)
}

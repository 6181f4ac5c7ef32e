package nqcrypt

import (
	"errors"
	"fmt"

	"github.com/hengadev/nqcrypt/internal/nqcerr"
)

var (
	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidField         = errors.New("invalid field")

	// Container errors
	ErrInvalidContainer = nqcerr.ErrInvalidContainer
	ErrInvalidFormat    = nqcerr.ErrInvalidFormat
	ErrFieldNotFound    = nqcerr.ErrFieldNotFound

	// Arithmetic errors
	ErrOverflow = nqcerr.ErrOverflow

	// Operation errors
	ErrRandomSource    = nqcerr.ErrRandomSource
	ErrOperationFailed = nqcerr.ErrOperationFailed

	// Infrastructure errors
	ErrStoreUnavailable     = errors.New("container store unavailable")
	ErrKeySourceUnavailable = errors.New("key source unavailable")
	ErrNotFound             = errors.New("not found")
)

func NewInvalidFieldError(fieldName string, details string) error {
	return fmt.Errorf("%w: '%s': %s", ErrInvalidField, fieldName, details)
}

func NewStoreUnavailableError(store string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, store, err)
}

func NewKeySourceUnavailableError(source string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrKeySourceUnavailable, source, err)
}

func NewNotFoundError(kind, id string) error {
	return fmt.Errorf("%w: %s '%s'", ErrNotFound, kind, id)
}

// IsRetryableError returns true if the error represents a transient failure that might succeed on retry.
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrKeySourceUnavailable)
}

// IsConfigurationError returns true if the error represents a configuration problem.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrInvalidField)
}

// IsContainerError returns true if a container failed validation or decoding.
func IsContainerError(err error) bool {
	return errors.Is(err, ErrInvalidContainer) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrFieldNotFound)
}

// IsOverflowError returns true if a checked additive operation overflowed.
func IsOverflowError(err error) bool {
	return errors.Is(err, ErrOverflow)
}

// IsNotFoundError returns true if a stored container or key does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

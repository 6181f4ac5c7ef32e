package nqcrypt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"Invalid Configuration", ErrInvalidConfiguration},
		{"Invalid Field", ErrInvalidField},
		{"Invalid Container", ErrInvalidContainer},
		{"Invalid Format", ErrInvalidFormat},
		{"Field Not Found", ErrFieldNotFound},
		{"Overflow", ErrOverflow},
		{"Random Source", ErrRandomSource},
		{"Store Unavailable", ErrStoreUnavailable},
		{"Key Source Unavailable", ErrKeySourceUnavailable},
		{"Not Found", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("context: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.err)
		})
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		isRetryable bool
		isConfig    bool
		isContainer bool
		isOverflow  bool
		isNotFound  bool
	}{
		{
			name:        "Store Unavailable",
			err:         NewStoreUnavailableError("sqlite", errors.New("database is locked")),
			isRetryable: true,
		},
		{
			name:        "Key Source Unavailable",
			err:         NewKeySourceUnavailableError("vault", errors.New("connection refused")),
			isRetryable: true,
		},
		{
			name:     "Invalid Configuration",
			err:      fmt.Errorf("test: %w", ErrInvalidConfiguration),
			isConfig: true,
		},
		{
			name:     "Invalid Field",
			err:      NewInvalidFieldError("age", "field name is duplicated"),
			isConfig: true,
		},
		{
			name:        "Invalid Container",
			err:         fmt.Errorf("test: %w", ErrInvalidContainer),
			isContainer: true,
		},
		{
			name:        "Field Not Found",
			err:         fmt.Errorf("test: %w", ErrFieldNotFound),
			isContainer: true,
		},
		{
			name:       "Overflow",
			err:        fmt.Errorf("test: %w", ErrOverflow),
			isOverflow: true,
		},
		{
			name:       "Not Found",
			err:        NewNotFoundError("container", "abc"),
			isNotFound: true,
		},
		{
			name: "Unrelated",
			err:  errors.New("something else"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isRetryable, IsRetryableError(tt.err))
			assert.Equal(t, tt.isConfig, IsConfigurationError(tt.err))
			assert.Equal(t, tt.isContainer, IsContainerError(tt.err))
			assert.Equal(t, tt.isOverflow, IsOverflowError(tt.err))
			assert.Equal(t, tt.isNotFound, IsNotFoundError(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	err := NewStoreUnavailableError("s3", errors.New("timeout"))
	assert.Equal(t, "container store unavailable: s3: timeout", err.Error())

	err = NewNotFoundError("container", "abc")
	assert.Equal(t, "not found: container 'abc'", err.Error())

	err = NewInvalidFieldError("age", "field name is empty")
	assert.Equal(t, "invalid field: 'age': field name is empty", err.Error())
}

package nqcerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAction_String(t *testing.T) {
	assert.Equal(t, "protect", Protect.String())
	assert.Equal(t, "unwrap", Unwrap.String())
	assert.Equal(t, "unknown", Action(99).String())
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{"field not found", NewFieldNotFoundError("balance", Decode), ErrFieldNotFound, "'balance' is required to decode"},
		{"overflow with field", NewOverflowError("balance", Encode), ErrOverflow, "encode of field 'balance'"},
		{"overflow without field", NewOverflowError("", Add), ErrOverflow, "add result"},
		{"invalid container", NewInvalidContainerError("bad salt"), ErrInvalidContainer, "bad salt"},
		{"invalid format", NewInvalidFormatError("binary", Decode, "short header"), ErrInvalidFormat, "cannot decode binary data"},
		{"operation failed", NewOperationFailedError("x", Protect, ""), ErrOperationFailed, "protect operation failed for field 'x'"},
		{"random source", NewRandomSourceError(Wrap, cause), ErrRandomSource, "wrap: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Contains(t, tt.err.Error(), tt.contains)
		})
	}

	assert.ErrorIs(t, NewRandomSourceError(Wrap, cause), cause)
}

package nqcrypt

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStaticKeySource(t *testing.T) {
	ctx := context.Background()
	src := StaticKeySource{1, 2, 3}

	key, err := src.MasterKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, key)

	key[0] = 9
	again, _ := src.MasterKey(ctx)
	assert.Equal(t, byte(1), again[0])

	_, err = StaticKeySource(nil).MasterKey(ctx)
	assert.True(t, IsNotFoundError(err))
}

func TestHexKeySource(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		src      HexKeySource
		want     []byte
		notFound bool
		invalid  bool
	}{
		{name: "plain", src: "00ff10", want: []byte{0x00, 0xff, 0x10}},
		{name: "whitespace", src: "  abcd\n", want: []byte{0xab, 0xcd}},
		{name: "empty", src: "   ", notFound: true},
		{name: "odd length", src: "abc", invalid: true},
		{name: "not hex", src: "zz", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := tt.src.MasterKey(ctx)
			switch {
			case tt.notFound:
				assert.True(t, IsNotFoundError(err))
			case tt.invalid:
				assert.ErrorIs(t, err, ErrInvalidConfiguration)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, key)
			}
		})
	}
}

func TestRetryingKeySource_RetriesUnavailable(t *testing.T) {
	ctx := context.Background()
	unavailable := NewKeySourceUnavailableError("vault", errors.New("connection refused"))

	src := &KeySourceMock{}
	src.On("MasterKey", mock.Anything).Return(nil, unavailable).Twice()
	src.On("MasterKey", mock.Anything).Return([]byte{7, 7}, nil).Once()

	var logs bytes.Buffer
	logger := NewStructuredLogger(LoggerConfig{Output: &logs})

	key, err := NewRetryingKeySource(src, 3, time.Millisecond, logger).MasterKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 7}, key)
	assert.Contains(t, logs.String(), "retrying")
	src.AssertNumberOfCalls(t, "MasterKey", 3)
}

func TestRetryingKeySource_StopsOnPermanentError(t *testing.T) {
	ctx := context.Background()

	src := &KeySourceMock{}
	src.On("MasterKey", mock.Anything).Return(nil, NewNotFoundError("master key", "kv")).Once()

	_, err := NewRetryingKeySource(src, 5, time.Millisecond, nil).MasterKey(ctx)
	assert.True(t, IsNotFoundError(err))
	src.AssertNumberOfCalls(t, "MasterKey", 1)
}

func TestRetryingKeySource_GivesUp(t *testing.T) {
	ctx := context.Background()
	unavailable := NewKeySourceUnavailableError("vault", errors.New("timeout"))

	src := &KeySourceMock{}
	src.On("MasterKey", mock.Anything).Return(nil, unavailable)

	_, err := NewRetryingKeySource(src, 2, time.Millisecond, nil).MasterKey(ctx)
	assert.ErrorIs(t, err, ErrKeySourceUnavailable)
	src.AssertNumberOfCalls(t, "MasterKey", 2)
}

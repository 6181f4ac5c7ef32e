package container

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/hengadev/errsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hengadev/nqcrypt/internal/nqcerr"
	"github.com/hengadev/nqcrypt/internal/streamcipher"
)

func sampleContainer() *Container {
	return &Container{
		Header: Header{
			EncapsulatedKey: bytes.Repeat([]byte{0xab}, 32),
			Salt:            bytes.Repeat([]byte{0x01}, SaltSize),
			DataSize:        5,
			BlockSize:       32,
			FieldNames:      []string{"salary", "age"},
			FeedbackMode:    streamcipher.FeedbackSymmetric,
		},
		EncryptedData: []byte("abcde"),
		HomomorphicData: map[string][]byte{
			"salary": {0, 0, 0, 0, 0, 0, 0x61, 0xa8},
			"age":    {0, 0, 0, 0, 0, 0, 0, 0x2a},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, sampleContainer().Validate())

	empty := sampleContainer()
	empty.Header.DataSize = 0
	empty.EncryptedData = []byte{}
	empty.Header.FieldNames = []string{}
	empty.HomomorphicData = map[string][]byte{}
	assert.NoError(t, empty.Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Container)
		errKeys []string
	}{
		{
			name:    "short salt",
			mutate:  func(c *Container) { c.Header.Salt = c.Header.Salt[:16] },
			errKeys: []string{"salt"},
		},
		{
			name:    "block size zero and too large data size",
			mutate:  func(c *Container) { c.Header.BlockSize = 0; c.Header.DataSize = 6 },
			errKeys: []string{"block_size", "data_size"},
		},
		{
			name:    "missing key and bad mode",
			mutate:  func(c *Container) { c.Header.EncapsulatedKey = nil; c.Header.FeedbackMode = 5 },
			errKeys: []string{"encapsulated_key", "feedback_mode"},
		},
		{
			name:    "field without value",
			mutate:  func(c *Container) { delete(c.HomomorphicData, "age") },
			errKeys: []string{"field 'age'"},
		},
		{
			name:    "wrong value width",
			mutate:  func(c *Container) { c.HomomorphicData["salary"] = []byte{1, 2, 3} },
			errKeys: []string{"field 'salary'"},
		},
		{
			name:    "unlisted value",
			mutate:  func(c *Container) { c.HomomorphicData["bonus"] = make([]byte, 8) },
			errKeys: []string{"field 'bonus'"},
		},
		{
			name:    "duplicate name",
			mutate:  func(c *Container) { c.Header.FieldNames = append(c.Header.FieldNames, "age") },
			errKeys: []string{"field 'age'"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := sampleContainer()
			tt.mutate(c)

			err := c.Validate()
			require.Error(t, err)

			errs, ok := err.(errsx.Map)
			require.True(t, ok, "expected errsx.Map, got %T", err)
			assert.Len(t, errs, len(tt.errKeys))
			for _, key := range tt.errKeys {
				assert.Contains(t, errs, key)
			}
		})
	}
}

func TestBinary_RoundTrip(t *testing.T) {
	original := sampleContainer()

	data, err := original.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte("NQC"), data[:3])
	assert.Equal(t, byte(BinaryVersion), data[3])
	assert.Equal(t, byte(streamcipher.FeedbackSymmetric), data[4])

	var decoded Container
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, original, &decoded)
	assert.Equal(t, []string{"salary", "age"}, decoded.Header.FieldNames)
}

func TestBinary_Deterministic(t *testing.T) {
	a, err := sampleContainer().MarshalBinary()
	require.NoError(t, err)
	b, err := sampleContainer().MarshalBinary()
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestBinary_EmptyPayload(t *testing.T) {
	c := sampleContainer()
	c.Header.DataSize = 0
	c.EncryptedData = []byte{}
	c.Header.FieldNames = []string{}
	c.HomomorphicData = map[string][]byte{}

	data, err := c.MarshalBinary()
	require.NoError(t, err)

	decoded, err := BinaryCodec{}.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), decoded.Header.DataSize)
	assert.Empty(t, decoded.EncryptedData)
	assert.Empty(t, decoded.HomomorphicData)
}

func TestBinary_TruncatedInput(t *testing.T) {
	data, err := sampleContainer().MarshalBinary()
	require.NoError(t, err)

	for n := 0; n < len(data); n++ {
		var c Container
		err := c.UnmarshalBinary(data[:n])
		assert.ErrorIs(t, err, nqcerr.ErrInvalidFormat, "prefix %d", n)
	}
}

func TestBinary_Rejects(t *testing.T) {
	data, err := sampleContainer().MarshalBinary()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"bad magic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"bad version", func(b []byte) []byte { b[3] = 9; return b }},
		{"bad mode", func(b []byte) []byte { b[4] = 9; return b }},
		{"trailing bytes", func(b []byte) []byte { return append(b, 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.mutate(bytes.Clone(data))
			var c Container
			assert.ErrorIs(t, c.UnmarshalBinary(input), nqcerr.ErrInvalidFormat)
		})
	}

	bad := sampleContainer()
	bad.Header.FeedbackMode = 4
	_, err = bad.MarshalBinary()
	assert.ErrorIs(t, err, nqcerr.ErrInvalidFormat)
}

func TestJSON_RoundTrip(t *testing.T) {
	original := sampleContainer()
	codec := JSONCodec{Indent: true}

	data, err := codec.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"feedback_mode": "symmetric"`)
	assert.Contains(t, string(data), `"homomorphic_field_names"`)

	decoded, err := codec.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestJSON_DefaultMode(t *testing.T) {
	c := sampleContainer()
	c.Header.FeedbackMode = streamcipher.FeedbackAsymmetric

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "feedback_mode")

	decoded, err := JSONCodec{}.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, streamcipher.FeedbackAsymmetric, decoded.Header.FeedbackMode)

	_, err = JSONCodec{}.Unmarshal([]byte("{not json"))
	assert.ErrorIs(t, err, nqcerr.ErrInvalidFormat)
}

func TestCodecByName(t *testing.T) {
	for _, name := range []string{"", "binary", "json"} {
		codec, err := CodecByName(name)
		require.NoError(t, err)
		assert.NotEmpty(t, codec.Name())
	}

	_, err := CodecByName("xml")
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	original := sampleContainer()
	clone := original.Clone()
	require.Equal(t, original, clone)

	clone.EncryptedData[0] = 'z'
	clone.HomomorphicData["age"][7] = 0
	clone.Header.FieldNames[0] = "other"

	assert.Equal(t, byte('a'), original.EncryptedData[0])
	assert.Equal(t, byte(0x2a), original.HomomorphicData["age"][7])
	assert.Equal(t, "salary", original.Header.FieldNames[0])

	value, ok := original.Field("salary")
	assert.True(t, ok)
	assert.Len(t, value, EncodedFieldSize)
}

func TestCodecs_NilContainer(t *testing.T) {
	for _, codec := range []Codec{BinaryCodec{}, JSONCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			_, err := codec.Marshal(nil)
			assert.ErrorIs(t, err, nqcerr.ErrInvalidContainer)
		})
	}
}

package additive

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noise999 = []byte{0x00, 0x00, 0x03, 0xe7}

func TestNoise(t *testing.T) {
	tests := []struct {
		name string
		key  []byte
		want uint64
	}{
		{"zero key", make([]byte, 32), 0},
		{"nil key", nil, 0},
		{"999", noise999, 999},
		{"short key padded right", []byte{0x01}, 216},
		{"all ones", []byte{0xff, 0xff, 0xff, 0xff, 0x12}, 295},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Noise(tt.key))
			assert.Equal(t, tt.want, New(tt.key).Noise())
		})
	}
}

func TestEncode_ZeroKeyScenario(t *testing.T) {
	enc := New(make([]byte, 32))

	encoded := enc.Encode(25)
	assert.Equal(t, Encoded{0, 0, 0, 0, 0, 0, 0x61, 0xa8}, encoded)
	assert.Equal(t, uint64(25000), encoded.Uint64())
	assert.Equal(t, int64(25), enc.Decode(encoded))
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 25, -25, 1234567, -987654321, math.MaxInt64 / Factor, -(math.MaxInt64 / Factor)}

	for _, key := range [][]byte{make([]byte, 32), noise999, {0xde, 0xad, 0xbe, 0xef}} {
		enc := New(key)
		for _, v := range values {
			assert.Equal(t, v, enc.Decode(enc.Encode(v)), "value %d noise %d", v, enc.Noise())
		}
	}
}

func TestAdd_CarriesNoiseOnce(t *testing.T) {
	enc := New(noise999)

	sum := Add(enc.Encode(2), enc.Encode(3))
	assert.Equal(t, uint64(2999+3999), sum.Uint64())
	assert.Equal(t, int64(5), enc.Decode(sum))
}

func TestScale_Bias(t *testing.T) {
	tests := []struct {
		name  string
		key   []byte
		value int64
		s     int64
		want  int64
	}{
		{"zero noise is exact", make([]byte, 32), 4, 3, 12},
		{"noise 999 adds bias", noise999, 4, 3, 13},
		{"scale by one", noise999, 7, 1, 7},
		{"scale by zero", noise999, 7, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := New(tt.key)
			assert.Equal(t, tt.want, enc.Decode(Scale(enc.Encode(tt.value), tt.s)))
		})
	}
}

func TestDecode_FloorDivision(t *testing.T) {
	enc := New(make([]byte, 32))

	raw := int64(-1501)
	assert.Equal(t, int64(-2), enc.Decode(FromUint64(uint64(raw))))
	assert.Equal(t, int64(1), enc.Decode(FromUint64(1999)))
}

func TestCheckedOperations(t *testing.T) {
	zero := New(make([]byte, 32))
	noisy := New(noise999)

	_, err := zero.EncodeChecked(math.MaxInt64)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = noisy.EncodeChecked(math.MaxInt64 / Factor)
	assert.ErrorIs(t, err, ErrOverflow)

	got, err := zero.EncodeChecked(math.MaxInt64 / Factor)
	require.NoError(t, err)
	assert.Equal(t, zero.Encode(math.MaxInt64/Factor), got)

	_, err = AddChecked(FromUint64(math.MaxInt64), FromUint64(1))
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, uint64(1)<<63, Add(FromUint64(math.MaxInt64), FromUint64(1)).Uint64())

	sum, err := AddChecked(noisy.Encode(2), noisy.Encode(3))
	require.NoError(t, err)
	assert.Equal(t, Add(noisy.Encode(2), noisy.Encode(3)), sum)

	_, err = ScaleChecked(FromUint64(1<<62), 2)
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, uint64(1)<<63, Scale(FromUint64(1<<62), 2).Uint64())

	_, err = ScaleChecked(FromUint64(uint64(1)<<63), -1)
	assert.ErrorIs(t, err, ErrOverflow)

	product, err := ScaleChecked(noisy.Encode(-4), 3)
	require.NoError(t, err)
	assert.Equal(t, Scale(noisy.Encode(-4), 3), product)
}

func TestFromBytes(t *testing.T) {
	assert.Equal(t, uint64(25000), FromBytes([]byte{0x61, 0xa8}).Uint64())
	assert.Equal(t, uint64(0), FromBytes(nil).Uint64())
	assert.Equal(t, uint64(0x0102030405060708), FromBytes([]byte{0xff, 0xee, 1, 2, 3, 4, 5, 6, 7, 8}).Uint64())

	e := FromUint64(42)
	b := e.Bytes()
	b[7] = 0
	assert.Equal(t, uint64(42), e.Uint64())
}

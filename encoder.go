package nqcrypt

import (
	"fmt"

	"github.com/hengadev/nqcrypt/internal/additive"
)

// Noise returns the additive noise term derived from key.
func Noise(key []byte) uint64 {
	return additive.Noise(key)
}

// EncodeScalar encodes value as BE_uint64(value*1000 + Noise(key)),
// wrapping modulo 2^64.
func EncodeScalar(value int64, key []byte) Encoded {
	return additive.New(key).Encode(value)
}

// EncodeScalarChecked is EncodeScalar but returns ErrOverflow instead of
// wrapping.
func EncodeScalarChecked(value int64, key []byte) (Encoded, error) {
	return additive.New(key).EncodeChecked(value)
}

// DecodeScalar reverses EncodeScalar with floor division.
func DecodeScalar(e Encoded, key []byte) int64 {
	return additive.New(key).Decode(e)
}

// AddEncoded adds two encoded values without decoding them. The result
// carries the noise term twice, and DecodeScalar removes it once.
func AddEncoded(a, b Encoded) Encoded {
	return additive.Add(a, b)
}

// AddEncodedChecked is AddEncoded but returns ErrOverflow on signed overflow.
func AddEncodedChecked(a, b Encoded) (Encoded, error) {
	return additive.AddChecked(a, b)
}

// ScaleEncoded multiplies an encoded value by s without decoding it. The
// noise term is scaled along with the value.
func ScaleEncoded(a Encoded, s int64) Encoded {
	return additive.Scale(a, s)
}

// ScaleEncodedChecked is ScaleEncoded but returns ErrOverflow on signed
// overflow.
func ScaleEncodedChecked(a Encoded, s int64) (Encoded, error) {
	return additive.ScaleChecked(a, s)
}

// EncodedFromBytes converts an 8-byte container field value.
func EncodedFromBytes(b []byte) (Encoded, error) {
	if len(b) != EncodedFieldSize {
		return Encoded{}, fmt.Errorf("%w: encoded value must be %d bytes, got %d", ErrInvalidFormat, EncodedFieldSize, len(b))
	}
	return additive.FromBytes(b), nil
}

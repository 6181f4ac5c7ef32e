// Package additive implements the key-noised integer encoding that supports
// addition and scalar multiplication on encoded values.
//
// An encoded value is BE_uint64(v*Factor + noise) where noise is derived from
// the first four bytes of the key. Add and Scale work on the raw 64-bit
// integers without the key, so the noise term is carried into the result
// once per operand. Decode removes it only once:
//
//	Decode(Add(Encode(a), Encode(b))) == a + b + floor(noise/Factor) == a + b
//	Decode(Scale(Encode(a), s))       == a*s + floor(noise*(s-1)/Factor)
//
// Arithmetic wraps modulo 2^64. The Checked variants report ErrOverflow
// instead when the signed 64-bit result does not fit.
package additive

import (
	"encoding/binary"
	"math"

	"github.com/hengadev/nqcrypt/internal/nqcerr"
)

const (
	// Factor is the fixed-point scale applied before the noise is added.
	Factor = 1000

	// EncodedSize is the width of an encoded value in bytes.
	EncodedSize = 8

	noiseKeyBytes = 4
)

// ErrOverflow is returned by the Checked operations.
var ErrOverflow = nqcerr.ErrOverflow

// Encoded is an 8-byte big-endian encoded scalar.
type Encoded [EncodedSize]byte

// FromUint64 builds an Encoded from its integer form.
func FromUint64(u uint64) Encoded {
	var e Encoded
	binary.BigEndian.PutUint64(e[:], u)
	return e
}

// FromBytes interprets b as a big-endian integer. Inputs shorter than 8
// bytes are left-padded with zeros; longer inputs keep their low 8 bytes.
func FromBytes(b []byte) Encoded {
	var e Encoded
	if len(b) >= EncodedSize {
		copy(e[:], b[len(b)-EncodedSize:])
		return e
	}
	copy(e[EncodedSize-len(b):], b)
	return e
}

// Uint64 returns the integer form.
func (e Encoded) Uint64() uint64 {
	return binary.BigEndian.Uint64(e[:])
}

// Bytes returns the 8 encoded bytes as a new slice.
func (e Encoded) Bytes() []byte {
	out := make([]byte, EncodedSize)
	copy(out, e[:])
	return out
}

// Noise returns BE_uint32(key[0:4]) mod Factor. Keys shorter than four bytes
// are zero-padded on the right.
func Noise(key []byte) uint64 {
	var buf [noiseKeyBytes]byte
	copy(buf[:], key)
	return uint64(binary.BigEndian.Uint32(buf[:])) % Factor
}

// Encoder encodes and decodes with the noise of one key.
type Encoder struct {
	noise uint64
}

// New returns an Encoder for key.
func New(key []byte) Encoder {
	return Encoder{noise: Noise(key)}
}

// Noise returns the encoder's noise term.
func (enc Encoder) Noise() uint64 {
	return enc.noise
}

// Encode returns BE_uint64(v*Factor + noise), wrapping modulo 2^64.
func (enc Encoder) Encode(v int64) Encoded {
	return FromUint64(uint64(v)*Factor + enc.noise)
}

// EncodeChecked is Encode but fails when v*Factor+noise overflows int64.
func (enc Encoder) EncodeChecked(v int64) (Encoded, error) {
	scaled, ok := mulInt64(v, Factor)
	if !ok {
		return Encoded{}, nqcerr.NewOverflowError("", nqcerr.Encode)
	}
	sum, ok := addInt64(scaled, int64(enc.noise))
	if !ok {
		return Encoded{}, nqcerr.NewOverflowError("", nqcerr.Encode)
	}
	return FromUint64(uint64(sum)), nil
}

// Decode returns floor((int64(e) - noise) / Factor).
func (enc Encoder) Decode(e Encoded) int64 {
	return floorDiv(int64(e.Uint64()-enc.noise), Factor)
}

// Add returns the wrapping sum of the two encoded integers.
func Add(a, b Encoded) Encoded {
	return FromUint64(a.Uint64() + b.Uint64())
}

// AddChecked is Add but fails on signed 64-bit overflow.
func AddChecked(a, b Encoded) (Encoded, error) {
	sum, ok := addInt64(int64(a.Uint64()), int64(b.Uint64()))
	if !ok {
		return Encoded{}, nqcerr.NewOverflowError("", nqcerr.Add)
	}
	return FromUint64(uint64(sum)), nil
}

// Scale returns the wrapping product of the encoded integer and s.
func Scale(a Encoded, s int64) Encoded {
	return FromUint64(a.Uint64() * uint64(s))
}

// ScaleChecked is Scale but fails on signed 64-bit overflow.
func ScaleChecked(a Encoded, s int64) (Encoded, error) {
	product, ok := mulInt64(int64(a.Uint64()), s)
	if !ok {
		return Encoded{}, nqcerr.NewOverflowError("", nqcerr.Scale)
	}
	return FromUint64(uint64(product)), nil
}

func addInt64(a, b int64) (int64, bool) {
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		return 0, false
	}
	return sum, true
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	product := a * b
	if product/b != a {
		return 0, false
	}
	return product, true
}

func floorDiv(n, d int64) int64 {
	q := n / d
	if n%d != 0 && (n < 0) != (d < 0) {
		q--
	}
	return q
}

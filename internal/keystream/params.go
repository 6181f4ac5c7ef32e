package keystream

import (
	"encoding/binary"
	"math/rand/v2"
)

const (
	// InputSize is the width of a normalized data block.
	InputSize = 32
	// FeedbackSize is the width of the feedback taken from the previous block.
	FeedbackSize = 16
	// HiddenSize is the width of the two hidden transform stages.
	HiddenSize = 64
	// OutputSize is the number of keystream bytes produced per block.
	OutputSize = 32

	// SeedSize is the number of leading key bytes used as the parameter seed.
	SeedSize = 8
)

// layer is a dense weighted-sum stage: out[i] = bias[i] + sum_j weights[i][j] * in[j].
type layer struct {
	weights [][]float64
	bias    []float64
}

func newLayer(r *rand.Rand, in, out int) layer {
	l := layer{
		weights: make([][]float64, out),
		bias:    make([]float64, out),
	}
	for i := range l.weights {
		row := make([]float64, in)
		for j := range row {
			row[j] = uniform(r)
		}
		l.weights[i] = row
	}
	for i := range l.bias {
		l.bias[i] = uniform(r)
	}
	return l
}

func (l layer) apply(in []float64, activation func(float64) float64) []float64 {
	out := make([]float64, len(l.weights))
	for i, row := range l.weights {
		sum := l.bias[i]
		for j, w := range row {
			sum += w * in[j]
		}
		if activation != nil {
			sum = activation(sum)
		}
		out[i] = sum
	}
	return out
}

// DerivedParameters is the immutable coefficient set of a Generator.
//
// Coefficients are drawn in a fixed order (hidden1, hidden2, output, then the
// feedback projection) so two parameter sets built from the same seed are
// bit-identical.
type DerivedParameters struct {
	seed       uint64
	hidden1    layer
	hidden2    layer
	output     layer
	projection layer
}

// NewDerivedParameters draws every coefficient uniformly from [-1, 1] using a
// generator seeded with seed. The generator instance is local to this call.
func NewDerivedParameters(seed uint64) DerivedParameters {
	r := rand.New(rand.NewPCG(seed, 0))

	return DerivedParameters{
		seed:       seed,
		hidden1:    newLayer(r, InputSize, HiddenSize),
		hidden2:    newLayer(r, HiddenSize, HiddenSize),
		output:     newLayer(r, HiddenSize, OutputSize),
		projection: newLayer(r, InputSize+FeedbackSize, InputSize),
	}
}

// Seed returns the seed the parameters were drawn from.
func (p DerivedParameters) Seed() uint64 {
	return p.seed
}

// SeedFromKey interprets the first 8 bytes of key as a big-endian unsigned
// integer. Shorter keys are zero-padded on the right.
func SeedFromKey(key []byte) uint64 {
	var buf [SeedSize]byte
	copy(buf[:], key)
	return binary.BigEndian.Uint64(buf[:])
}

func uniform(r *rand.Rand) float64 {
	return r.Float64()*2 - 1
}

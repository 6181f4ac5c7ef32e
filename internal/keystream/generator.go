package keystream

import "math"

// Generator maps a data block and optional feedback to a pseudorandom
// keystream block. It holds no mutable state and is safe for concurrent use.
type Generator struct {
	params DerivedParameters
}

// New builds a Generator whose parameters are seeded from key[0:8].
func New(key []byte) *Generator {
	return &Generator{params: NewDerivedParameters(SeedFromKey(key))}
}

// NewFromParameters builds a Generator around an existing parameter set.
func NewFromParameters(params DerivedParameters) *Generator {
	return &Generator{params: params}
}

// Parameters returns the generator's parameter set.
func (g *Generator) Parameters() DerivedParameters {
	return g.params
}

// Generate returns the keystream for block truncated to min(len(block), 32)
// bytes. A nil feedback means no feedback; any non-nil feedback, including an
// empty one, is zero-padded or truncated to 16 bytes and mixed in.
func (g *Generator) Generate(block, feedback []byte) []byte {
	n := min(len(block), OutputSize)
	if n == 0 {
		return []byte{}
	}

	full := g.GenerateBlock(block, feedback)
	out := make([]byte, n)
	copy(out, full[:n])
	return out
}

// GenerateBlock returns the full 32-byte keystream for block.
func (g *Generator) GenerateBlock(block, feedback []byte) [OutputSize]byte {
	x := normalize(block, InputSize)

	if feedback != nil {
		joined := make([]float64, 0, InputSize+FeedbackSize)
		joined = append(joined, x...)
		joined = append(joined, normalize(feedback, FeedbackSize)...)
		x = g.params.projection.apply(joined, nil)
	}

	h := g.params.hidden1.apply(x, math.Tanh)
	h = g.params.hidden2.apply(h, math.Tanh)
	y := g.params.output.apply(h, sigmoid)

	var out [OutputSize]byte
	for i, v := range y {
		out[i] = toByte(v)
	}
	return out
}

// normalize zero-pads or truncates b to width bytes and scales each byte to [0,1].
func normalize(b []byte, width int) []float64 {
	out := make([]float64, width)
	for i := 0; i < width && i < len(b); i++ {
		out[i] = float64(b[i]) / 255.0
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// toByte scales an activation in [0,1] to a byte, truncating toward zero.
func toByte(v float64) byte {
	scaled := v * 255
	switch {
	case scaled <= 0 || math.IsNaN(scaled):
		return 0
	case scaled >= 255:
		return 255
	}
	return byte(scaled)
}

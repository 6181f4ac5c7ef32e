// Package streamcipher chains a keystream.Generator across fixed-size blocks
// and XORs the payload with the generated keystream.
package streamcipher

import (
	"fmt"

	"github.com/hengadev/nqcrypt/internal/keystream"
)

// DefaultBlockSize is the block size used by the pipeline.
const DefaultBlockSize = 32

// FeedbackMode selects how chaining state advances between blocks.
type FeedbackMode uint8

const (
	// FeedbackAsymmetric generates each keystream from the block being
	// processed. Encrypt feeds back the first 16 bytes of the generated
	// keystream; Decrypt feeds back the first 16 bytes of the ciphertext block
	// it just consumed. Decrypt(Encrypt(p)) generally differs from p.
	FeedbackAsymmetric FeedbackMode = iota
	// FeedbackSymmetric generates each keystream from the previous full
	// keystream block (32 zero bytes for the first block) with the first 16
	// bytes of it as feedback. Both directions walk the same chain, so
	// Decrypt(Encrypt(p)) == p.
	FeedbackSymmetric
)

func (m FeedbackMode) String() string {
	switch m {
	case FeedbackAsymmetric:
		return "asymmetric"
	case FeedbackSymmetric:
		return "symmetric"
	default:
		return fmt.Sprintf("FeedbackMode(%d)", uint8(m))
	}
}

// ParseFeedbackMode parses the names returned by FeedbackMode.String.
func ParseFeedbackMode(s string) (FeedbackMode, error) {
	switch s {
	case "", "asymmetric":
		return FeedbackAsymmetric, nil
	case "symmetric":
		return FeedbackSymmetric, nil
	default:
		return 0, fmt.Errorf("unknown feedback mode %q", s)
	}
}

// Valid reports whether m is a known mode.
func (m FeedbackMode) Valid() bool {
	return m == FeedbackAsymmetric || m == FeedbackSymmetric
}

func (m FeedbackMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("unknown feedback mode %d", uint8(m))
	}
	return []byte(m.String()), nil
}

func (m *FeedbackMode) UnmarshalText(text []byte) error {
	mode, err := ParseFeedbackMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Cipher is a stateless block-chaining stream cipher. All chaining state
// lives in a per-call chain, so a Cipher may be shared between goroutines.
type Cipher struct {
	gen       *keystream.Generator
	blockSize int
	mode      FeedbackMode
}

// Option configures a Cipher.
type Option func(*Cipher)

// WithBlockSize sets the chaining block size. Values outside [1, 32] are
// ignored.
func WithBlockSize(size int) Option {
	return func(c *Cipher) {
		if size >= 1 && size <= keystream.InputSize {
			c.blockSize = size
		}
	}
}

// WithFeedbackMode selects the feedback rule.
func WithFeedbackMode(mode FeedbackMode) Option {
	return func(c *Cipher) {
		c.mode = mode
	}
}

// New creates a Cipher around gen.
func New(gen *keystream.Generator, opts ...Option) *Cipher {
	c := &Cipher{
		gen:       gen,
		blockSize: DefaultBlockSize,
		mode:      FeedbackAsymmetric,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromKey creates a Cipher with a Generator seeded from key.
func NewFromKey(key []byte, opts ...Option) *Cipher {
	return New(keystream.New(key), opts...)
}

// BlockSize returns the chaining block size.
func (c *Cipher) BlockSize() int {
	return c.blockSize
}

// Mode returns the feedback rule.
func (c *Cipher) Mode() FeedbackMode {
	return c.mode
}

// Encrypt returns the ciphertext for plaintext. The output has the same
// length as the input; the final block is not padded.
func (c *Cipher) Encrypt(plaintext []byte) []byte {
	return c.process(plaintext, false)
}

// Decrypt returns the plaintext for ciphertext using the decrypt-side
// feedback rule of the configured mode.
func (c *Cipher) Decrypt(ciphertext []byte) []byte {
	return c.process(ciphertext, true)
}

func (c *Cipher) process(in []byte, decrypt bool) []byte {
	out := make([]byte, len(in))
	ch := c.newChain(decrypt)

	for start := 0; start < len(in); start += c.blockSize {
		end := min(start+c.blockSize, len(in))
		ch.next(out[start:end], in[start:end])
	}
	return out
}

// chain carries the feedback state of one streaming pass.
type chain struct {
	gen     *keystream.Generator
	mode    FeedbackMode
	decrypt bool

	feedback []byte
	state    [keystream.OutputSize]byte
}

func (c *Cipher) newChain(decrypt bool) *chain {
	return &chain{gen: c.gen, mode: c.mode, decrypt: decrypt}
}

// next XORs one block into dst and advances the feedback state.
func (ch *chain) next(dst, block []byte) {
	var ks [keystream.OutputSize]byte

	if ch.mode == FeedbackSymmetric {
		ks = ch.gen.GenerateBlock(ch.state[:], ch.feedback)
	} else {
		ks = ch.gen.GenerateBlock(block, ch.feedback)
	}

	n := min(len(block), len(ks))
	for i := 0; i < n; i++ {
		dst[i] = block[i] ^ ks[i]
	}

	switch {
	case ch.mode == FeedbackSymmetric:
		ch.state = ks
		ch.feedback = head(ks[:], keystream.FeedbackSize)
	case ch.decrypt:
		ch.feedback = head(block, keystream.FeedbackSize)
	default:
		ch.feedback = head(ks[:], keystream.FeedbackSize)
	}
}

func head(b []byte, n int) []byte {
	n = min(n, len(b))
	out := make([]byte, n)
	copy(out, b[:n])
	return out
}

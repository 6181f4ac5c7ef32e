package nqcrypt

import (
	"fmt"

	"github.com/hengadev/nqcrypt/internal/additive"
	"github.com/hengadev/nqcrypt/internal/container"
	"github.com/hengadev/nqcrypt/internal/kem"
	"github.com/hengadev/nqcrypt/internal/streamcipher"
)

type (
	// Container is the unit exchanged between Protect and Recover.
	Container = container.Container
	// Header describes how a Container was produced.
	Header = container.Header
	// Codec converts containers to and from bytes.
	Codec = container.Codec

	BinaryCodec = container.BinaryCodec
	JSONCodec   = container.JSONCodec

	// Encoded is an 8-byte additive-encoded scalar.
	Encoded = additive.Encoded

	// DerivedKey is the tagged result of key unwrapping.
	DerivedKey = kem.DerivedKey

	// FeedbackMode selects the inter-block feedback rule.
	FeedbackMode = streamcipher.FeedbackMode
)

const (
	FeedbackAsymmetric = streamcipher.FeedbackAsymmetric
	FeedbackSymmetric  = streamcipher.FeedbackSymmetric
)

// ParseFeedbackMode parses "asymmetric" or "symmetric". The empty string
// selects asymmetric.
func ParseFeedbackMode(s string) (FeedbackMode, error) {
	mode, err := streamcipher.ParseFeedbackMode(s)
	if err != nil {
		return mode, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return mode, nil
}

// CodecByName returns the "binary" or "json" codec.
func CodecByName(name string) (Codec, error) {
	codec, err := container.CodecByName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return codec, nil
}

// Field is a named integer to encode alongside the payload.
type Field struct {
	Name  string
	Value int64
}

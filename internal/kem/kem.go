// Package kem wraps a master key into an encapsulated key and salt with
// HKDF-SHA256 and defines the re-derivation used on the recovery path.
//
// HKDF is one-way: Unwrap re-derives from the encapsulated bytes and does not
// return the original master key. The distinct OriginalKey, EncapsulatedKey
// and DerivedKey types keep that visible at call sites.
package kem

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// SaltSize is the length of the random salt drawn by Wrap.
	SaltSize = 32

	// Info is the HKDF info label.
	Info = "pqc_encryption"
)

// OriginalKey is a caller-held master key.
type OriginalKey []byte

// EncapsulatedKey is the HKDF output stored in a container header.
type EncapsulatedKey []byte

// Salt is the random salt stored next to an EncapsulatedKey.
type Salt []byte

// DerivedKey is the result of Unwrap. It is either a re-derivation of the
// encapsulated bytes or, when derivation failed, the caller's fallback key.
type DerivedKey struct {
	key      []byte
	fallback bool
}

// Bytes returns a copy of the key material.
func (d DerivedKey) Bytes() []byte {
	out := make([]byte, len(d.key))
	copy(out, d.key)
	return out
}

// Len returns the key length.
func (d DerivedKey) Len() int {
	return len(d.key)
}

// FromFallback reports whether derivation failed and the fallback key was
// substituted.
func (d DerivedKey) FromFallback() bool {
	return d.fallback
}

// Encapsulator performs Wrap and Unwrap. The zero value is not usable; use New.
type Encapsulator struct {
	random io.Reader
	info   []byte
}

// Option configures an Encapsulator.
type Option func(*Encapsulator)

// WithRandom overrides the salt source. Intended for tests.
func WithRandom(r io.Reader) Option {
	return func(e *Encapsulator) {
		if r != nil {
			e.random = r
		}
	}
}

// New creates an Encapsulator drawing salts from crypto/rand.
func New(opts ...Option) *Encapsulator {
	e := &Encapsulator{
		random: rand.Reader,
		info:   []byte(Info),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Wrap draws a fresh salt and derives an encapsulated key of len(key) bytes.
func (e *Encapsulator) Wrap(key OriginalKey) (EncapsulatedKey, Salt, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(e.random, salt); err != nil {
		return nil, nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	encapsulated, err := derive(key, salt, e.info, len(key))
	if err != nil {
		return nil, nil, err
	}
	return EncapsulatedKey(encapsulated), Salt(salt), nil
}

// Unwrap re-derives len(encapsulated) bytes from encapsulated with salt. If
// the derivation fails, fallback is returned unchanged and tagged as such.
func (e *Encapsulator) Unwrap(encapsulated EncapsulatedKey, fallback OriginalKey, salt Salt) DerivedKey {
	key, err := derive(encapsulated, salt, e.info, len(encapsulated))
	if err != nil {
		out := make([]byte, len(fallback))
		copy(out, fallback)
		return DerivedKey{key: out, fallback: true}
	}
	return DerivedKey{key: key}
}

// derive runs HKDF-SHA256 over secret.
func derive(secret, salt, info []byte, length int) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, salt, info)
	key := make([]byte, length)

	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// Package container defines the unit exchanged between protect and recover
// and its wire encodings.
package container

import (
	"maps"
	"slices"

	"github.com/hengadev/nqcrypt/internal/streamcipher"
)

const (
	// SaltSize is the required salt length.
	SaltSize = 32

	// MaxBlockSize is the largest block size a keystream block can cover.
	MaxBlockSize = 32

	// EncodedFieldSize is the width of every homomorphic field value.
	EncodedFieldSize = 8
)

// Header describes how the payload and fields of a Container were produced.
type Header struct {
	EncapsulatedKey []byte                    `json:"encapsulated_key"`
	Salt            []byte                    `json:"salt"`
	DataSize        uint64                    `json:"data_size"`
	BlockSize       uint32                    `json:"block_size"`
	FieldNames      []string                  `json:"homomorphic_field_names"`
	FeedbackMode    streamcipher.FeedbackMode `json:"feedback_mode,omitempty"`
}

// Container is a protected payload plus its encoded fields.
type Container struct {
	Header          Header            `json:"header"`
	EncryptedData   []byte            `json:"encrypted_data"`
	HomomorphicData map[string][]byte `json:"homomorphic_data"`
}

// Field returns the encoded bytes of name.
func (c *Container) Field(name string) ([]byte, bool) {
	value, ok := c.HomomorphicData[name]
	return value, ok
}

// Clone returns a deep copy of c.
func (c *Container) Clone() *Container {
	out := &Container{
		Header: Header{
			EncapsulatedKey: slices.Clone(c.Header.EncapsulatedKey),
			Salt:            slices.Clone(c.Header.Salt),
			DataSize:        c.Header.DataSize,
			BlockSize:       c.Header.BlockSize,
			FieldNames:      slices.Clone(c.Header.FieldNames),
			FeedbackMode:    c.Header.FeedbackMode,
		},
		EncryptedData: slices.Clone(c.EncryptedData),
	}
	if c.HomomorphicData != nil {
		out.HomomorphicData = make(map[string][]byte, len(c.HomomorphicData))
		for name, value := range c.HomomorphicData {
			out.HomomorphicData[name] = slices.Clone(value)
		}
	}
	return out
}

// sortedFieldKeys returns the keys of HomomorphicData in lexical order.
func (c *Container) sortedFieldKeys() []string {
	return slices.Sorted(maps.Keys(c.HomomorphicData))
}

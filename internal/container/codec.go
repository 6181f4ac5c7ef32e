package container

import (
	"encoding/json"
	"fmt"

	"github.com/hengadev/nqcrypt/internal/nqcerr"
)

// Codec converts containers to and from bytes for storage or transport.
type Codec interface {
	// Name identifies the codec in configuration and CLI flags.
	Name() string
	Marshal(c *Container) ([]byte, error)
	Unmarshal(data []byte) (*Container, error)
}

// BinaryCodec uses the compact length-prefixed binary format.
type BinaryCodec struct{}

func (BinaryCodec) Name() string { return "binary" }

func (BinaryCodec) Marshal(c *Container) ([]byte, error) {
	if c == nil {
		return nil, nqcerr.NewInvalidContainerError("container is nil")
	}
	return c.MarshalBinary()
}

func (BinaryCodec) Unmarshal(data []byte) (*Container, error) {
	var c Container
	if err := c.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return &c, nil
}

// JSONCodec uses encoding/json with base64 byte fields. It is larger than
// the binary format but readable and easy to exchange with other tools.
type JSONCodec struct {
	Indent bool
}

func (JSONCodec) Name() string { return "json" }

func (j JSONCodec) Marshal(c *Container) ([]byte, error) {
	if c == nil {
		return nil, nqcerr.NewInvalidContainerError("container is nil")
	}
	if j.Indent {
		return json.MarshalIndent(c, "", "  ")
	}
	return json.Marshal(c)
}

func (JSONCodec) Unmarshal(data []byte) (*Container, error) {
	var c Container
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, nqcerr.NewInvalidFormatError("json", nqcerr.Decode, err.Error())
	}
	if c.HomomorphicData == nil {
		c.HomomorphicData = map[string][]byte{}
	}
	if c.Header.FieldNames == nil {
		c.Header.FieldNames = []string{}
	}
	return &c, nil
}

// CodecByName returns the codec registered under name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "binary":
		return BinaryCodec{}, nil
	case "json":
		return JSONCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown container codec %q", name)
	}
}

package container

import (
	"fmt"

	"github.com/hengadev/errsx"
)

// Validate checks the structural invariants of c. The returned error is an
// errsx.Map keyed by the offending part.
func (c *Container) Validate() error {
	errs := errsx.Map{}

	if len(c.Header.EncapsulatedKey) == 0 {
		errs.Set("encapsulated_key", "encapsulated key is empty")
	}

	if len(c.Header.Salt) != SaltSize {
		errs.Set("salt", fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(c.Header.Salt)))
	}

	if c.Header.BlockSize < 1 || c.Header.BlockSize > MaxBlockSize {
		errs.Set("block_size", fmt.Errorf("block size must be between 1 and %d, got %d", MaxBlockSize, c.Header.BlockSize))
	}

	if !c.Header.FeedbackMode.Valid() {
		errs.Set("feedback_mode", fmt.Errorf("unknown feedback mode %s", c.Header.FeedbackMode))
	}

	if uint64(len(c.EncryptedData)) < c.Header.DataSize {
		errs.Set("data_size", fmt.Errorf("data size %d exceeds encrypted data length %d", c.Header.DataSize, len(c.EncryptedData)))
	}

	seen := make(map[string]struct{}, len(c.Header.FieldNames))
	for _, name := range c.Header.FieldNames {
		key := fmt.Sprintf("field '%s'", name)
		if _, dup := seen[name]; dup {
			errs.Set(key, "field name listed more than once")
			continue
		}
		seen[name] = struct{}{}

		value, ok := c.HomomorphicData[name]
		switch {
		case !ok:
			errs.Set(key, "field listed in header has no encoded value")
		case len(value) != EncodedFieldSize:
			errs.Set(key, fmt.Errorf("encoded value must be %d bytes, got %d", EncodedFieldSize, len(value)))
		}
	}

	for name := range c.HomomorphicData {
		if _, ok := seen[name]; !ok {
			errs.Set(fmt.Sprintf("field '%s'", name), "encoded value not listed in header")
		}
	}

	return errs.AsError()
}

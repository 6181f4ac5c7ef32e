package nqcrypt

import "context"

// KeySource supplies the master key a Pipeline is built from.
//
// Implementations:
//   - StaticKeySource: a key held in memory
//   - HexKeySource: a hex string, typically from NQC_MASTER_KEY
//   - github.com/hengadev/nqcrypt/providers/keys/hashicorp.KVKeySource: Vault KV v2
//
// Example usage:
//
//	src := nqcrypt.HexKeySource(os.Getenv(nqcrypt.EnvMasterKey))
//	key, err := src.MasterKey(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p, err := nqcrypt.New(key)
type KeySource interface {
	// MasterKey returns the master key bytes.
	//
	// Returns:
	//   - The key, never shared with the source's internal state
	//   - ErrKeySourceUnavailable if the backend cannot be reached
	//   - ErrNotFound if no key is stored
	MasterKey(ctx context.Context) ([]byte, error)
}

// ContainerStore persists protected containers.
//
// Implementations:
//   - MemoryStore: in-process map, for tests and the CLI default
//   - github.com/hengadev/nqcrypt/providers/store/sqlite.Store
//   - github.com/hengadev/nqcrypt/providers/store/s3.Store
//
// Every implementation assigns a new UUID on Save and returns ErrNotFound
// from Load and Delete for unknown IDs.
type ContainerStore interface {
	// Save stores c and returns its new ID.
	Save(ctx context.Context, c *Container) (string, error)

	// Load returns the container stored under id.
	Load(ctx context.Context, id string) (*Container, error)

	// Delete removes the container stored under id.
	Delete(ctx context.Context, id string) error
}

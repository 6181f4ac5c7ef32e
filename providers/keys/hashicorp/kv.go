package hashicorp

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/hashicorp/vault/api"

	"github.com/hengadev/nqcrypt"
)

// KVKeySource implements nqcrypt.KeySource on a Vault KV v2 secret.
type KVKeySource struct {
	client *api.Client
	mount  string
	path   string
}

var _ nqcrypt.KeySource = (*KVKeySource)(nil)

// NewKVKeySource creates a key source for the secret at path under the KV v2
// mount, using a Vault client configured from the environment.
func NewKVKeySource(mount, path string) (*KVKeySource, error) {
	client, err := newVaultClient()
	if err != nil {
		return nil, err
	}
	return NewKVKeySourceWithClient(client, mount, path)
}

// NewKVKeySourceWithClient is NewKVKeySource with a caller-supplied client.
func NewKVKeySourceWithClient(client *api.Client, mount, path string) (*KVKeySource, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: vault client cannot be nil", nqcrypt.ErrInvalidConfiguration)
	}

	mount = strings.Trim(strings.TrimSpace(mount), "/")
	if mount == "" {
		mount = nqcrypt.DefaultVaultMount
	}
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return nil, fmt.Errorf("%w: vault secret path is required", nqcrypt.ErrInvalidConfiguration)
	}

	return &KVKeySource{client: client, mount: mount, path: path}, nil
}

// StoragePath returns the KV v2 API path, e.g. "secret/data/nqcrypt/master".
func (k *KVKeySource) StoragePath() string {
	return k.mount + "/data/" + k.path
}

// MasterKey reads and decodes the stored key.
func (k *KVKeySource) MasterKey(ctx context.Context) ([]byte, error) {
	secret, err := k.client.Logical().ReadWithContext(ctx, k.StoragePath())
	if err != nil {
		return nil, nqcrypt.NewKeySourceUnavailableError("vault", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, nqcrypt.NewNotFoundError("master key", k.StoragePath())
	}

	// KV v2 wraps the actual data in a "data" key; deleted versions have it nil.
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, nqcrypt.NewNotFoundError("master key", k.StoragePath())
	}

	encoded, ok := data["value"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: vault secret %s has no string 'value' field",
			nqcrypt.ErrInvalidFormat, k.StoragePath())
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: vault secret %s is not base64: %w",
			nqcrypt.ErrInvalidFormat, k.StoragePath(), err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: vault secret %s holds an empty key",
			nqcrypt.ErrInvalidFormat, k.StoragePath())
	}

	return key, nil
}

// StoreMasterKey writes key as a new version of the secret.
func (k *KVKeySource) StoreMasterKey(ctx context.Context, key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: master key cannot be empty", nqcrypt.ErrInvalidConfiguration)
	}

	data := map[string]interface{}{
		"data": map[string]interface{}{
			"value": base64.StdEncoding.EncodeToString(key),
		},
	}

	if _, err := k.client.Logical().WriteWithContext(ctx, k.StoragePath(), data); err != nil {
		return nqcrypt.NewKeySourceUnavailableError("vault", err)
	}
	return nil
}

// Exists reports whether a key is stored at the path.
func (k *KVKeySource) Exists(ctx context.Context) (bool, error) {
	_, err := k.MasterKey(ctx)
	switch {
	case err == nil:
		return true, nil
	case nqcrypt.IsNotFoundError(err):
		return false, nil
	default:
		return false, err
	}
}

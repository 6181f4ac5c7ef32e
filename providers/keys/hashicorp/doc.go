// Package hashicorp provides a HashiCorp Vault KV v2 key source for nqcrypt.
//
// The master key is stored base64-encoded under the "value" field of a KV v2
// secret, following Vault's usual layout:
//
//	vault kv put secret/nqcrypt/master value=$(head -c 32 /dev/urandom | base64)
//
// # Basic Usage
//
//	import (
//	    "github.com/hengadev/nqcrypt"
//	    vaultkeys "github.com/hengadev/nqcrypt/providers/keys/hashicorp"
//	)
//
//	src, err := vaultkeys.NewKVKeySource("secret", "nqcrypt/master")
//	if err != nil {
//	    // handle error
//	}
//
//	p, err := nqcrypt.NewPipelineFromKeySource(ctx, src)
//
// # Configuration
//
// The Vault client is configured from the environment:
//
//   - VAULT_ADDR: Vault server address (required)
//   - VAULT_NAMESPACE: namespace for HCP Vault (optional)
//   - VAULT_TOKEN: token authentication
//   - VAULT_ROLE_ID / VAULT_SECRET_ID: AppRole authentication
//
// VAULT_TOKEN takes precedence over AppRole when both are set.
//
// # Required Policy
//
//	path "secret/data/nqcrypt/*" {
//	  capabilities = ["create", "read", "update"]
//	}
package hashicorp

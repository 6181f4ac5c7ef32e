package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hengadev/nqcrypt"
	vaultkeys "github.com/hengadev/nqcrypt/providers/keys/hashicorp"
)

func newKeygenCommand(a *app) *cobra.Command {
	var (
		toVault bool
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a random master key",
		Long: `Generate a 32-byte master key and print it as hex.
With --vault the key is written to the configured Vault KV path instead.`,
		Example: `  nqcrypt keygen > master.key
  NQC_VAULT_PATH=nqcrypt/master nqcrypt keygen --vault`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := nqcrypt.GenerateMasterKey(nil)
			if err != nil {
				return err
			}

			if !toVault {
				_, err = fmt.Fprintln(a.stdout, hex.EncodeToString(key))
				return err
			}

			if a.cfg.Vault.Path == "" {
				return fmt.Errorf("%w: --vault needs vault.path or %s",
					nqcrypt.ErrInvalidConfiguration, nqcrypt.EnvVaultPath)
			}
			src, err := vaultkeys.NewKVKeySource(a.cfg.Vault.Mount, a.cfg.Vault.Path)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if !force {
				exists, err := src.Exists(ctx)
				if err != nil {
					return err
				}
				if exists {
					return fmt.Errorf("master key already exists at %s (use --force to replace it)", src.StoragePath())
				}
			}
			if err := src.StoreMasterKey(ctx, key); err != nil {
				return err
			}

			a.logger.WithContext(ctx).Info("master key stored", "path", src.StoragePath())
			_, err = fmt.Fprintf(a.stdout, "Master key stored at %s\n", src.StoragePath())
			return err
		},
	}

	cmd.Flags().BoolVar(&toVault, "vault", false, "Store the key in Vault KV instead of printing it")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing key in Vault")

	return cmd
}

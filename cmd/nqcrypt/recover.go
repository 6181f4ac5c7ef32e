package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hengadev/nqcrypt"
)

func newRecoverCommand(a *app) *cobra.Command {
	var (
		in          string
		id          string
		out         string
		direct      bool
		fallbackHex string
	)

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Decrypt a container's payload",
		Long: `Decrypt the payload of a container read from a file or the configured store.

By default the key is unwrapped from the container header, which re-derives
rather than inverts the wrapping, so the output generally differs from the
protected payload. --direct decrypts with the master key itself; with
symmetric feedback that reproduces the payload exactly.`,
		Example: `  nqcrypt recover --in report.nqc --direct --out report.txt
  NQC_STORE_DRIVER=sqlite nqcrypt recover --id 6f1c0e52-...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var fallback []byte
			if fallbackHex != "" {
				key, err := hex.DecodeString(strings.TrimSpace(fallbackHex))
				if err != nil {
					return fmt.Errorf("%w: fallback key must be hex encoded", nqcrypt.ErrInvalidConfiguration)
				}
				fallback = key
			}

			ctx := cmd.Context()
			c, err := a.loadContainer(cmd, in, id)
			if err != nil {
				return err
			}

			p, err := a.pipeline(ctx)
			if err != nil {
				return err
			}

			var plaintext []byte
			if direct {
				plaintext, err = p.RecoverWithMasterKey(ctx, c)
			} else {
				plaintext, err = p.Recover(ctx, c, fallback)
			}
			if err != nil {
				return err
			}
			return a.writeOutput(out, plaintext)
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "-", "Container file (- for stdin)")
	cmd.Flags().StringVar(&id, "id", "", "Load the container from the configured store")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Plaintext file (- for stdout)")
	cmd.Flags().BoolVar(&direct, "direct", false, "Decrypt with the master key instead of the unwrapped key")
	cmd.Flags().StringVar(&fallbackHex, "fallback-key", "", "Hex key used when unwrapping fails (default: master key)")
	cmd.MarkFlagsMutuallyExclusive("in", "id")
	cmd.MarkFlagsMutuallyExclusive("direct", "fallback-key")

	return cmd
}

// loadContainer reads a container from the store when id is set, otherwise
// from the file at in.
func (a *app) loadContainer(cmd *cobra.Command, in, id string) (*nqcrypt.Container, error) {
	if id == "" {
		return a.readContainer(in)
	}

	ctx := cmd.Context()
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	return store.Load(ctx, id)
}

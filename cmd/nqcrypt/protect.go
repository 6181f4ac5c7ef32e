package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hengadev/nqcrypt"
)

func newProtectCommand(a *app) *cobra.Command {
	var (
		in     string
		out    string
		fields []string
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "protect",
		Short: "Encrypt a payload and encode integer fields",
		Example: `  nqcrypt protect --in report.txt --out report.nqc --field age=25 --field salary=5000
  echo -n secret | nqcrypt protect --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := parseFields(fields)
			if err != nil {
				return err
			}

			payload, err := a.readInput(in)
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}

			ctx := cmd.Context()
			p, err := a.pipeline(ctx)
			if err != nil {
				return err
			}

			c, err := p.ProtectFields(ctx, payload, parsed)
			if err != nil {
				return err
			}

			if !save {
				return a.writeContainer(out, c)
			}

			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			id, err := store.Save(ctx, c)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, id)
			return err
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "-", "Payload file (- for stdin)")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Container file (- for stdout)")
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Integer field as name=value, repeatable")
	cmd.Flags().BoolVar(&save, "save", false, "Save the container to the configured store and print its ID")
	cmd.MarkFlagsMutuallyExclusive("out", "save")

	return cmd
}

// parseFields turns name=value pairs into fields, keeping flag order.
func parseFields(pairs []string) ([]nqcrypt.Field, error) {
	fields := make([]nqcrypt.Field, 0, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, nqcrypt.NewInvalidFieldError(pair, "expected name=value")
		}
		value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, nqcrypt.NewInvalidFieldError(name, "value is not a 64-bit integer")
		}
		fields = append(fields, nqcrypt.Field{Name: strings.TrimSpace(name), Value: value})
	}
	return fields, nil
}

package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hengadev/nqcrypt"
)

func newFieldsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "Decode or combine a container's encoded fields",
		Long: `Work with the additive-encoded integer fields of a container.

add and scale operate on the encoded values and need no key. decode needs the
master key the container was protected with.`,
	}

	cmd.AddCommand(
		newFieldsDecodeCommand(a),
		newFieldsAddCommand(a),
		newFieldsScaleCommand(a),
	)
	return cmd
}

func newFieldsDecodeCommand(a *app) *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "decode [name...]",
		Short: "Print decoded field values",
		Example: `  nqcrypt fields decode --in report.nqc
  nqcrypt fields decode --in report.nqc age salary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.readContainer(in)
			if err != nil {
				return err
			}

			p, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}

			names := args
			if len(names) == 0 {
				names = c.Header.FieldNames
			}
			for _, name := range names {
				v, err := p.DecodeField(c, name)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(a.stdout, "%s=%d\n", name, v); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "-", "Container file (- for stdin)")
	return cmd
}

// combineFlags are shared by add and scale.
type combineFlags struct {
	in      string
	out     string
	as      string
	checked bool
}

func (f *combineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.in, "in", "i", "-", "Container file (- for stdin)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "-", "Container file to write (- for stdout)")
	cmd.Flags().StringVar(&f.as, "as", "", "Name of the result field")
	cmd.Flags().BoolVar(&f.checked, "checked", false, "Fail on signed overflow instead of wrapping")
	_ = cmd.MarkFlagRequired("as")
}

func newFieldsAddCommand(a *app) *cobra.Command {
	var f combineFlags

	cmd := &cobra.Command{
		Use:     "add <field> <field>",
		Short:   "Store the encoded sum of two fields as a new field",
		Example: `  nqcrypt fields add --in report.nqc --out report.nqc --as total age score`,
		Args:    cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			c, err := a.readContainer(f.in)
			if err != nil {
				return err
			}
			x, err := encodedField(c, args[0])
			if err != nil {
				return err
			}
			y, err := encodedField(c, args[1])
			if err != nil {
				return err
			}

			var sum nqcrypt.Encoded
			if f.checked {
				sum, err = nqcrypt.AddEncodedChecked(x, y)
				if err != nil {
					return err
				}
			} else {
				sum = nqcrypt.AddEncoded(x, y)
			}

			if err := setField(c, f.as, sum); err != nil {
				return err
			}
			return a.writeContainer(f.out, c)
		},
	}

	f.register(cmd)
	return cmd
}

func newFieldsScaleCommand(a *app) *cobra.Command {
	var f combineFlags

	cmd := &cobra.Command{
		Use:     "scale <field> <factor>",
		Short:   "Store an encoded field multiplied by an integer as a new field",
		Example: `  nqcrypt fields scale --in report.nqc --out report.nqc --as triple_age age 3`,
		Args:    cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			factor, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("%w: factor %q is not a 64-bit integer", nqcrypt.ErrInvalidConfiguration, args[1])
			}

			c, err := a.readContainer(f.in)
			if err != nil {
				return err
			}
			x, err := encodedField(c, args[0])
			if err != nil {
				return err
			}

			var scaled nqcrypt.Encoded
			if f.checked {
				scaled, err = nqcrypt.ScaleEncodedChecked(x, factor)
				if err != nil {
					return err
				}
			} else {
				scaled = nqcrypt.ScaleEncoded(x, factor)
			}

			if err := setField(c, f.as, scaled); err != nil {
				return err
			}
			return a.writeContainer(f.out, c)
		},
	}

	f.register(cmd)
	return cmd
}

func encodedField(c *nqcrypt.Container, name string) (nqcrypt.Encoded, error) {
	value, ok := c.Field(name)
	if !ok {
		return nqcrypt.Encoded{}, fmt.Errorf("%w: '%s'", nqcrypt.ErrFieldNotFound, name)
	}
	return nqcrypt.EncodedFromBytes(value)
}

// setField stores e under name, appending name to the header when it is new.
func setField(c *nqcrypt.Container, name string, e nqcrypt.Encoded) error {
	if name == "" {
		return nqcrypt.NewInvalidFieldError(name, "field name is empty")
	}
	if c.HomomorphicData == nil {
		c.HomomorphicData = map[string][]byte{}
	}
	if !slices.Contains(c.Header.FieldNames, name) {
		c.Header.FieldNames = append(c.Header.FieldNames, name)
	}
	c.HomomorphicData[name] = e.Bytes()
	return nil
}

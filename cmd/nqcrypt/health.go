package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hengadev/nqcrypt"
	"github.com/hengadev/nqcrypt/internal/health"
)

var errUnhealthy = errors.New("health check failed")

func newHealthCommand(a *app) *cobra.Command {
	var (
		asJSON  bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the master key, a protect/recover self-test and the store",
		Long: `Run the health checks concurrently and print a report.

The key and self-test checks are critical; a failing store only degrades the
report. The command fails when the report is unhealthy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checker := health.NewChecker(timeout)
			for _, check := range a.healthChecks() {
				if err := checker.Register(check); err != nil {
					return err
				}
			}

			report := checker.Run(cmd.Context())
			if err := printHealth(a, report, asJSON); err != nil {
				return err
			}
			if report.Status == health.StatusUnhealthy {
				return errUnhealthy
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Timeout for each check")
	return cmd
}

func (a *app) healthChecks() []health.Check {
	return []health.Check{
		{Name: "master_key", Critical: true, Func: a.checkMasterKey},
		{Name: "self_test", Critical: true, Func: a.checkSelfTest},
		{Name: "store", Func: a.checkStore},
	}
}

func (a *app) checkMasterKey(ctx context.Context) error {
	src, err := a.keySource()
	if err != nil {
		return err
	}
	key, err := src.MasterKey(ctx)
	if err != nil {
		return err
	}
	if len(key) == 0 {
		return fmt.Errorf("%w: master key is empty", nqcrypt.ErrInvalidConfiguration)
	}
	return nil
}

// checkSelfTest protects a sample with symmetric feedback and checks that
// the payload and an added field come back.
func (a *app) checkSelfTest(ctx context.Context) error {
	key, err := nqcrypt.GenerateMasterKey(nil)
	if err != nil {
		return err
	}
	p, err := nqcrypt.New(key, nqcrypt.WithFeedbackMode(nqcrypt.FeedbackSymmetric))
	if err != nil {
		return err
	}

	payload := []byte("nqcrypt self-test payload spanning blocks")
	c, err := p.Protect(ctx, payload, map[string]int64{"a": 25, "b": 85})
	if err != nil {
		return err
	}

	plaintext, err := p.RecoverWithMasterKey(ctx, c)
	if err != nil {
		return err
	}
	if !bytes.Equal(plaintext, payload) {
		return fmt.Errorf("%w: payload round trip mismatch", nqcrypt.ErrOperationFailed)
	}

	x, _ := nqcrypt.EncodedFromBytes(c.HomomorphicData["a"])
	y, _ := nqcrypt.EncodedFromBytes(c.HomomorphicData["b"])
	if sum := nqcrypt.DecodeScalar(nqcrypt.AddEncoded(x, y), key); sum != 110 {
		return fmt.Errorf("%w: encoded sum decoded to %d", nqcrypt.ErrOperationFailed, sum)
	}
	return nil
}

func (a *app) checkStore(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	p, err := nqcrypt.New(nil)
	if err != nil {
		return err
	}
	c, err := p.Protect(ctx, []byte("health"), nil)
	if err != nil {
		return err
	}

	id, err := store.Save(ctx, c)
	if err != nil {
		return err
	}
	if _, err := store.Load(ctx, id); err != nil {
		return err
	}
	return store.Delete(ctx, id)
}

func printHealth(a *app, report health.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(a.stdout, "Status: %s (%s)\n", report.Status, report.Duration.Round(time.Microsecond))
	for _, r := range report.Results {
		line := fmt.Sprintf("  %-10s %s", r.Name, r.Status)
		if r.Error != "" {
			line += ": " + r.Error
		}
		fmt.Fprintln(a.stdout, line)
	}
	return nil
}

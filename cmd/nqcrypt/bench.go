package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hengadev/nqcrypt"
)

// benchResult is the outcome of one protect/recover cycle.
type benchResult struct {
	Size        int
	ProtectTime time.Duration
	RecoverTime time.Duration
	// Recovered reports whether Recover reproduced the payload.
	Recovered bool
	// MasterKeyRoundTrip reports whether RecoverWithMasterKey reproduced it.
	MasterKeyRoundTrip bool
}

// Throughput returns protect throughput in bytes per second.
func (r benchResult) Throughput() uint64 {
	secs := r.ProtectTime.Seconds()
	if secs <= 0 {
		return 0
	}
	return uint64(float64(r.Size) / secs)
}

func newBenchCommand(a *app) *cobra.Command {
	var sizes []int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time protect and recover over several payload sizes",
		Long: `Protect and recover a random payload for each size and report timings,
throughput and whether the payload came back unchanged.

Uses the configured master key, or a random one when none is set.`,
		Example: `  nqcrypt bench
  nqcrypt bench --sizes 4096,65536 --mode symmetric`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := a.benchPipeline(ctx)
			if err != nil {
				return err
			}

			for _, size := range sizes {
				if size < 0 {
					return fmt.Errorf("%w: size %d is negative", nqcrypt.ErrInvalidConfiguration, size)
				}
				r, err := runBench(ctx, p, size, rand.Reader)
				if err != nil {
					return err
				}
				printBench(a.stdout, r)
			}
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&sizes, "sizes", []int{128, 512, 1024, 2048}, "Payload sizes in bytes")
	return cmd
}

// benchPipeline uses the configured key when present and a random key
// otherwise.
func (a *app) benchPipeline(ctx context.Context) (*nqcrypt.Pipeline, error) {
	if a.cfg.MasterKey != "" || a.cfg.Vault.Path != "" {
		return a.pipeline(ctx)
	}
	opts, err := a.pipelineOptions()
	if err != nil {
		return nil, err
	}
	return nqcrypt.New(nil, opts...)
}

func runBench(ctx context.Context, p *nqcrypt.Pipeline, size int, random io.Reader) (benchResult, error) {
	payload := make([]byte, size)
	if _, err := io.ReadFull(random, payload); err != nil {
		return benchResult{}, fmt.Errorf("%w: %w", nqcrypt.ErrRandomSource, err)
	}

	// Recover swaps the cipher, so the direct check runs first on the same
	// container.
	start := time.Now()
	c, err := p.Protect(ctx, payload, nil)
	if err != nil {
		return benchResult{}, err
	}
	protectTime := time.Since(start)

	direct, err := p.RecoverWithMasterKey(ctx, c)
	if err != nil {
		return benchResult{}, err
	}

	start = time.Now()
	recovered, err := p.Recover(ctx, c, nil)
	if err != nil {
		return benchResult{}, err
	}

	return benchResult{
		Size:               size,
		ProtectTime:        protectTime,
		RecoverTime:        time.Since(start),
		Recovered:          bytes.Equal(payload, recovered),
		MasterKeyRoundTrip: bytes.Equal(payload, direct),
	}, nil
}

func printBench(w io.Writer, r benchResult) {
	fmt.Fprintf(w, "Payload %s (%d bytes):\n", humanize.IBytes(uint64(r.Size)), r.Size)
	fmt.Fprintf(w, "  Protect time:          %s\n", r.ProtectTime)
	fmt.Fprintf(w, "  Recover time:          %s\n", r.RecoverTime)
	fmt.Fprintf(w, "  Protect throughput:    %s/s\n", humanize.IBytes(r.Throughput()))
	fmt.Fprintf(w, "  Recovered payload:     %t\n", r.Recovered)
	fmt.Fprintf(w, "  Master key round trip: %t\n", r.MasterKeyRoundTrip)
}

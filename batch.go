package nqcrypt

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Job is one payload for ProtectAll.
type Job struct {
	Payload []byte
	Fields  map[string]int64
}

// ProtectAll protects jobs concurrently with at most limit workers. Each job
// gets its own Pipeline over masterKey, so no cipher state is shared. The
// result at index i belongs to jobs[i]. The first error cancels the rest.
func ProtectAll(ctx context.Context, masterKey []byte, jobs []Job, limit int, opts ...PipelineOption) ([]*Container, error) {
	if len(masterKey) == 0 {
		return nil, fmt.Errorf("%w: ProtectAll needs an explicit master key", ErrInvalidConfiguration)
	}
	if limit < 1 {
		limit = 1
	}

	results := make([]*Container, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, job := range jobs {
		g.Go(func() error {
			p, err := New(masterKey, opts...)
			if err != nil {
				return err
			}
			c, err := p.Protect(gctx, job.Payload, job.Fields)
			if err != nil {
				return fmt.Errorf("job %d: %w", i, err)
			}
			results[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

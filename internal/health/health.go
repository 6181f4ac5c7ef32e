// Package health runs named checks concurrently and aggregates them into a
// single report.
package health

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Status is the outcome of a check or a whole report.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// Check is one named probe. A failing Critical check makes the report
// unhealthy; a failing non-critical check makes it degraded.
type Check struct {
	Name     string
	Critical bool
	Func     func(ctx context.Context) error
}

// Result is the outcome of one Check.
type Result struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	Critical bool          `json:"critical"`
}

// Report aggregates the results of every check.
type Report struct {
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
	Results  []Result      `json:"results"`
}

// Checker holds registered checks.
type Checker struct {
	timeout time.Duration
	checks  []Check
}

// NewChecker creates a Checker applying timeout to each check. A zero
// timeout means no per-check limit.
func NewChecker(timeout time.Duration) *Checker {
	return &Checker{timeout: timeout}
}

// Register adds a check. Names must be unique and non-empty.
func (c *Checker) Register(check Check) error {
	if check.Name == "" {
		return fmt.Errorf("health check name cannot be empty")
	}
	if check.Func == nil {
		return fmt.Errorf("health check '%s' has no function", check.Name)
	}
	if slices.ContainsFunc(c.checks, func(existing Check) bool { return existing.Name == check.Name }) {
		return fmt.Errorf("health check '%s' already registered", check.Name)
	}
	c.checks = append(c.checks, check)
	return nil
}

// Run executes every check concurrently. Results keep registration order.
func (c *Checker) Run(ctx context.Context) Report {
	start := time.Now()
	results := make([]Result, len(c.checks))

	var wg sync.WaitGroup
	for i, check := range c.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.run(ctx, check)
		}()
	}
	wg.Wait()

	return Report{
		Status:   overall(results),
		Duration: time.Since(start),
		Results:  results,
	}
}

func (c *Checker) run(ctx context.Context, check Check) Result {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err := check.Func(ctx)

	result := Result{
		Name:     check.Name,
		Status:   StatusHealthy,
		Duration: time.Since(start),
		Critical: check.Critical,
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}
	return result
}

func overall(results []Result) Status {
	if len(results) == 0 {
		return StatusUnknown
	}

	status := StatusHealthy
	for _, r := range results {
		if r.Status != StatusUnhealthy {
			continue
		}
		if r.Critical {
			return StatusUnhealthy
		}
		status = StatusDegraded
	}
	return status
}

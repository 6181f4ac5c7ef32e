package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func fail(context.Context) error { return errors.New("down") }

func TestRegister_Validation(t *testing.T) {
	c := NewChecker(0)

	require.NoError(t, c.Register(Check{Name: "store", Func: ok}))
	assert.Error(t, c.Register(Check{Name: "store", Func: ok}))
	assert.Error(t, c.Register(Check{Name: "", Func: ok}))
	assert.Error(t, c.Register(Check{Name: "key"}))
}

func TestRun_Status(t *testing.T) {
	tests := []struct {
		name   string
		checks []Check
		want   Status
	}{
		{name: "no checks", want: StatusUnknown},
		{name: "all healthy", checks: []Check{{Name: "a", Critical: true, Func: ok}, {Name: "b", Func: ok}}, want: StatusHealthy},
		{name: "optional failure", checks: []Check{{Name: "a", Critical: true, Func: ok}, {Name: "b", Func: fail}}, want: StatusDegraded},
		{name: "critical failure", checks: []Check{{Name: "a", Critical: true, Func: fail}, {Name: "b", Func: fail}}, want: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker(time.Second)
			for _, check := range tt.checks {
				require.NoError(t, c.Register(check))
			}

			report := c.Run(context.Background())
			assert.Equal(t, tt.want, report.Status)
			assert.Len(t, report.Results, len(tt.checks))
		})
	}
}

func TestRun_KeepsOrderAndErrors(t *testing.T) {
	c := NewChecker(0)
	require.NoError(t, c.Register(Check{Name: "first", Func: fail}))
	require.NoError(t, c.Register(Check{Name: "second", Func: ok}))

	report := c.Run(context.Background())

	require.Len(t, report.Results, 2)
	assert.Equal(t, "first", report.Results[0].Name)
	assert.Equal(t, "down", report.Results[0].Error)
	assert.Equal(t, StatusHealthy, report.Results[1].Status)
}

func TestRun_Timeout(t *testing.T) {
	c := NewChecker(10 * time.Millisecond)
	require.NoError(t, c.Register(Check{Name: "slow", Critical: true, Func: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}))

	report := c.Run(context.Background())
	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.Contains(t, report.Results[0].Error, "deadline exceeded")
}

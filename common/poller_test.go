package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/xk6-webdriver/metrics"
	"github.com/grafana/xk6-webdriver/wire"
)

type fakeClock struct {
	t      time.Time
	sleeps []time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(_ context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.t = c.t.Add(d)
	return nil
}

func newFakePoller(c *fakeClock, m *metrics.Metrics) *Poller {
	p := NewPoller(nil, m)
	p.now = c.now
	p.sleep = c.sleep
	return p
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		elapsed, want time.Duration
	}{
		{elapsed: 0, want: 0},
		{elapsed: 50 * time.Millisecond, want: 5 * time.Millisecond},
		{elapsed: 5 * time.Second, want: 500 * time.Millisecond},
		{elapsed: 10 * time.Second, want: time.Second},
		{elapsed: time.Minute, want: time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.elapsed), "elapsed %s", tt.elapsed)
	}
}

func TestPollForResult(t *testing.T) {
	t.Parallel()

	t.Run("succeeds_on_third_attempt", func(t *testing.T) {
		t.Parallel()

		clock := &fakeClock{t: time.Unix(0, 0)}
		p := newFakePoller(clock, metrics.NewNop())

		calls := 0
		v, err := PollForResult(context.Background(), p, 10*time.Second, "never", func(context.Context) (string, bool, error) {
			calls++
			clock.t = clock.t.Add(100 * time.Millisecond)
			return "found", calls == 3, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "found", v)
		assert.Equal(t, 3, calls)
		require.NotEmpty(t, clock.sleeps)
		assert.Zero(t, clock.sleeps[0], "the first attempt must not wait")
	})

	t.Run("times_out", func(t *testing.T) {
		t.Parallel()

		reg := prometheus.NewRegistry()
		m := metrics.New(reg)
		start := time.Unix(0, 0)
		clock := &fakeClock{t: start}
		p := newFakePoller(clock, m)

		calls := 0
		_, err := PollForResult(context.Background(), p, 2*time.Second, "gave up", func(context.Context) (int, bool, error) {
			calls++
			clock.t = clock.t.Add(100 * time.Millisecond)
			return 0, false, nil
		})
		require.Error(t, err)
		assert.True(t, wire.HasCode(err, wire.StatusTimeout))
		assert.ErrorIs(t, err, wire.ErrTimedOut)
		assert.Equal(t, "gave up", err.Error())

		took := clock.t.Sub(start)
		assert.Greater(t, took, 2*time.Second)
		assert.LessOrEqual(t, took, 3*time.Second)
		assert.Greater(t, calls, 2)

		assert.Equal(t, float64(calls), testutil.ToFloat64(m.PollAttempts))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.PollTimeouts))
	})

	t.Run("producer_error_aborts", func(t *testing.T) {
		t.Parallel()

		clock := &fakeClock{t: time.Unix(0, 0)}
		p := newFakePoller(clock, nil)

		boom := errors.New("boom")
		calls := 0
		_, err := PollForResult(context.Background(), p, time.Minute, "never", func(context.Context) (int, bool, error) {
			calls++
			return 0, false, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("canceled_context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		_, err := PollForResult(ctx, NewPoller(nil, nil), time.Minute, "never", func(context.Context) (int, bool, error) {
			calls++
			return 0, false, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, calls)
	})
}

func TestPollForResultWallClock(t *testing.T) {
	t.Parallel()

	start := time.Now()
	_, err := PollForResult(context.Background(), NewPoller(nil, nil), 300*time.Millisecond, "slow", func(context.Context) (bool, bool, error) {
		return false, false, nil
	})
	assert.True(t, wire.HasCode(err, wire.StatusTimeout))
	assert.Less(t, time.Since(start), 300*time.Millisecond+time.Second)
}

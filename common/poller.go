package common

import (
	"context"
	"time"

	"github.com/grafana/xk6-webdriver/log"
	"github.com/grafana/xk6-webdriver/metrics"
	"github.com/grafana/xk6-webdriver/wire"
)

const maxPollInterval = time.Second

// Poller retries a producer until it yields a result or a timeout passes.
//
// The interval between attempts is a tenth of the time spent so far, capped
// at one second: the first attempt runs right away, later ones back off.
type Poller struct {
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewPoller returns a poller running on the wall clock.
func NewPoller(logger *log.Logger, m *metrics.Metrics) *Poller {
	if logger == nil {
		logger = log.NewNullLogger()
	}
	return &Poller{
		now:     time.Now,
		sleep:   sleepContext,
		logger:  logger,
		metrics: m,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Backoff returns how long to wait before the next attempt once elapsed has
// passed since the first one.
func Backoff(elapsed time.Duration) time.Duration {
	if d := elapsed / 10; d < maxPollInterval {
		return d
	}
	return maxPollInterval
}

// Producer is an attempt of a poll. It reports ok once it has a result.
type Producer[T any] func(ctx context.Context) (result T, ok bool, err error)

// PollForResult calls produce until it reports a result, and returns that
// result.
//
// The deadline is only checked between attempts, using the elapsed time
// measured before the attempt, so the last attempt may start up to one
// interval after timeout. An error from produce aborts the poll. When time
// runs out a Timeout error carrying msg is returned.
func PollForResult[T any](
	ctx context.Context, p *Poller, timeout time.Duration, msg string, produce Producer[T],
) (T, error) {
	var zero T

	start := p.now()
	for attempt := 1; ; attempt++ {
		elapsed := p.now().Sub(start)
		if err := p.sleep(ctx, Backoff(elapsed)); err != nil {
			return zero, err
		}

		p.metrics.IncPollAttempt()
		p.logger.Tracef("Poller:PollForResult", "attempt:%d elapsed:%s", attempt, elapsed)

		v, ok, err := produce(ctx)
		if err != nil {
			return zero, err
		}
		if ok {
			return v, nil
		}
		if elapsed > timeout {
			break
		}
	}

	p.metrics.IncPollTimeout()
	p.logger.Debugf("Poller:PollForResult", "timed out after %s: %s", p.now().Sub(start), msg)

	return zero, wire.NewTimeoutError(msg)
}

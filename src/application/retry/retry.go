package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
)

const breakerCacheSize = 1024

// Runner retries pipeline stages with exponential backoff behind one
// circuit breaker per key.
type Runner struct {
	retry    config.RetryPolicy
	breaker  config.BreakerPolicy
	breakers *lru.Cache[string, *gobreaker.CircuitBreaker]
	metrics  *config.Metrics
	logger   zerolog.Logger
}

func New(retry config.RetryPolicy, breaker config.BreakerPolicy, metrics *config.Metrics, logger *zerolog.Logger) (*Runner, error) {
	breakers, err := lru.New[string, *gobreaker.CircuitBreaker](breakerCacheSize)
	if err != nil {
		return nil, errors.WithMessage(err, "Could not create breaker cache")
	}
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &Runner{
		retry:    retry,
		breaker:  breaker,
		breakers: breakers,
		metrics:  metrics,
		logger:   logger.With().Str("component", "RetryRunner").Logger(),
	}, nil
}

func (self *Runner) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = self.retry.InitialInterval
	b.MaxInterval = self.retry.MaxInterval
	b.Multiplier = self.retry.Multiplier
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(self.retry.MaxAttempts-1)), ctx)
}

func (self *Runner) breakerFor(key string) *gobreaker.CircuitBreaker {
	if cb, ok := self.breakers.Get(key); ok {
		return cb
	}

	threshold := uint32(self.breaker.Threshold)
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        key,
		MaxRequests: 1,
		Timeout:     self.breaker.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			self.logger.Warn().Str("spec_ref", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker changed state")
			open := 0.0
			if to == gobreaker.StateOpen {
				open = 1
			}
			self.metrics.BreakerState.WithLabelValues(name).Set(open)
		},
	})

	// another goroutine may have raced us to it
	if existing, ok, _ := self.breakers.PeekOrAdd(key, cb); ok {
		return existing
	}
	return cb
}

// State of the breaker guarding key.
func (self *Runner) State(key string) gobreaker.State {
	if cb, ok := self.breakers.Peek(key); ok {
		return cb.State()
	}
	return gobreaker.StateClosed
}

// waitClosed blocks while the breaker of key is open.
func (self *Runner) waitClosed(ctx context.Context, cb *gobreaker.CircuitBreaker) error {
	poll := self.breaker.Cooldown / 10
	if poll <= 0 || poll > time.Second {
		poll = time.Second
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for cb.State() == gobreaker.StateOpen {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Do runs fn until it succeeds, fails permanently or runs out of attempts.
// It returns the number of attempts made and the last error.
// Cancellation of ctx ends the loop with ctx.Err().
func (self *Runner) Do(ctx context.Context, key string, stage domain.Stage, fn func(context.Context) error) (attempts int, err error) {
	cb := self.breakerFor(key)
	logger := self.logger.With().Str("spec_ref", key).Str("stage", string(stage)).Logger()

	operation := func() error {
		if err := self.waitClosed(ctx, cb); err != nil {
			return backoff.Permanent(err)
		}

		attempts++
		var permanent error
		_, err := cb.Execute(func() (any, error) {
			err := fn(ctx)
			switch {
			case err == nil:
				return nil, nil
			case ctx.Err() != nil:
				permanent = ctx.Err()
				return nil, nil
			case !Retryable(err):
				permanent = err
				return nil, nil
			}
			return nil, err
		})

		if permanent != nil {
			return backoff.Permanent(permanent)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		self.metrics.StageAttempts.WithLabelValues(string(stage), "retry").Inc()
		logger.Warn().Err(err).Int("attempt", attempts).Dur("next", next).Msg("Retrying stage")
	}

	start := time.Now()
	err = backoff.RetryNotify(operation, self.newBackOff(ctx), notify)
	if err != nil {
		self.metrics.StageAttempts.WithLabelValues(string(stage), "failure").Inc()
		return attempts, err
	}

	self.metrics.StageAttempts.WithLabelValues(string(stage), "success").Inc()
	self.metrics.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	return attempts, nil
}

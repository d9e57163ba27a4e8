package classifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Guard protects a network classifier with a rate limiter, a circuit
// breaker and a per-call timeout.
type Guard struct {
	next    Classifier
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewGuard wraps next using the limits in cfg.
func NewGuard(next Classifier, cfg *Config, logger *slog.Logger) *Guard {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	failures := cfg.Breaker.Failures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "classifier-" + cfg.Provider,
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.IntervalDuration(),
		Timeout:     cfg.Breaker.TimeoutDuration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("classifier breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Guard{
		next:    next,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		breaker: breaker,
		timeout: cfg.TimeoutDuration(),
	}
}

// Classify waits for a rate token, then calls the wrapped classifier
// through the breaker with the configured timeout.
func (g *Guard) Classify(ctx context.Context, text string) ([]Prediction, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		return g.next.Classify(callCtx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}

	preds, _ := result.([]Prediction)
	return preds, nil
}

// State reports the breaker state for status endpoints.
func (g *Guard) State() string {
	return g.breaker.State().String()
}

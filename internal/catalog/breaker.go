package catalog

import (
	"context"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/afrifurn-storefront/pkg/logger"
	"github.com/angelmondragon/afrifurn-storefront/pkg/metrics"
)

const breakerName = "product-service"

// BreakerSettings tunes the circuit breaker in front of the product service.
type BreakerSettings struct {
	MaxRequests  uint32
	Interval     time.Duration
	OpenTimeout  time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// Breaker trips after the failure ratio is reached over at least MinRequests calls.
type Breaker struct {
	cb      *gobreaker.CircuitBreaker[any]
	logg    *logger.Logger
	metrics *metrics.BrowseMetrics
}

func NewBreaker(settings BreakerSettings, logg *logger.Logger, m *metrics.BrowseMetrics) *Breaker {
	if logg == nil {
		logg = logger.Nop()
	}
	if settings.FailureRatio <= 0 || settings.FailureRatio > 1 {
		settings.FailureRatio = 0.6
	}
	b := &Breaker{logg: logg, metrics: m}
	m.SetBreakerState(breakerName, stateValue(gobreaker.StateClosed))

	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= settings.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return !countsAsFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "product service breaker state changed")
			m.SetBreakerState(name, stateValue(to))
		},
	})
	return b
}

// State reports the current breaker state ("closed", "half-open", "open").
func (b *Breaker) State() string {
	if b == nil {
		return gobreaker.StateClosed.String()
	}
	return b.cb.State().String()
}

// call runs fn through the breaker; a nil breaker runs fn directly.
func call[T any](b *Breaker, fn func() (T, error)) (T, error) {
	if b == nil {
		return fn()
	}
	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if isBreakerRejection(err) {
			return zero, fmt.Errorf("%w: %v", ErrBreakerOpen, err)
		}
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: unexpected result type %T", ErrDecode, result)
	}
	return typed, nil
}

func stateValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig holds configuration for circuit breaking around the store.
type BreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// BreakerDriver wraps a GraphDriver with circuit breaking logic so a failing
// store starts rejecting fast instead of queueing every caller.
type BreakerDriver struct {
	inner  GraphDriver
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// WithBreaker wraps the driver with a circuit breaker. When the config is
// disabled the driver is returned unwrapped.
func WithBreaker(inner GraphDriver, cfg BreakerConfig, logger *slog.Logger) GraphDriver {
	if !cfg.Enabled {
		return inner
	}
	if logger == nil {
		logger = slog.Default()
	}

	st := gobreaker.Settings{
		Name:        "graph-store",
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("graph store circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerDriver{
		inner:  inner,
		cb:     gobreaker.NewCircuitBreaker(st),
		logger: logger,
	}
}

// Run implements GraphDriver.
func (b *BreakerDriver) Run(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.inner.Run(ctx, query, params)
	})
	if err != nil {
		return nil, err
	}
	rows, ok := result.([]map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", result)
	}
	return rows, nil
}

// RunTransaction implements GraphDriver.
func (b *BreakerDriver) RunTransaction(ctx context.Context, statements []Statement) ([][]map[string]any, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.inner.RunTransaction(ctx, statements)
	})
	if err != nil {
		return nil, err
	}
	rows, ok := result.([][]map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected result type: %T", result)
	}
	return rows, nil
}

// Close implements GraphDriver.
func (b *BreakerDriver) Close(ctx context.Context) error {
	return b.inner.Close(ctx)
}

// Provider implements GraphDriver.
func (b *BreakerDriver) Provider() GraphProvider {
	return b.inner.Provider()
}

package chronograph

import (
	"fmt"
	"log/slog"

	"github.com/soundprediction/chronograph"
	"github.com/soundprediction/chronograph/pkg/config"
	"github.com/soundprediction/chronograph/pkg/driver"
	"github.com/soundprediction/chronograph/pkg/logger"
)

// newHistoryClient builds the history client from configuration: graph
// driver, optional circuit breaker, and the colored logger.
func newHistoryClient(cfg *config.Config) (*chronograph.Client, *slog.Logger, error) {
	log := logger.NewDefaultLogger(logger.ParseLevel(cfg.Log.Level))

	var graphDriver driver.GraphDriver
	var err error
	switch cfg.Database.Driver {
	case "neo4j", "memgraph":
		graphDriver, err = driver.NewNeo4jDriver(
			cfg.Database.URI,
			cfg.Database.Username,
			cfg.Database.Password,
			cfg.Database.Database,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create neo4j driver: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	graphDriver = driver.WithBreaker(graphDriver, driver.BreakerConfig{
		Enabled:          cfg.CircuitBreaker.Enabled,
		MaxRequests:      cfg.CircuitBreaker.MaxRequests,
		Interval:         cfg.CircuitBreaker.Interval,
		Timeout:          cfg.CircuitBreaker.Timeout,
		ReadyToTripRatio: cfg.CircuitBreaker.ReadyToTripRatio,
	}, log)

	client, err := chronograph.NewClient(graphDriver, &chronograph.Config{
		RetentionDays: cfg.Retention.Days,
		ArchiveDir:    cfg.Archive.Dir,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create history client: %w", err)
	}

	return client, log, nil
}

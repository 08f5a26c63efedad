// Package storage selects the persistence backend.
package storage

import (
	"context"
	"fmt"

	"github.com/hackgods/care-booking/internal/actor"
	"github.com/hackgods/care-booking/internal/appointment"
	"github.com/hackgods/care-booking/internal/catalog"
	"github.com/hackgods/care-booking/internal/config"
	"github.com/hackgods/care-booking/internal/outbox"
	"github.com/hackgods/care-booking/internal/payment"
	"github.com/hackgods/care-booking/internal/stats"
	"github.com/hackgods/care-booking/internal/storage/postgres"
	"github.com/hackgods/care-booking/internal/storage/sqlite"
)

// Store is everything the services need from persistence.
type Store interface {
	actor.Repository
	catalog.Repository
	appointment.Repository
	payment.Repository
	stats.Repository
	outbox.Repository

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*postgres.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
)

func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.PostgresDSN, postgres.PoolOptions{
			MaxConns: cfg.PostgresMaxConns,
			MinConns: cfg.PostgresMinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

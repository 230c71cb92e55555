package store

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/sqlite"
)

// Drivers accepted by store.driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects the backend named by cfg.Store.Driver. It returns nil, nil
// when the store is disabled.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case "":
		return nil, nil
	case DriverPostgres:
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		s, err := NewPostgres(ctx, client)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		s, err := NewSQLite(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q (want %s or %s)", cfg.Store.Driver, DriverPostgres, DriverSQLite)
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"contactbook/internal/contact/service"
	"contactbook/internal/contact/store"
	"contactbook/internal/platform/config"
	"contactbook/internal/platform/postgres"
	"contactbook/internal/platform/redis"
	"contactbook/pkg/platform/circuit"
)

// buildStore opens the configured backend. The returned func releases it.
func buildStore(ctx context.Context, cfg config.Config, log *slog.Logger) (service.Store, func(), error) {
	noop := func() {}

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate contacts: %w", err)
		}
		return pg, func() { _ = db.Close() }, nil

	case config.DriverRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedis(client.Client), func() { _ = client.Close() }, nil

	case config.DriverLocal:
		local, err := store.NewLocal(cfg.Store.LocalPath, store.WithLocalLogger(log))
		if err != nil {
			return nil, nil, err
		}
		return local, func() { _ = local.Close() }, nil

	case config.DriverRemote:
		remote, err := store.NewRemote(cfg.Store.RemoteURL,
			store.WithBreaker(circuit.New("contacts-api")),
			store.WithRemoteLogger(log),
		)
		if err != nil {
			return nil, nil, err
		}
		return remote, noop, nil

	default:
		return store.NewInMemory(), noop, nil
	}
}

package database

import (
	"context"
	"fmt"

	"github.com/zatekoja/drugevents/internal/domain/repositories"
	"github.com/zatekoja/drugevents/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/drugevents/internal/infrastructure/clients/sqlite"
	"github.com/zatekoja/drugevents/pkg/config"
)

// OpenDrugEventRepository connects to the configured sink. For the "none"
// driver it returns a nil repository and a no-op close function.
func OpenDrugEventRepository(ctx context.Context, cfg *config.Config) (repositories.DrugEventRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Sink.Driver {
	case config.SinkNone:
		return nil, noop, nil

	case config.SinkPostgres:
		client, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		repo, err := NewPostgresDrugEventAdapter(client, cfg.Sink.Table)
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return repo, client.Close, nil

	case config.SinkSQLite:
		client, err := sqlite.NewClient(cfg.Sink.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		repo, err := NewSQLiteDrugEventAdapter(client, cfg.Sink.Table)
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return repo, client.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown sink driver %q", cfg.Sink.Driver)
}

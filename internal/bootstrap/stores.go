// Package bootstrap assembles repositories for the configured store driver.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/loopystack/Portal/internal/adapter/memstore"
	"github.com/loopystack/Portal/internal/adapter/repo"
	"github.com/loopystack/Portal/internal/domain"
	"github.com/loopystack/Portal/internal/infra"
)

// Stores groups the repositories behind one driver.
type Stores struct {
	Users      domain.UserRepository
	TimeBlocks domain.TimeBlockRepository
	Revenue    domain.RevenueRepository

	close func()
}

// Close releases the underlying connections.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStores connects the repositories selected by cfg.StoreDriver.
func OpenStores(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case infra.StoreDriverMemory:
		return Memory(memstore.New()), nil
	case infra.StoreDriverPostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		runner := infra.NewSQLRunner(pool, logger)
		return &Stores{
			Users:      repo.NewUserRepository(runner),
			TimeBlocks: repo.NewTimeBlockRepository(runner),
			Revenue:    repo.NewRevenueRepository(runner),
			close:      pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

// Memory wraps an in-process store.
func Memory(store *memstore.Store) *Stores {
	return &Stores{
		Users:      store.Users(),
		TimeBlocks: store.TimeBlocks(),
		Revenue:    store.Revenue(),
	}
}

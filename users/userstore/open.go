// Package userstore selects the users.UserRepo implementation from configuration.
package userstore

import (
	"context"
	"fmt"
	"os"

	"github.com/connectspace/connectspace-api/internal/config"
	"github.com/connectspace/connectspace-api/users"
	"github.com/connectspace/connectspace-api/users/mongostore"
	fakeuserrepo "github.com/connectspace/connectspace-api/users/repofake"
	"github.com/connectspace/connectspace-api/users/sqlstore"
	"github.com/rs/zerolog/log"
)

type Config interface {
	config.StoreConfig
	GetDataFolder() string
}

// Open returns the configured user store, migrated and ready for use
func Open(ctx context.Context, cfg Config) (users.UserRepo, error) {
	driver := cfg.GetStoreDriver()
	log.Info().Str("driver", driver).Msg("Opening user store")

	switch driver {
	case config.StoreDriverMemory:
		return fakeuserrepo.NewFakeUserRepo(), nil

	case config.StoreDriverSQLite, config.StoreDriverPostgres:
		return OpenSQL(ctx, cfg)

	case config.StoreDriverMongo:
		store, err := mongostore.Open(ctx, cfg.GetMongoURI(), cfg.GetMongoDatabase())
		if err != nil {
			return nil, fmt.Errorf("[userstore Open] %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("[userstore Open] unsupported store driver %q", driver)
	}
}

// OpenSQL opens the SQL store and applies pending migrations
func OpenSQL(ctx context.Context, cfg Config) (*sqlstore.Store, error) {
	driver := cfg.GetStoreDriver()
	if driver == config.StoreDriverSQLite {
		if err := os.MkdirAll(cfg.GetDataFolder(), 0o755); err != nil {
			return nil, fmt.Errorf("[userstore OpenSQL] create data folder: %w", err)
		}
	}

	store, err := sqlstore.Open(ctx, driver, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("[userstore OpenSQL] %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("[userstore OpenSQL] %w", err)
	}
	return store, nil
}

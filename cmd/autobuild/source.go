package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/l1jgo/autobuild/internal/blueprint"
	"github.com/l1jgo/autobuild/internal/blueprint/file"
	"github.com/l1jgo/autobuild/internal/config"
	"github.com/l1jgo/autobuild/internal/persist"
)

// blueprintSource is a blueprint.Source that can also enumerate ids.
type blueprintSource interface {
	blueprint.Source
	List(ctx context.Context) ([]string, error)
}

type fileSource struct{ *file.Store }

func (s fileSource) List(context.Context) ([]string, error) { return s.Store.List() }

// openDB connects to PostgreSQL and brings the schema up to date.
func openDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*persist.DB, int64, error) {
	db, err := persist.NewDB(ctx, cfg, log)
	if err != nil {
		return nil, 0, fmt.Errorf("database: %w", err)
	}
	v, err := persist.RunMigrations(ctx, db.Pool)
	if err != nil {
		db.Close()
		return nil, 0, fmt.Errorf("migrations: %w", err)
	}
	return db, v, nil
}

// openSource returns the configured blueprint source. db is nil for the
// file source; otherwise the caller closes it.
func openSource(ctx context.Context, cfg *config.Config, log *zap.Logger) (blueprintSource, *persist.DB, error) {
	switch cfg.Data.Source {
	case "", "file":
		store, err := file.NewStore(cfg.Data.BlueprintDir, log)
		if err != nil {
			return nil, nil, err
		}
		return fileSource{store}, nil, nil
	case "postgres":
		db, _, err := openDB(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		return persist.NewBlueprintRepo(db.SQL), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown blueprint source %q", cfg.Data.Source)
	}
}

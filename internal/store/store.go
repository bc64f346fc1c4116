// Package store opens the configured database and exposes its repositories
// behind driver-neutral interfaces.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/todohub/internal/accounts"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/db"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/geocoder89/todohub/internal/repo/postgres"
	"github.com/geocoder89/todohub/internal/repo/sqlite"
	"github.com/geocoder89/todohub/internal/sharing"
)

type Lists interface {
	Create(ctx context.Context, ownerID int64, req todo.CreateListRequest) (todo.List, error)
	GetByID(ctx context.Context, id int64) (todo.List, error)
	GetWithItems(ctx context.Context, id int64) (todo.List, error)
	ListForUser(ctx context.Context, userID int64) ([]todo.List, error)
	Update(ctx context.Context, id int64, req todo.UpdateListRequest) (todo.List, error)
	Delete(ctx context.Context, listID, requesterID int64) error
}

type Items interface {
	Create(ctx context.Context, req todo.CreateItemRequest) (todo.Item, error)
	GetByID(ctx context.Context, id int64) (todo.Item, error)
	ListByList(ctx context.Context, listID int64) ([]todo.Item, error)
	Update(ctx context.Context, id int64, req todo.UpdateItemRequest) (todo.Item, error)
	Assign(ctx context.Context, id int64, userID *int64) (todo.Item, error)
	Delete(ctx context.Context, id int64) error
}

type Store struct {
	Driver string
	Users  accounts.Store
	Lists  Lists
	Items  Items
	Grants sharing.GrantStore

	ping  func(context.Context) error
	close func()
}

// Open connects to the driver named in cfg and makes sure the schema exists.
// Postgres is retried cfg.DBConnectAttempts times, cfg.DBConnectDelay apart.
func Open(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (*Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DBURL, cfg.DBConnectAttempts, cfg.DBConnectDelay, log)
		if err != nil {
			return nil, err
		}

		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}

		return &Store{
			Driver: config.DriverPostgres,
			Users:  postgres.NewUsersRepo(pool, prom),
			Lists:  postgres.NewListsRepo(pool, prom),
			Items:  postgres.NewItemsRepo(pool, prom),
			Grants: postgres.NewCollaboratorsRepo(pool, prom),
			ping:   pool.Ping,
			close:  pool.Close,
		}, nil

	case config.DriverSQLite:
		sdb, err := sqlite.Open(cfg.SQLitePath, prom)
		if err != nil {
			return nil, err
		}

		if err := sdb.Init(ctx); err != nil {
			_ = sdb.Close()
			return nil, err
		}

		log.Info("sqlite store ready", "path", cfg.SQLitePath)

		return &Store{
			Driver: config.DriverSQLite,
			Users:  sqlite.NewUsersRepo(sdb),
			Lists:  sqlite.NewListsRepo(sdb),
			Items:  sqlite.NewItemsRepo(sdb),
			Grants: sqlite.NewCollaboratorsRepo(sdb),
			ping:   sdb.Ping,
			close:  func() { _ = sdb.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *Store) Close() {
	s.close()
}

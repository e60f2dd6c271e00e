package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/env"
	"github.com/supakorn-kn/propadmin/memstore"
	"github.com/supakorn-kn/propadmin/models"
	"github.com/supakorn-kn/propadmin/mongodb"
	"github.com/supakorn-kn/propadmin/postgres"
	"github.com/supakorn-kn/propadmin/postgrest"
	"github.com/supakorn-kn/propadmin/query"
	"go.uber.org/zap"
)

const demoUnits = 36

// runtime is the backend a command works against.
type runtime struct {
	backend collection.Backend
	models  models.Set
	closers []func()
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

func (rt *runtime) newClient(cfg *env.Env, logger *zap.Logger) *query.Client {

	client := query.NewClient(rt.backend,
		query.WithLogger(logger.Named("query")),
		query.WithMaxAge(cfg.Query.MaxAge))
	rt.closers = append(rt.closers, client.Close)

	return client
}

func openRuntime(ctx context.Context, a *app) (*runtime, error) {

	cfg := a.cfg

	switch cfg.Backend.Driver {
	case env.MongoDriver:

		conn, err := mongodb.InitConnection(ctx, cfg.MongoDB.ConnectionURI(), cfg.MongoDB.DB)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}

		rt := &runtime{
			backend: mongodb.NewBackend(conn),
			models:  models.NewMongoSet(conn),
		}
		rt.closers = append(rt.closers, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = conn.Disconnect(disconnectCtx)
		})

		if err := models.SetupAll(ctx, conn); err != nil {
			rt.close()
			return nil, fmt.Errorf("setup collections: %w", err)
		}

		return rt, nil

	case env.PostgresDriver:

		pool, err := postgres.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		backend := postgres.NewBackend(pool)
		return &runtime{
			backend: backend,
			models:  models.NewBackendSet(backend, env.PostgresDriver),
			closers: []func(){pool.Close},
		}, nil

	case env.PostgRESTDriver:

		backend, err := postgrest.NewBackend(postgrest.Config{
			URL:     cfg.PostgREST.URL,
			APIKey:  cfg.PostgREST.APIKey,
			Schema:  cfg.PostgREST.Schema,
			Timeout: cfg.PostgREST.Timeout,
		}, a.logger.Named("postgrest"))
		if err != nil {
			return nil, err
		}

		return &runtime{
			backend: backend,
			models:  models.NewBackendSet(backend, env.PostgRESTDriver),
		}, nil

	case env.MemoryDriver:

		store := memstore.New()
		set := models.NewMemorySet(store)

		if _, err := Seed(ctx, set, demoUnits, gofakeit.New(time.Now().UnixNano())); err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}

		return &runtime{backend: store, models: set}, nil

	default:
		return nil, fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
	}
}

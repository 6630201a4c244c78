package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/irrigo/irrigo/internal/app"
	"github.com/irrigo/irrigo/internal/platform/cache"
	"github.com/irrigo/irrigo/internal/platform/db"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "irrigoctl",
		Short:         "Operator tooling for the Irrigo backend",
		SilenceUsage:  true,
	}
	root.AddCommand(newMigrateCmd(), newSeedCmd(), newAdminCmd(), newJobsCmd())
	return root
}

// env is the configuration and connections a command needs.
type env struct {
	cfg    *app.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
	redis  *redis.Client
}

func (e *env) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
	if e.redis != nil {
		_ = e.redis.Close()
	}
}

// loadEnv reads configuration and opens the connections requested.
func loadEnv(ctx context.Context, withDB, withRedis bool) (*env, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	e := &env{cfg: cfg, logger: app.NewLogger(cfg)}
	if withDB {
		if e.pool, err = db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 4}); err != nil {
			return nil, err
		}
	}
	if withRedis {
		if e.redis, err = cache.New(ctx, cfg.RedisAddr); err != nil {
			e.Close()
			return nil, err
		}
	}
	return e, nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"clinic-booking-api/internal/config"
	"clinic-booking-api/internal/handler"
	"clinic-booking-api/internal/locker"
	"clinic-booking-api/internal/memstore"
	"clinic-booking-api/internal/mongostore"
	"clinic-booking-api/internal/scheduler"
	"clinic-booking-api/internal/store"
)

// bookingStore is what every STORE_DRIVER provides.
type bookingStore interface {
	handler.Store
	scheduler.Store
}

type backend struct {
	store bookingStore
	ready func(context.Context) error
	close func()
}

func openBackend(ctx context.Context, cfg *config.Config, lg *zap.Logger) (*backend, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, lg)
	case config.DriverMongo:
		return openMongo(ctx, cfg, lg)
	default:
		lg.Warn("using in-memory store; data is lost on restart")
		return &backend{store: memstore.New(), close: func() {}}, nil
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, lg *zap.Logger) (*backend, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	lg.Info("connected to postgres")

	// run migrations
	if migration, err := os.ReadFile(cfg.MigrationPath); err != nil {
		lg.Warn("migration file not found, skipping", zap.String("path", cfg.MigrationPath), zap.Error(err))
	} else if _, err := pool.Exec(ctx, string(migration)); err != nil {
		lg.Warn("migration failed", zap.Error(err))
	} else {
		lg.Info("migration applied", zap.String("path", cfg.MigrationPath))
	}

	return &backend{
		store: store.New(pool),
		ready: pool.Ping,
		close: pool.Close,
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config, lg *zap.Logger) (*backend, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	lg.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = client.Disconnect(context.Background())
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lg.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	st := mongostore.New(client, cfg.MongoDatabase, locker.NewRedis(rdb, lg.Named("locker")), cfg.LockTTL, lg.Named("mongostore"))
	if err := st.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		_ = rdb.Close()
		return nil, err
	}

	return &backend{
		store: st,
		ready: func(ctx context.Context) error {
			if err := client.Ping(ctx, nil); err != nil {
				return fmt.Errorf("mongo: %w", err)
			}
			if err := rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		},
		close: func() {
			_ = rdb.Close()
			_ = client.Disconnect(context.Background())
		},
	}, nil
}

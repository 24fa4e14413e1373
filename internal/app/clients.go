package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/recipebook-backend/internal/docstore"
	"github.com/yungbote/recipebook-backend/internal/observability"
	"github.com/yungbote/recipebook-backend/internal/platform/logger"
	"github.com/yungbote/recipebook-backend/internal/realtime/bus"
)

type Clients struct {
	Backend StoreBackend
	Store   docstore.Store
	// Redis is set whenever REDIS_ADDR is configured, whatever the store
	// backend; it also carries the realtime bus.
	Redis goredis.UniversalClient
	DB    *gorm.DB
	Bus   bus.Bus
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	backend, err := resolveStoreBackend(cfg)
	if err != nil {
		return Clients{}, err
	}
	out := Clients{Backend: backend}

	// Redis
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rdb, err := docstore.DialRedis(ctx, docstore.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
	}

	// Store
	var store docstore.Store
	switch backend {
	case StoreBackendMemory:
		store = docstore.NewMemoryStore(log)
	case StoreBackendRedis:
		store = docstore.NewRedisStore(out.Redis, cfg.Redis.KeyPrefix, log)
	case StoreBackendPostgres, StoreBackendSQLite:
		var db *gorm.DB
		if backend == StoreBackendPostgres {
			db, err = docstore.OpenPostgres(docstore.PostgresConfig{
				Host:     cfg.Postgres.Host,
				Port:     cfg.Postgres.Port,
				User:     cfg.Postgres.User,
				Password: cfg.Postgres.Password,
				Name:     cfg.Postgres.Name,
			})
		} else {
			db, err = docstore.OpenSQLite(cfg.Store.SQLitePath)
		}
		if err != nil {
			out.Close()
			return Clients{}, err
		}
		sqlStore, err := docstore.NewSQLStore(db, log)
		if err != nil {
			out.DB = db
			out.Close()
			return Clients{}, err
		}
		out.DB = db
		store = sqlStore
	}
	out.Store = instrumentStore(backend, store, metrics)
	log.Info("Document store ready", "backend", string(backend), "root", cfg.Store.Root)

	// Realtime bus
	if out.Redis != nil {
		b, err := bus.NewRedisBus(out.Redis, cfg.Redis.Channel, log)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		out.Bus = b
	} else {
		out.Bus = bus.NewLocalBus(log)
	}

	return out, nil
}

// Close releases every client once. The redis store owns the redis client
// when it is the selected backend.
func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	} else if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if c.Redis != nil && (c.Store == nil || c.Backend != StoreBackendRedis) {
		_ = c.Redis.Close()
	}
}

package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/pathway/internal/adapters/file"
	"github.com/aretw0/pathway/internal/config"
	"github.com/aretw0/pathway/pkg/adapters/memory"
	"github.com/aretw0/pathway/pkg/adapters/redis"
	"github.com/aretw0/pathway/pkg/ports"
)

// lockPrefix keeps lock keys apart from position keys.
const lockPrefix = "pathway:"

// openStore builds the configured position store. The returned closer is never nil.
func openStore(cfg config.Config, logger *slog.Logger) (ports.PositionStore, io.Closer, error) {
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("Using the memory store, every call restarts at step 0 when the process restarts")
		return memory.NewStore(), nopCloser{}, nil
	case config.StoreFile:
		logger.Info("Using the file store", "dir", cfg.StoreDir)
		return file.New(cfg.StoreDir), nopCloser{}, nil
	case config.StoreRedis:
		opts := []redis.Option{redis.WithPrefix(cfg.RedisPrefix)}
		if cfg.RedisTTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.RedisTTL))
		}
		logger.Info("Using the redis store", "addr", cfg.RedisAddr, "db", cfg.RedisDB, "ttl", cfg.RedisTTL)
		s := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		return s, s, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// openLocker returns the distributed locker for a redis store, or nil.
func openLocker(cfg config.Config, store ports.PositionStore) ports.DistributedLocker {
	rs, ok := store.(*redis.Store)
	if !cfg.DistributedLock || !ok {
		return nil
	}
	return redis.NewLocker(rs.Client(), lockPrefix)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

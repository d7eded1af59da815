package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

const analyticsCacheKey = "ethixlearn:analytics:v1"

// AnalyticsCache holds the last computed analytics payload. Any successful
// ingestion or enrollment change invalidates it.
type AnalyticsCache interface {
	Get(ctx context.Context) ([]byte, bool, error)
	Set(ctx context.Context, payload []byte) error
	Invalidate(ctx context.Context) error
}

type nopAnalyticsCache struct{}

// NopAnalyticsCache is used when no Redis address is configured.
func NopAnalyticsCache() AnalyticsCache { return nopAnalyticsCache{} }

func (nopAnalyticsCache) Get(context.Context) ([]byte, bool, error) { return nil, false, nil }
func (nopAnalyticsCache) Set(context.Context, []byte) error         { return nil }
func (nopAnalyticsCache) Invalidate(context.Context) error          { return nil }

type redisAnalyticsCache struct {
	log *logger.Logger
	rdb *goredis.Client
	key string
	ttl time.Duration
}

func NewRedisAnalyticsCache(log *logger.Logger, rdb *goredis.Client, ttl time.Duration) (AnalyticsCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisAnalyticsCache{
		log: log.With("service", "AnalyticsCache"),
		rdb: rdb,
		key: analyticsCacheKey,
		ttl: ttl,
	}, nil
}

// NewRedisClient dials addr and pings it once.
func NewRedisClient(ctx context.Context, addr string) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (c *redisAnalyticsCache) Get(ctx context.Context) ([]byte, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *redisAnalyticsCache) Set(ctx context.Context, payload []byte) error {
	return c.rdb.Set(ctx, c.key, payload, c.ttl).Err()
}

func (c *redisAnalyticsCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, c.key).Err()
}

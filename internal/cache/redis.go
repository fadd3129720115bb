package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/partnerbooking/config"
	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache holds read-only catalog data. Workflow state is never cached.
type RedisCache struct {
	client     *redis.Client
	packageTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, packageTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		packageTTL: packageTTL,
	}
}

// GetPackage returns nil, nil on a cache miss.
func (c *RedisCache) GetPackage(ctx context.Context, id int64) (*domain.Package, error) {
	data, err := c.client.Get(ctx, packageKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var pkg domain.Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (c *RedisCache) SetPackage(ctx context.Context, pkg *domain.Package) error {
	payload, err := json.Marshal(pkg)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, packageKey(pkg.ID), payload, c.packageTTL).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func packageKey(id int64) string {
	return fmt.Sprintf("cache:package:%d", id)
}

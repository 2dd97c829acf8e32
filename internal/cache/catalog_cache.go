package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"journeybot/internal/model"
)

// CatalogCache caches module lists per age bucket so the catalog
// collection is not hit on every conversation start
type CatalogCache interface {
	SetForAge(ctx context.Context, ageInMonths int, modules []*model.Module) error
	GetForAge(ctx context.Context, ageInMonths int) ([]*model.Module, error)
	Invalidate(ctx context.Context) error
}

type catalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a new catalog cache
func NewCatalogCache(client *redis.Client) CatalogCache {
	return &catalogCache{
		client: client,
		ttl:    10 * time.Minute,
	}
}

func (c *catalogCache) ageKey(ageInMonths int) string {
	return fmt.Sprintf("catalog:age:%d", ageInMonths)
}

func (c *catalogCache) SetForAge(ctx context.Context, ageInMonths int, modules []*model.Module) error {
	data, err := json.Marshal(modules)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.ageKey(ageInMonths), data, c.ttl).Err(); err != nil {
		return err
	}
	return c.client.SAdd(ctx, "catalog:age:keys", c.ageKey(ageInMonths)).Err()
}

func (c *catalogCache) GetForAge(ctx context.Context, ageInMonths int) ([]*model.Module, error) {
	data, err := c.client.Get(ctx, c.ageKey(ageInMonths)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var modules []*model.Module
	if err := json.Unmarshal([]byte(data), &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

// Invalidate drops all cached age buckets, called after catalog writes
func (c *catalogCache) Invalidate(ctx context.Context) error {
	keys, err := c.client.SMembers(ctx, "catalog:age:keys").Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return err
		}
	}
	return c.client.Del(ctx, "catalog:age:keys").Err()
}

package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"tindahan/backend/internal/domain"
)

const (
	keyCatalog   = "tindahan:catalog"
	keyCodeParts = "tindahan:code_parts"
)

type RedisCatalogCache struct {
	client *redis.Client
}

func NewRedisCatalogCache(addr string, password string, db int) *RedisCatalogCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisCatalogCache{client: client}
}

func (c *RedisCatalogCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCatalogCache) Close() error {
	return c.client.Close()
}

func (c *RedisCatalogCache) GetCatalog(ctx context.Context) (*domain.ProductInventoryList, bool, error) {
	val, err := c.client.Get(ctx, keyCatalog).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var list domain.ProductInventoryList
	if err := json.Unmarshal([]byte(val), &list); err != nil {
		return nil, false, err
	}
	return &list, true, nil
}

func (c *RedisCatalogCache) SetCatalog(ctx context.Context, list *domain.ProductInventoryList, ttl time.Duration) error {
	if list == nil {
		return nil
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyCatalog, payload, ttl).Err()
}

func (c *RedisCatalogCache) GetCodeParts(ctx context.Context) ([]domain.CodePart, bool, error) {
	val, err := c.client.Get(ctx, keyCodeParts).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var parts []domain.CodePart
	if err := json.Unmarshal([]byte(val), &parts); err != nil {
		return nil, false, err
	}
	return parts, true, nil
}

func (c *RedisCatalogCache) SetCodeParts(ctx context.Context, parts []domain.CodePart, ttl time.Duration) error {
	if parts == nil {
		return nil
	}
	payload, err := json.Marshal(parts)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyCodeParts, payload, ttl).Err()
}

func (c *RedisCatalogCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, keyCatalog, keyCodeParts).Err()
}

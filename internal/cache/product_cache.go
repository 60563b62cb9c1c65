package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shop-service/internal/models"
	"shop-service/internal/repository"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL  = 5 * time.Minute
	notFoundTTL = 1 * time.Minute
	notFound    = "notfound"
)

// ProductCache is a read-through Redis cache for single products. Redis
// failures are logged and the source repository is used instead.
type ProductCache struct {
	source repository.ProductRepository
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewProductCache(source repository.ProductRepository, rdb *redis.Client, logger *slog.Logger) *ProductCache {
	return &ProductCache{
		source: source,
		redis:  rdb,
		ttl:    defaultTTL,
		logger: logger,
	}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func (c *ProductCache) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	key := productKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()

	switch {
	case err == nil:
		if string(data) == notFound {
			return nil, repository.ErrNotFound
		}

		var product models.Product
		if err := json.Unmarshal(data, &product); err != nil {
			c.logger.Warn("failed to unmarshal cached product, continuing with store", "key", key, "error", err)
			break
		}
		return &product, nil

	case errors.Is(err, redis.Nil):

	default:
		c.logger.Warn("redis error, continuing with store", "key", key, "error", err)
	}

	product, err := c.source.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if setErr := c.redis.Set(ctx, key, notFound, notFoundTTL).Err(); setErr != nil {
				c.logger.Warn("failed to cache notfound", "key", key, "error", setErr)
			}
		}
		return nil, err
	}

	jsonData, err := json.Marshal(product)
	if err != nil {
		c.logger.Warn("failed to marshal product", "product_id", id, "error", err)
		return product, nil
	}

	if err := c.redis.Set(ctx, key, jsonData, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache product", "key", key, "error", err)
	}

	return product, nil
}

func (c *ProductCache) Invalidate(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("failed to delete product cache", "keys", keys, "error", err)
	}
}

// Notify drops the cached products whose stock an order event changed.
func (c *ProductCache) Notify(ctx context.Context, event models.OrderEvent) error {
	if event.Type == models.EventOrderStatusChanged {
		return nil
	}
	ids := make([]int64, 0, len(event.Lines))
	for _, l := range event.Lines {
		ids = append(ids, l.ProductID)
	}
	c.Invalidate(ctx, ids...)
	return nil
}

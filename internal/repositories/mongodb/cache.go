package mongodb

import (
	"context"
	"time"
)

// CacheService is the narrow cache surface the repositories need. Satisfied
// by pkg/cache.RedisCache; nil disables caching.
type CacheService interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

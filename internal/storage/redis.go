package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore caches recently scraped detail links so re-runs skip them.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// MarkScraped sets a key with a TTL to prevent re-scraping the same detail
// page across runs.
func (s *RedisStore) MarkScraped(ctx context.Context, url string, ttl time.Duration) error {
	key := fmt.Sprintf("scraped:%s", url)
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// IsRecentlyScraped checks if a detail link has been scraped within the TTL.
func (s *RedisStore) IsRecentlyScraped(ctx context.Context, url string) (bool, error) {
	key := fmt.Sprintf("scraped:%s", url)
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}

package rates

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKey = "koshtorys:rate:usd"

type cache struct {
	client *redis.Client
	ttl    time.Duration
}

func newCache(client *redis.Client, ttl time.Duration) *cache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &cache{client: client, ttl: ttl}
}

// get treats every cache failure as a miss.
func (c *cache) get(ctx context.Context, log zerolog.Logger) (Rate, bool) {
	if c == nil {
		return Rate{}, false
	}
	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("rate cache read failed")
		}
		return Rate{}, false
	}
	var r Rate
	if err := json.Unmarshal(data, &r); err != nil {
		log.Warn().Err(err).Msg("rate cache entry unreadable")
		return Rate{}, false
	}
	return r, true
}

func (c *cache) set(ctx context.Context, r Rate, log zerolog.Logger) {
	if c == nil {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("rate cache write failed")
	}
}

// Invalidate drops the cached rate so the next Fetch hits the feed.
func (c *Client) Invalidate(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.client.Del(ctx, cacheKey).Err()
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RohitVelivela/vijaybrothers/internal/domain"
)

const (
	baseTTL   = 15 * time.Minute
	maxJitter = 5 * time.Minute
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

// setIfNotOlder writes the cart unless the stored copy carries a higher
// version. KEYS[1] cart key; ARGV[1] payload, ARGV[2] version, ARGV[3] ttl ms.
var setIfNotOlder = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current then
	local ok, stored = pcall(cjson.decode, current)
	if ok and type(stored) == 'table' and tonumber(stored['version']) and tonumber(stored['version']) > tonumber(ARGV[2]) then
		return 0
	end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// RedisCache keeps read copies of carts. Entries expire after the base TTL
// plus a random jitter so carts written together do not expire together.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, guestID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(guestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

// Set stores the cart. A copy older than the cached one is dropped, so a slow
// read-through refill cannot undo a later write.
func (r *RedisCache) Set(ctx context.Context, guestID string, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	ttl := r.baseTTL + time.Duration(rand.Int63n(int64(maxJitter)))
	err = setIfNotOlder.Run(ctx, r.client, []string{cacheKey(guestID)}, data, cart.Version, ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, guestID string) error {
	if err := r.client.Del(ctx, cacheKey(guestID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(guestID string) string {
	return fmt.Sprintf("cart:%s", guestID)
}

package slot

import (
	"context"
	"fmt"
	"time"

	"github.com/jcmexdev/food-ordering/internal/pkg/cache"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/ports"
)

var _ ports.CartSlot = (*RedisSlot)(nil)

// RedisSlot keeps a session's cart under storefront:cart:<session>.
type RedisSlot struct {
	cache cache.Cache
	key   string
	ttl   time.Duration
}

// NewRedisSlot returns a slot for session. ttl 0 keeps the cart forever.
func NewRedisSlot(c cache.Cache, session string, ttl time.Duration) *RedisSlot {
	return NewNamedRedisSlot(c, "cart", session, ttl)
}

// NewNamedRedisSlot keeps other per-session state under storefront:<kind>:<session>.
func NewNamedRedisSlot(c cache.Cache, kind, session string, ttl time.Duration) *RedisSlot {
	return &RedisSlot{
		cache: c,
		key:   c.GenerateKey(kind, session),
		ttl:   ttl,
	}
}

func (s *RedisSlot) Load(ctx context.Context) ([]byte, error) {
	val, err := s.cache.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("redis slot: load %s: %w", s.key, err)
	}
	if val == "" {
		return nil, nil
	}
	return []byte(val), nil
}

func (s *RedisSlot) Save(ctx context.Context, payload []byte) error {
	if err := s.cache.Set(ctx, s.key, payload, s.ttl); err != nil {
		return fmt.Errorf("redis slot: save %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisSlot) Clear(ctx context.Context) error {
	if err := s.cache.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("redis slot: clear %s: %w", s.key, err)
	}
	return nil
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

// Counter answers the header badge: the sum of quantities in a user's cart.
// Results are cached for TTL; every cart mutation must call Invalidate.
type Counter struct {
	Store shop.Store
	Redis *redis.Client
	TTL   time.Duration
	Log   zerolog.Logger
}

// Count never fails: no user or any error counts as an empty cart.
func (c *Counter) Count(ctx context.Context, userID string) int {
	if userID == "" {
		return 0
	}
	key := fmt.Sprintf(redisx.KeyCartCount, userID)
	if c.Redis != nil {
		n, err := c.Redis.Get(ctx, key).Int()
		if err == nil {
			return n
		}
		if !errors.Is(err, redis.Nil) {
			c.Log.Warn().Err(err).Msg("cart count cache")
		}
	}

	qs, err := c.Store.CartQuantities(ctx, userID)
	if err != nil {
		c.Log.Error().Err(err).Str("user_id", userID).Msg("cart count")
		return 0
	}
	n := 0
	for _, q := range qs {
		n += q
	}
	if c.Redis != nil {
		if err := c.Redis.Set(ctx, key, n, c.TTL).Err(); err != nil {
			c.Log.Warn().Err(err).Msg("cart count cache")
		}
	}
	return n
}

func (c *Counter) Invalidate(ctx context.Context, userID string) {
	if c == nil || c.Redis == nil {
		return
	}
	if err := c.Redis.Del(ctx, fmt.Sprintf(redisx.KeyCartCount, userID)).Err(); err != nil {
		c.Log.Warn().Err(err).Str("user_id", userID).Msg("cart count invalidate")
	}
}

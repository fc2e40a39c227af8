package httpx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-storefront/internal/redisx"
)

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a banner carried across one redirect.
type Flash struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Flashes queues banners per visitor id in Redis.
type Flashes struct {
	rdb *redis.Client
}

func NewFlashes(rdb *redis.Client) *Flashes { return &Flashes{rdb: rdb} }

func (f *Flashes) Add(ctx context.Context, visitorID string, fl Flash) error {
	b, err := json.Marshal(fl)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(redisx.KeyFlash, visitorID)
	pipe := f.rdb.TxPipeline()
	pipe.RPush(ctx, key, b)
	pipe.Expire(ctx, key, redisx.TTLFlash)
	_, err = pipe.Exec(ctx)
	return err
}

// Pop returns and clears the queued banners.
func (f *Flashes) Pop(ctx context.Context, visitorID string) ([]Flash, error) {
	key := fmt.Sprintf(redisx.KeyFlash, visitorID)
	pipe := f.rdb.TxPipeline()
	lr := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	raw := lr.Val()
	out := make([]Flash, 0, len(raw))
	for _, s := range raw {
		var fl Flash
		if err := json.Unmarshal([]byte(s), &fl); err != nil {
			continue
		}
		out = append(out, fl)
	}
	return out, nil
}

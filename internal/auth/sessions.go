package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

// Sessions keeps signed-in sessions in Redis. Each user also has a set of
// their session ids so a profile change can reach every open browser.
type Sessions struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessions(rdb *redis.Client, ttl time.Duration) *Sessions {
	return &Sessions{rdb: rdb, ttl: ttl}
}

func (s *Sessions) Save(ctx context.Context, sess shop.Session) error {
	if err := redisx.SetJSON(ctx, s.rdb, fmt.Sprintf(redisx.KeySession, sess.ID), sess, s.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	idx := fmt.Sprintf(redisx.KeyUserSessions, sess.UserID)
	pipe := s.rdb.TxPipeline()
	pipe.SAdd(ctx, idx, sess.ID)
	pipe.Expire(ctx, idx, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Get reports found=false for unknown or expired ids.
func (s *Sessions) Get(ctx context.Context, id string) (shop.Session, bool, error) {
	var sess shop.Session
	if id == "" {
		return sess, false, nil
	}
	found, err := redisx.GetJSON(ctx, s.rdb, fmt.Sprintf(redisx.KeySession, id), &sess)
	return sess, found, err
}

func (s *Sessions) Delete(ctx context.Context, sess shop.Session) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, fmt.Sprintf(redisx.KeySession, sess.ID))
	pipe.SRem(ctx, fmt.Sprintf(redisx.KeyUserSessions, sess.UserID), sess.ID)
	_, err := pipe.Exec(ctx)
	return err
}

// RefreshUser rewrites the user fields of every live session of u.ID and
// forgets ids whose record already expired. It returns how many were updated.
func (s *Sessions) RefreshUser(ctx context.Context, u shop.User) (int, error) {
	idx := fmt.Sprintf(redisx.KeyUserSessions, u.ID)
	ids, err := s.rdb.SMembers(ctx, idx).Result()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		key := fmt.Sprintf(redisx.KeySession, id)
		var sess shop.Session
		found, err := redisx.GetJSON(ctx, s.rdb, key, &sess)
		if err != nil {
			return n, err
		}
		if !found {
			s.rdb.SRem(ctx, idx, id)
			continue
		}
		sess.Email, sess.Name = u.Email, u.Name
		ttl, err := s.rdb.TTL(ctx, key).Result()
		if err != nil || ttl <= 0 {
			ttl = s.ttl
		}
		if err := redisx.SetJSON(ctx, s.rdb, key, sess, ttl); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

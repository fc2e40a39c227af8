package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

func TestRefreshUserUpdatesEverySession(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	s := NewSessions(rdb, time.Hour)
	ctx := context.Background()

	for _, id := range []string{"s1", "s2"} {
		require.NoError(t, s.Save(ctx, shop.Session{ID: id, UserID: "u1", Email: "ana@example.com", Name: "Ana"}))
	}
	require.NoError(t, s.Save(ctx, shop.Session{ID: "s3", UserID: "u2", Name: "Bia"}))
	mr.Del("session:s2")

	n, err := s.RefreshUser(ctx, shop.User{ID: "u1", Email: "ana@example.com", Name: "Ana Maria"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, found, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ana Maria", got.Name)

	other, _, err := s.Get(ctx, "s3")
	require.NoError(t, err)
	assert.Equal(t, "Bia", other.Name)

	members, err := mr.Members("user_sessions:u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, members)
}

func TestDeleteRemovesIndexEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	s := NewSessions(rdb, time.Hour)
	ctx := context.Background()
	sess := shop.Session{ID: "s1", UserID: "u1"}

	require.NoError(t, s.Save(ctx, sess))
	require.NoError(t, s.Delete(ctx, sess))

	_, found, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists("user_sessions:u1"))
}

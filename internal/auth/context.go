package auth

import (
	"context"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

type sessionKey struct{}

func WithSession(ctx context.Context, s shop.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session the request was made with, if any.
func SessionFrom(ctx context.Context) (shop.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(shop.Session)
	return s, ok
}

// UserFrom is SessionFrom reduced to the signed-in user.
func UserFrom(ctx context.Context) (shop.User, bool) {
	s, ok := SessionFrom(ctx)
	if !ok {
		return shop.User{}, false
	}
	return s.User(), true
}

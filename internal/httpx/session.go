package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-storefront/internal/auth"
	"github.com/ariefcatur/go-storefront/internal/baas"
)

const (
	sessionCookie = "sf_session"
	visitorCookie = "sf_visitor"
)

type visitorKey struct{}

func visitorID(ctx context.Context) string {
	id, _ := ctx.Value(visitorKey{}).(string)
	return id
}

// withSession resolves the session cookie once per request. Handlers read
// the result with auth.SessionFrom; backend table calls made with the
// request context run as the signed-in user.
func (s *Storefront) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		vid := ""
		if c, err := r.Cookie(visitorCookie); err == nil && c.Value != "" {
			vid = c.Value
		} else {
			vid = uuid.NewString()
			s.setCookie(w, visitorCookie, vid, 365*24*time.Hour)
		}
		ctx = context.WithValue(ctx, visitorKey{}, vid)

		if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
			if sess, ok := s.Auth.Session(ctx, c.Value); ok {
				ctx = auth.WithSession(ctx, sess)
				ctx = baas.WithAccessToken(ctx, sess.AccessToken)
			} else {
				s.clearCookie(w, sessionCookie)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Storefront) setCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Storefront) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

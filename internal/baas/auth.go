package baas

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

type authUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u authUser) toUser() shop.User {
	name, _ := u.UserMetadata["name"].(string)
	if name == "" {
		name, _ = u.UserMetadata["full_name"].(string)
	}
	return shop.User{ID: u.ID, Email: u.Email, Name: name}
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	User         authUser `json:"user"`
}

func (tr tokenResponse) session() shop.Session {
	exp := time.Unix(tr.ExpiresAt, 0)
	if tr.ExpiresAt == 0 {
		exp = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	u := tr.User.toUser()
	return shop.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    exp,
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
	}
}

// SignIn exchanges e-mail and password for a session. The returned session
// has no ID; the caller assigns its own.
func (c *Client) SignIn(ctx context.Context, email, password string) (shop.Session, error) {
	var tr tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	}, &tr)
	if err != nil {
		return shop.Session{}, err
	}
	return tr.session(), nil
}

// Refresh trades a refresh token for a new access token. The backend rotates
// refresh tokens, so the old one is spent after a successful call.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (shop.Session, error) {
	var tr tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &tr)
	if err != nil {
		return shop.Session{}, err
	}
	return tr.session(), nil
}

// SignUp registers an account. With e-mail confirmation on, the backend
// answers with the bare user; otherwise with a session wrapping it.
func (c *Client) SignUp(ctx context.Context, name, email, password, redirectTo string) (shop.User, error) {
	var resp struct {
		authUser
		User *authUser `json:"user"`
	}
	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		query:  q,
		body: map[string]any{
			"email":    email,
			"password": password,
			"data":     map[string]string{"name": name, "full_name": name},
		},
	}, &resp)
	if err != nil {
		return shop.User{}, err
	}
	if resp.User != nil {
		return resp.User.toUser(), nil
	}
	return resp.authUser.toUser(), nil
}

func (c *Client) SignOut(ctx context.Context, token string) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/v1/logout", token: token}, nil)
}

func (c *Client) UpdateUser(ctx context.Context, token, name string) (shop.User, error) {
	var u authUser
	err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/auth/v1/user",
		token:  token,
		body:   map[string]any{"data": map[string]string{"name": name, "full_name": name}},
	}, &u)
	if err != nil {
		return shop.User{}, err
	}
	return u.toUser(), nil
}

// Package auth signs customers in and out and answers, for every page load,
// who the current customer is.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ariefcatur/go-storefront/internal/baas"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

const (
	MsgFillAllFields     = "Preencha todos os campos."
	MsgPasswordTooShort  = "A senha deve ter pelo menos 6 caracteres."
	MsgAlreadyRegistered = "Este e-mail já está cadastrado. Faça login."
	MsgRegistered        = "Cadastro realizado! Verifique seu e-mail para confirmação."
	MsgLoggedIn          = "Login realizado com sucesso!"
	MsgEmailConfirmed    = "Email confirmado com sucesso! Faça login."
	MsgProfileUpdated    = "Perfil atualizado com sucesso!"

	MinPasswordLen = 6
)

// Provider is the backend's account API; *baas.Client implements it.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (shop.Session, error)
	SignUp(ctx context.Context, name, email, password, redirectTo string) (shop.User, error)
	SignOut(ctx context.Context, token string) error
	Refresh(ctx context.Context, refreshToken string) (shop.Session, error)
	UpdateUser(ctx context.Context, token, name string) (shop.User, error)
}

var _ Provider = (*baas.Client)(nil)

type Service struct {
	Provider Provider
	Sessions *Sessions
	Verifier *Verifier
	Events   kafkax.Publisher
	// SiteURL is where the confirmation e-mail sends the customer back to.
	SiteURL     string
	ServiceName string
	Log         zerolog.Logger

	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login checks the credentials with the backend and opens a local session.
func (s *Service) Login(ctx context.Context, email, password string) (shop.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return shop.Session{}, shop.NewUserError(MsgFillAllFields)
	}

	sess, err := s.Provider.SignIn(ctx, email, password)
	if err != nil {
		s.Log.Warn().Err(err).Str("email", email).Msg("sign in failed")
		return shop.Session{}, &shop.UserError{Message: "Erro: " + baas.MessageOf(err), Err: err}
	}
	sess.ID = uuid.NewString()
	if err := s.Sessions.Save(ctx, sess); err != nil {
		s.Log.Error().Err(err).Str("user_id", sess.UserID).Msg("store session")
		return shop.Session{}, &shop.UserError{Message: "Erro: " + err.Error(), Err: err}
	}
	s.publish(ctx, shop.SessionSignedIn, sess)
	s.Log.Info().Str("user_id", sess.UserID).Msg("signed in")
	return sess, nil
}

// Register creates the account; the customer still has to confirm the
// e-mail before Login works.
func (s *Service) Register(ctx context.Context, name, email, password string) (shop.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return shop.User{}, shop.NewUserError(MsgFillAllFields)
	}
	if len([]rune(password)) < MinPasswordLen {
		return shop.User{}, shop.NewUserError(MsgPasswordTooShort)
	}

	u, err := s.Provider.SignUp(ctx, name, email, password, s.SiteURL+"/"+PageHome)
	if err != nil {
		msg := baas.MessageOf(err)
		s.Log.Warn().Err(err).Str("email", email).Msg("sign up failed")
		if strings.Contains(strings.ToLower(msg), "already registered") {
			return shop.User{}, &shop.UserError{Message: MsgAlreadyRegistered, Err: err}
		}
		return shop.User{}, &shop.UserError{Message: "Erro: " + msg, Err: err}
	}
	s.Log.Info().Str("user_id", u.ID).Msg("registered")
	return u, nil
}

// Logout ends sess at the backend and locally. A backend failure is logged
// and the local session is dropped anyway.
func (s *Service) Logout(ctx context.Context, sess shop.Session) error {
	if err := s.Provider.SignOut(ctx, sess.AccessToken); err != nil {
		s.Log.Warn().Err(err).Str("user_id", sess.UserID).Msg("backend sign out failed")
	}
	if err := s.Sessions.Delete(ctx, sess); err != nil {
		return err
	}
	s.publish(ctx, shop.SessionSignedOut, sess)
	return nil
}

// Session resolves a session id to a live session. An expired access token
// is renewed with the refresh token; sessions that cannot be renewed and
// sessions whose token no longer verifies are removed.
func (s *Service) Session(ctx context.Context, id string) (shop.Session, bool) {
	sess, found, err := s.Sessions.Get(ctx, id)
	if err != nil {
		s.Log.Error().Err(err).Msg("load session")
		return shop.Session{}, false
	}
	if !found {
		return shop.Session{}, false
	}
	if sess.Expired(s.now()) {
		renewed, err := s.refresh(ctx, sess)
		if err != nil {
			s.Log.Warn().Err(err).Str("user_id", sess.UserID).Msg("refresh session")
			s.drop(ctx, sess, "expired")
			return shop.Session{}, false
		}
		sess = renewed
	}
	if sub, err := s.Verifier.Verify(sess.AccessToken); err != nil || (sub != "" && sub != sess.UserID) {
		s.drop(ctx, sess, "token rejected")
		return shop.Session{}, false
	}
	return sess, true
}

var errNoRefreshToken = errors.New("no refresh token")

// refresh swaps the tokens of sess for fresh ones and saves it under the
// same id, so the browser cookie stays valid.
func (s *Service) refresh(ctx context.Context, sess shop.Session) (shop.Session, error) {
	if sess.RefreshToken == "" {
		return sess, errNoRefreshToken
	}
	next, err := s.Provider.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		return sess, err
	}
	if next.UserID != "" && next.UserID != sess.UserID {
		return sess, fmt.Errorf("refreshed session belongs to %s", next.UserID)
	}
	sess.AccessToken = next.AccessToken
	sess.ExpiresAt = next.ExpiresAt
	if next.RefreshToken != "" {
		sess.RefreshToken = next.RefreshToken
	}
	if next.Email != "" {
		sess.Email = next.Email
	}
	if next.Name != "" {
		sess.Name = next.Name
	}
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return sess, err
	}
	s.publish(ctx, shop.SessionTokenRefreshed, sess)
	s.Log.Info().Str("user_id", sess.UserID).Msg("session refreshed")
	return sess, nil
}

func (s *Service) drop(ctx context.Context, sess shop.Session, why string) {
	s.Log.Info().Str("user_id", sess.UserID).Str("reason", why).Msg("session ended")
	if err := s.Sessions.Delete(ctx, sess); err != nil {
		s.Log.Warn().Err(err).Msg("delete session")
	}
}

func (s *Service) CurrentUser(ctx context.Context, sessionID string) (shop.User, bool) {
	sess, ok := s.Session(ctx, sessionID)
	if !ok {
		return shop.User{}, false
	}
	return sess.User(), true
}

func (s *Service) IsAuthenticated(ctx context.Context, sessionID string) bool {
	_, ok := s.Session(ctx, sessionID)
	return ok
}

// UpdateProfile changes the display name and returns the updated session.
func (s *Service) UpdateProfile(ctx context.Context, sess shop.Session, name string) (shop.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return sess, shop.NewUserError(MsgFillAllFields)
	}
	u, err := s.Provider.UpdateUser(ctx, sess.AccessToken, name)
	if err != nil {
		s.Log.Warn().Err(err).Str("user_id", sess.UserID).Msg("update user failed")
		return sess, &shop.UserError{Message: "Erro: " + baas.MessageOf(err), Err: err}
	}
	if u.Email != "" {
		sess.Email = u.Email
	}
	sess.Name = u.Name
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return sess, err
	}
	s.publish(ctx, shop.SessionUserUpdated, sess)
	return sess, nil
}

func (s *Service) publish(ctx context.Context, change string, sess shop.Session) {
	if s.Events == nil {
		return
	}
	env := kafkax.NewEnvelope(shop.EventSessionChanged, s.ServiceName, middleware.GetReqID(ctx), sess.UserID, shop.SessionChangedPayload{
		Change:    change,
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Email:     sess.Email,
		Name:      sess.Name,
	})
	kafkax.PublishEnvelope(s.Events, shop.UserKey(sess.UserID), env)
}

package baas

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignIn(t *testing.T) {
	cl, got := newTestClient(t, http.StatusOK, `{
		"access_token":"jwt-1","refresh_token":"r-1","expires_in":3600,"expires_at":1900000000,
		"user":{"id":"u1","email":"ana@example.com","user_metadata":{"name":"Ana"}}}`)

	s, err := cl.SignIn(context.Background(), "ana@example.com", "secret1")

	require.NoError(t, err)
	assert.Equal(t, "/auth/v1/token", got.path)
	assert.Equal(t, []string{"password"}, got.query["grant_type"])
	assert.JSONEq(t, `{"email":"ana@example.com","password":"secret1"}`, string(got.body))
	assert.Equal(t, "jwt-1", s.AccessToken)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "Ana", s.Name)
	assert.Equal(t, time.Unix(1900000000, 0), s.ExpiresAt)
}

func TestRefreshUsesRefreshGrant(t *testing.T) {
	cl, got := newTestClient(t, http.StatusOK, `{
		"access_token":"jwt-2","refresh_token":"r-2","expires_in":3600,"expires_at":1900003600,
		"user":{"id":"u1","email":"ana@example.com","user_metadata":{"full_name":"Ana"}}}`)

	s, err := cl.Refresh(context.Background(), "r-1")

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/auth/v1/token", got.path)
	assert.Equal(t, []string{"refresh_token"}, got.query["grant_type"])
	assert.JSONEq(t, `{"refresh_token":"r-1"}`, string(got.body))
	assert.Equal(t, "jwt-2", s.AccessToken)
	assert.Equal(t, "r-2", s.RefreshToken)
	assert.Equal(t, "Ana", s.Name)
	assert.Equal(t, time.Unix(1900003600, 0), s.ExpiresAt)
}

func TestRefreshRejected(t *testing.T) {
	cl, _ := newTestClient(t, http.StatusBadRequest,
		`{"error":"invalid_grant","error_description":"Invalid Refresh Token: Already Used"}`)

	_, err := cl.Refresh(context.Background(), "r-1")

	require.Error(t, err)
	assert.Equal(t, "Invalid Refresh Token: Already Used", MessageOf(err))
}

func TestSignInInvalidCredentials(t *testing.T) {
	cl, _ := newTestClient(t, http.StatusBadRequest,
		`{"error":"invalid_grant","error_description":"Invalid login credentials"}`)

	_, err := cl.SignIn(context.Background(), "ana@example.com", "nope")

	require.Error(t, err)
	assert.Equal(t, "Invalid login credentials", MessageOf(err))
}

func TestSignUpSendsMetadataAndRedirect(t *testing.T) {
	cl, got := newTestClient(t, http.StatusOK,
		`{"id":"u2","email":"bia@example.com","user_metadata":{"full_name":"Bia"}}`)

	u, err := cl.SignUp(context.Background(), "Bia", "bia@example.com", "secret1", "https://loja.example.com/home.html")

	require.NoError(t, err)
	assert.Equal(t, "/auth/v1/signup", got.path)
	assert.Equal(t, []string{"https://loja.example.com/home.html"}, got.query["redirect_to"])
	assert.JSONEq(t, `{"email":"bia@example.com","password":"secret1","data":{"name":"Bia","full_name":"Bia"}}`, string(got.body))
	assert.Equal(t, "u2", u.ID)
	assert.Equal(t, "Bia", u.Name)
}

func TestSignUpSessionShape(t *testing.T) {
	cl, _ := newTestClient(t, http.StatusOK,
		`{"access_token":"jwt","user":{"id":"u3","email":"caio@example.com","user_metadata":{}}}`)

	u, err := cl.SignUp(context.Background(), "", "caio@example.com", "secret1", "")

	require.NoError(t, err)
	assert.Equal(t, "u3", u.ID)
	assert.Equal(t, "caio@example.com", u.DisplayName())
}

func TestSignUpAlreadyRegistered(t *testing.T) {
	cl, _ := newTestClient(t, http.StatusUnprocessableEntity,
		`{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`)

	_, err := cl.SignUp(context.Background(), "Ana", "ana@example.com", "secret1", "")

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "user_already_exists", be.Code)
	assert.Equal(t, "User already registered", be.Message)
}

func TestSignOutAndUpdateUseBearer(t *testing.T) {
	cl, got := newTestClient(t, http.StatusOK, `{"id":"u1","email":"ana@example.com","user_metadata":{"name":"Ana Maria"}}`)

	u, err := cl.UpdateUser(context.Background(), "jwt-1", "Ana Maria")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "Bearer jwt-1", got.header.Get("Authorization"))
	assert.JSONEq(t, `{"data":{"name":"Ana Maria","full_name":"Ana Maria"}}`, string(got.body))
	assert.Equal(t, "Ana Maria", u.Name)

	assert.Equal(t, "/auth/v1/user", got.path)

	require.NoError(t, cl.SignOut(context.Background(), "jwt-1"))
	assert.Equal(t, "/auth/v1/logout", got.path)
}

func TestParseErrorNonJSON(t *testing.T) {
	err := parseError(http.StatusBadGateway, []byte("upstream down"))

	var be *Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "upstream down", be.Message)
	assert.False(t, IsNoRows(err))
}

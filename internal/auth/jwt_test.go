package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/isdelr/mediinsight-be/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingUsers struct{}

func (failingUsers) GetUserByUsername(context.Context, string) (models.User, error) {
	return models.User{}, fmt.Errorf("lookup: %w", services.ErrStorage)
}

type stubUsers map[string]models.User

func (s stubUsers) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	u, ok := s[username]
	if !ok {
		return models.User{}, services.ErrNotFound
	}
	return u, nil
}

func captureIdentity(got **models.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestGenerate_ThenValidate_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	token, err := m.Generate(models.Identity{Username: "alice", IsAdmin: true})
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.IsAdmin)
}

func TestValidate_WrongSecret_Fails(t *testing.T) {
	token, err := NewTokenManager("secret", time.Hour).Generate(models.Identity{Username: "alice"})
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_Expired_Fails(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }
	token, err := m.Generate(models.Identity{Username: "alice"})
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.Validate(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware_NoToken_Anonymous(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	var got *models.Identity

	rec := httptest.NewRecorder()
	m.Middleware(nil)(captureIdentity(&got)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, got)
}

func TestMiddleware_Cookie_ResolvesCurrentAdminFlag(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, err := m.Generate(models.Identity{Username: "bob", IsAdmin: true})
	require.NoError(t, err)
	users := stubUsers{"bob": {Username: "bob", IsAdmin: false}}
	var got *models.Identity

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	m.Middleware(users)(captureIdentity(&got)).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, "bob", got.Username)
	assert.False(t, got.IsAdmin, "the stored flag wins over the token claim")
}

func TestMiddleware_BearerHeader(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, err := m.Generate(models.Identity{Username: "alice"})
	require.NoError(t, err)
	var got *models.Identity

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	m.Middleware(nil)(captureIdentity(&got)).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
}

func TestMiddleware_DeletedUser_Anonymous(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, err := m.Generate(models.Identity{Username: "ghost"})
	require.NoError(t, err)
	var got *models.Identity

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	m.Middleware(stubUsers{})(captureIdentity(&got)).ServeHTTP(httptest.NewRecorder(), req)

	assert.Nil(t, got)
}

func TestMiddleware_GarbageToken_Anonymous(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	var got *models.Identity

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-jwt"})
	m.Middleware(nil)(captureIdentity(&got)).ServeHTTP(httptest.NewRecorder(), req)

	assert.Nil(t, got)
}

func TestSetCookie_AndClear(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	rec := httptest.NewRecorder()
	m.SetCookie(rec, "abc", false)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	rec = httptest.NewRecorder()
	ClearCookie(rec, false)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestMiddleware_StorageFailure_InternalError(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, err := m.Generate(models.Identity{Username: "alice"})
	require.NoError(t, err)
	var got *models.Identity

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rec := httptest.NewRecorder()
	m.Middleware(failingUsers{})(captureIdentity(&got)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Nil(t, got)
}

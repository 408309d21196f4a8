// Package auth issues and verifies session tokens and attaches the caller's
// identity to the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/isdelr/mediinsight-be/internal/services"
	"github.com/rs/zerolog/log"
)

// CookieName is the session cookie shared by both processes.
const CookieName = "token"

// Claims defines the JWT claims structure.
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// ErrInvalidToken is returned for tokens that are malformed, expired or signed with another key.
var ErrInvalidToken = errors.New("invalid auth token")

// TokenManager signs and validates session tokens with one HMAC secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager. Tokens expire after ttl.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Generate creates a new JWT for identity.
func (m *TokenManager) Generate(identity models.Identity) (string, error) {
	now := m.now()
	claims := &Claims{
		Username: identity.Username,
		IsAdmin:  identity.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses and validates a JWT string.
func (m *TokenManager) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SetCookie writes the session cookie for token.
func (m *TokenManager) SetCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  m.now().Add(m.ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// tokenFromRequest reads the bearer token, falling back to the cookie.
func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if tokenStr, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(tokenStr)
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// IdentityResolver re-reads the account behind a token so a revoked admin flag
// takes effect before the token expires.
type IdentityResolver interface {
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

type contextKey string

const identityKey = contextKey("identity")

// Middleware attaches the caller's identity to the context when a valid token
// is present. It never rejects a request; the access policy decides.
func (m *TokenManager) Middleware(users IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := m.Validate(tokenStr)
			if err != nil {
				log.Debug().Err(err).Msg("Ignoring invalid session token")
				next.ServeHTTP(w, r)
				return
			}

			identity := models.Identity{Username: claims.Username, IsAdmin: claims.IsAdmin}
			if users != nil {
				user, err := users.GetUserByUsername(r.Context(), claims.Username)
				if errors.Is(err, services.ErrNotFound) {
					log.Debug().Str("username", claims.Username).Msg("Session user no longer exists")
					next.ServeHTTP(w, r)
					return
				}
				if err != nil {
					log.Error().Err(err).Str("username", claims.Username).Msg("Failed to resolve session user")
					http.Error(w, "Failed to resolve session", http.StatusInternalServerError)
					return
				}
				identity = user.Identity()
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, &identity)
}

// IdentityFromContext returns the identity attached by Middleware, or nil for an anonymous request.
func IdentityFromContext(ctx context.Context) *models.Identity {
	identity, _ := ctx.Value(identityKey).(*models.Identity)
	return identity
}

package jwtauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-chatbot-be/internal/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by access tokens. ID (jti) identifies the token for logout.
type Claims struct {
	UserId uint `json:"user_id"`
	jwt.RegisteredClaims
}

// Denylist remembers revoked token ids until they expire.
type Denylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Issuer interface {
	Issue(userId uint) (token string, expiresAt time.Time, err error)
}

// Verifier turns a bearer token into an authenticated principal.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

type Manager struct {
	secret   []byte
	ttl      time.Duration
	denylist Denylist
	now      func() time.Time
}

func NewManager(secret string, ttl time.Duration, denylist Denylist) *Manager {
	return &Manager{
		secret:   []byte(secret),
		ttl:      ttl,
		denylist: denylist,
		now:      time.Now,
	}
}

func (m *Manager) Issue(userId uint) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, apperror.Configuration("JWT_SECRET is not configured")
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := Claims{
		UserId: userId,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, apperror.Internal("failed to sign token", err)
	}
	return token, expiresAt, nil
}

func (m *Manager) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	if len(m.secret) == 0 {
		return nil, apperror.Unauthorized("Invalid token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenStr), claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.Unauthorized("Token expired")
		}
		return nil, apperror.Unauthorized("Invalid token")
	}
	if claims.UserId == 0 {
		return nil, apperror.Unauthorized("Invalid claims")
	}

	if m.denylist != nil && claims.ID != "" {
		revoked, err := m.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperror.Internal("failed to check token revocation", err)
		}
		if revoked {
			return nil, apperror.Unauthorized("Token revoked")
		}
	}
	return claims, nil
}

// Revoke denylists the token until its own expiry.
func (m *Manager) Revoke(ctx context.Context, claims *Claims) error {
	if m.denylist == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return m.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Revoker invalidates a token before its expiry.
type Revoker interface {
	Revoke(ctx context.Context, claims *Claims) error
}

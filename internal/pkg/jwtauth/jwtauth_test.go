package jwtauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/repository/memory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("s3cret", 30*time.Minute, memory.NewTokenDenylist())

	token, expiresAt, err := m.Issue(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := m.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserId)
	assert.NotEmpty(t, claims.ID)
}

func TestVerifyRejects(t *testing.T) {
	m := NewManager("s3cret", 30*time.Minute, nil)
	good, _, err := m.Issue(1)
	require.NoError(t, err)

	otherKey, _, err := NewManager("other", time.Minute, nil).Issue(1)
	require.NoError(t, err)

	expiredMgr := NewManager("s3cret", time.Minute, nil)
	expiredMgr.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _, err := expiredMgr.Issue(1)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserId: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong key", otherKey},
		{"expired", expired},
		{"none algorithm", noneAlg},
		{"truncated", good[:len(good)-4]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(context.Background(), tt.token)
			assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
		})
	}
}

func TestRevokedTokenIsRejected(t *testing.T) {
	ctx := context.Background()
	m := NewManager("s3cret", 30*time.Minute, memory.NewTokenDenylist())

	token, _, err := m.Issue(7)
	require.NoError(t, err)
	claims, err := m.Verify(ctx, token)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, claims))

	_, err = m.Verify(ctx, token)
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))

	// A fresh token for the same user still works.
	other, _, err := m.Issue(7)
	require.NoError(t, err)
	_, err = m.Verify(ctx, other)
	assert.NoError(t, err)
}

func TestIssueWithoutSecret(t *testing.T) {
	_, _, err := NewManager("", time.Minute, nil).Issue(1)
	assert.True(t, errors.Is(err, apperror.ErrConfiguration))
}

package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/zhouzirui/safespeak/backend/internal/model/user"
)

func newTestService() *Service {
	return NewService(user.NewMemoryStore(), Config{Secret: "test-secret", TTL: time.Hour, BcryptCost: bcrypt.MinCost})
}

func TestSignupAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.Signup(ctx, " alice ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.NotEqual(t, "pw", created.PasswordHash)

	token, account, err := svc.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, created.ID, account.ID)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, "  ", "pw")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Signup(ctx, "bob", "")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Signup(ctx, "bob", strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = svc.Signup(ctx, "bob", "pw")
	require.NoError(t, err)
	_, err = svc.Signup(ctx, "bob", "other")
	assert.ErrorIs(t, err, user.ErrUserExists)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	_, err := svc.Signup(ctx, "carol", "right")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "carol", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "right")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseTokenRejectsExpiredAndForeign(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	_, err := svc.Signup(ctx, "dave", "pw")
	require.NoError(t, err)

	token, _, err := svc.Login(ctx, "dave", "pw")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewService(user.NewMemoryStore(), Config{Secret: "another-secret", BcryptCost: bcrypt.MinCost})
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ParseToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

package local

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret, email, uid string, expiry time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":   "acs-local",
		"sub":   uid,
		"email": email,
		"exp":   time.Now().Add(expiry).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyToken(t *testing.T) {
	provider := New(Config{Secret: "secret", Issuer: "acs-local"})
	raw := signToken(t, "secret", "a@x.com", "uid-1", time.Hour)

	verified, err := provider.VerifyToken(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", verified.Email)
	assert.Equal(t, "uid-1", verified.UID)
}

func TestVerifyTokenRejectsBadSignature(t *testing.T) {
	provider := New(Config{Secret: "secret", Issuer: "acs-local"})
	raw := signToken(t, "wrong", "a@x.com", "uid-1", time.Hour)

	_, err := provider.VerifyToken(context.Background(), raw)
	require.Error(t, err)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	provider := New(Config{Secret: "secret", Issuer: "acs-local"})
	raw := signToken(t, "secret", "a@x.com", "uid-1", -time.Minute)

	_, err := provider.VerifyToken(context.Background(), raw)
	require.Error(t, err)
}

func TestAccountLifecycle(t *testing.T) {
	provider := New(Config{Secret: "secret"})
	provider.SeedAccount("b@x.com", "uid-2")

	account, err := provider.AccountByEmail(context.Background(), "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, "uid-2", account.UID)

	require.NoError(t, provider.DeleteAccount(context.Background(), "uid-2"))

	_, err = provider.AccountByEmail(context.Background(), "b@x.com")
	require.Error(t, err)
	require.Error(t, provider.DeleteAccount(context.Background(), "uid-2"))
}

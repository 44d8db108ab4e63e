// internal/pkg/jwt/verifier_test.go
package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyAndVerifier(t *testing.T) (*rsa.PrivateKey, *Verifier) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key, NewVerifier(&key.PublicKey, "tafiti-auth", "tafiti-service")
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims() *Claims {
	return &Claims{
		IdentityID: 42,
		TenantID:   7,
		Roles:      []string{"owner"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "tafiti-auth",
			Audience:  jwt.ClaimStrings{"tafiti-service"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	key, verifier := newKeyAndVerifier(t)

	claims, err := verifier.Verify(signToken(t, key, validClaims()))
	require.NoError(t, err)

	assert.Equal(t, int64(7), claims.TenantID)
	assert.Equal(t, int64(42), claims.IdentityID)
	assert.True(t, claims.HasRole("owner"))
	assert.False(t, claims.HasRole("admin"))
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	key, verifier := newKeyAndVerifier(t)
	claims := validClaims()
	claims.Issuer = "someone-else"

	_, err := verifier.Verify(signToken(t, key, claims))
	assert.Error(t, err)
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	key, verifier := newKeyAndVerifier(t)
	claims := validClaims()
	claims.Audience = jwt.ClaimStrings{"other-service"}

	_, err := verifier.Verify(signToken(t, key, claims))
	assert.Error(t, err)
}

func TestVerifyRejectsMissingTenant(t *testing.T) {
	key, verifier := newKeyAndVerifier(t)
	claims := validClaims()
	claims.TenantID = 0

	_, err := verifier.Verify(signToken(t, key, claims))
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	key, verifier := newKeyAndVerifier(t)
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	_, err := verifier.Verify(signToken(t, key, claims))
	assert.Error(t, err)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	_, verifier := newKeyAndVerifier(t)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	_, err = verifier.Verify(signToken(t, otherKey, validClaims()))
	assert.Error(t, err)
}

func TestVerifyRejectsHMACToken(t *testing.T) {
	_, verifier := newKeyAndVerifier(t)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
	signed, err := token.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.Error(t, err, "alg confusion must be rejected")
}

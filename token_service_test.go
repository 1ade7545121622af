package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	auth "github.com/voyago/go-auth"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	ts := newTestTokenService()

	identity := MockIdentity{
		IDValue:    "user-123",
		EmailValue: "ada@example.com",
		RoleValue:  string(auth.RoleGuide),
	}

	token, err := ts.Generate(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.Subject())
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, string(auth.RoleGuide), claims.Role())
	assert.True(t, claims.HasRole(auth.RoleGuide))
	assert.True(t, claims.IsAtLeast(auth.RoleUser))
	assert.False(t, claims.IsAtLeast(auth.RoleAdmin))

	assert.WithinDuration(t, time.Now(), claims.IssuedAt(), 5*time.Second)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expires(), 5*time.Second)
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	ts := auth.NewTokenService(testSigningKey, -1, "", nil, testLogger{})

	token, err := ts.Generate(MockIdentity{IDValue: "user-123", RoleValue: auth.RoleUser})
	require.NoError(t, err)

	_, err = ts.Validate(token)
	require.Error(t, err)
	assert.True(t, auth.IsTokenExpiredError(err))
	assert.Equal(t, 401, auth.StatusFromError(err))
}

func TestTokenServiceRejectsMalformedToken(t *testing.T) {
	ts := newTestTokenService()

	_, err := ts.Validate("not-a-jwt")
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))
}

func TestTokenServiceRejectsWrongKey(t *testing.T) {
	ts := newTestTokenService()
	other := auth.NewTokenService([]byte("a-different-key"), 1, "", nil, testLogger{})

	token, err := other.Generate(MockIdentity{IDValue: "user-123", RoleValue: auth.RoleUser})
	require.NoError(t, err)

	_, err = ts.Validate(token)
	require.Error(t, err)
}

func TestTokenServiceRejectsWrongSigningMethod(t *testing.T) {
	ts := newTestTokenService()

	// alg none.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-123"},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ts.Validate(token)
	require.Error(t, err)
}

func TestTokenServiceEnforcesIssuerAndAudience(t *testing.T) {
	issuerA := auth.NewTokenService(testSigningKey, 1, "svc-a", jwt.ClaimStrings{"clients"}, testLogger{})
	issuerB := auth.NewTokenService(testSigningKey, 1, "svc-b", jwt.ClaimStrings{"clients"}, testLogger{})

	token, err := issuerB.Generate(MockIdentity{IDValue: "user-123", RoleValue: auth.RoleUser})
	require.NoError(t, err)

	_, err = issuerA.Validate(token)
	require.Error(t, err)

	token, err = issuerA.Generate(MockIdentity{IDValue: "user-123", RoleValue: auth.RoleUser})
	require.NoError(t, err)

	claims, err := issuerA.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject())
}

func TestSignClaimsPreservesCustomClaims(t *testing.T) {
	ts := newTestTokenService()

	now := time.Now()
	token, err := ts.SignClaims(&auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UID:      "user-123",
		UserRole: auth.RoleAdmin,
	})
	require.NoError(t, err)

	claims, err := ts.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role())
	assert.True(t, claims.HasRole(auth.RoleAdmin))
}

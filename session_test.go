package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	auth "github.com/voyago/go-auth"
)

func TestSessionObjectAccessors(t *testing.T) {
	issuedAt := time.Now()

	session := &auth.SessionObject{
		UserID:   "1b3b944c-0c5a-4d3e-8a6f-0d44aa2b67a8",
		Audience: []string{"clients"},
		Issuer:   "svc-auth",
		IssuedAt: &issuedAt,
		Data:     map[string]any{"role": "admin"},
	}

	assert.Equal(t, "1b3b944c-0c5a-4d3e-8a6f-0d44aa2b67a8", session.GetUserID())
	assert.Equal(t, []string{"clients"}, session.GetAudience())
	assert.Equal(t, "svc-auth", session.GetIssuer())
	assert.Equal(t, &issuedAt, session.GetIssuedAt())

	id, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, "1b3b944c-0c5a-4d3e-8a6f-0d44aa2b67a8", id.String())
}

func TestSessionObjectRole(t *testing.T) {
	session := &auth.SessionObject{Data: map[string]any{"role": "admin"}}
	assert.Equal(t, auth.RoleAdmin, session.Role())

	session = &auth.SessionObject{Data: map[string]any{"role": "bogus"}}
	assert.Equal(t, auth.RoleUser, session.Role())

	session = &auth.SessionObject{}
	assert.Equal(t, auth.RoleUser, session.Role())
}

func TestSessionFromTokenCarriesClaims(t *testing.T) {
	auther := auth.NewAuthenticator(&stubProvider{}, testEnvConfig())

	token, err := auther.TokenService().Generate(MockIdentity{
		IDValue:   "1b3b944c-0c5a-4d3e-8a6f-0d44aa2b67a8",
		RoleValue: auth.RoleGuide,
	})
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	assert.Equal(t, "1b3b944c-0c5a-4d3e-8a6f-0d44aa2b67a8", session.GetUserID())
	assert.Equal(t, auth.RoleGuide, session.GetData()["role"])
	require.NotNil(t, session.GetIssuedAt())
	assert.WithinDuration(t, time.Now(), *session.GetIssuedAt(), 5*time.Second)
}

func TestSessionFromTokenRejectsGarbage(t *testing.T) {
	auther := auth.NewAuthenticator(&stubProvider{}, testEnvConfig())

	_, err := auther.SessionFromToken("garbage")
	assert.Error(t, err)
}

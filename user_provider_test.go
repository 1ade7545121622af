package auth_test

import (
	"context"
	"testing"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	auth "github.com/voyago/go-auth"
)

func TestVerifyIdentityMatchesStoredHash(t *testing.T) {
	hash, err := auth.HashPassword("pass1234")
	require.NoError(t, err)

	user := &auth.User{
		ID:           uuid.New(),
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		Role:         auth.RoleUser,
		PasswordHash: hash,
	}

	store := new(MockUsers)
	store.On("GetByEmailWithPassword", mock.Anything, "ada@example.com").Return(user, nil)

	provider := auth.NewUserProvider(store).WithLogger(testLogger{})

	identity, err := provider.VerifyIdentity(context.Background(), "ada@example.com", "pass1234")
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), identity.ID())
	assert.Equal(t, "ada@example.com", identity.Email())
	assert.Equal(t, auth.RoleUser, identity.Role())
}

func TestVerifyIdentityUnknownEmailAndBadPasswordLookAlike(t *testing.T) {
	hash, err := auth.HashPassword("pass1234")
	require.NoError(t, err)

	store := new(MockUsers)
	store.On("GetByEmailWithPassword", mock.Anything, "nobody@example.com").
		Return(nil, repository.NewRecordNotFound())
	store.On("GetByEmailWithPassword", mock.Anything, "ada@example.com").
		Return(&auth.User{ID: uuid.New(), PasswordHash: hash}, nil)

	provider := auth.NewUserProvider(store).WithLogger(testLogger{})

	_, errUnknown := provider.VerifyIdentity(context.Background(), "nobody@example.com", "pass1234")
	_, errBadPass := provider.VerifyIdentity(context.Background(), "ada@example.com", "wrongpass")

	assert.ErrorIs(t, errUnknown, auth.ErrInvalidCredentials)
	assert.ErrorIs(t, errBadPass, auth.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errBadPass.Error())
}

func TestVerifyIdentityPropagatesStoreFailures(t *testing.T) {
	store := new(MockUsers)
	store.On("GetByEmailWithPassword", mock.Anything, "ada@example.com").
		Return(nil, assertableErr("connection reset"))

	provider := auth.NewUserProvider(store).WithLogger(testLogger{})

	_, err := provider.VerifyIdentity(context.Background(), "ada@example.com", "pass1234")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

// recordingPasswords accepts every password and records what it was asked
// to compare.
type recordingPasswords struct {
	comparedPassword string
	comparedHash     string
}

func (r *recordingPasswords) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func (r *recordingPasswords) ComparePasswordAndHash(password, hash string) error {
	r.comparedPassword = password
	r.comparedHash = hash
	return nil
}

func TestVerifyIdentityUsesInjectedPasswordAuthenticator(t *testing.T) {
	user := &auth.User{
		ID:           uuid.New(),
		Email:        "ada@example.com",
		Role:         auth.RoleUser,
		PasswordHash: "stored-hash",
	}

	store := new(MockUsers)
	store.On("GetByEmailWithPassword", mock.Anything, "ada@example.com").Return(user, nil)

	passwords := &recordingPasswords{}
	provider := auth.NewUserProvider(store).
		WithLogger(testLogger{}).
		WithPasswordAuthenticator(passwords)

	identity, err := provider.VerifyIdentity(context.Background(), "ada@example.com", "anything-goes")
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), identity.ID())
	assert.Equal(t, "anything-goes", passwords.comparedPassword)
	assert.Equal(t, "stored-hash", passwords.comparedHash)
}

func TestBcryptPasswordsRoundTrip(t *testing.T) {
	var passwords auth.PasswordAuthenticator = auth.BcryptPasswords{}

	hash, err := passwords.HashPassword("pass1234")
	require.NoError(t, err)

	require.NoError(t, passwords.ComparePasswordAndHash("pass1234", hash))
	assert.ErrorIs(t,
		passwords.ComparePasswordAndHash("wrongpass", hash),
		auth.ErrMismatchedHashAndPassword,
	)
}

func TestFindIdentityByIdentifier(t *testing.T) {
	id := uuid.New()
	store := new(MockUsers)
	store.On("GetActiveByID", mock.Anything, id.String()).Return(&auth.User{
		ID:    id,
		Email: "ada@example.com",
		Role:  auth.RoleAdmin,
	}, nil)

	provider := auth.NewUserProvider(store).WithLogger(testLogger{})

	identity, err := provider.FindIdentityByIdentifier(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, id.String(), identity.ID())
	assert.Equal(t, auth.RoleAdmin, identity.Role())
}

func TestFindIdentityByIdentifierNotFound(t *testing.T) {
	store := new(MockUsers)
	store.On("GetActiveByID", mock.Anything, "missing").
		Return(nil, repository.NewRecordNotFound())

	provider := auth.NewUserProvider(store).WithLogger(testLogger{})

	_, err := provider.FindIdentityByIdentifier(context.Background(), "missing")
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
}

package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
)

// UserProvider resolves identities against the Users repository. It is the
// one place that reads the hidden password hash column, and it collapses
// every verification failure into the same undifferentiated credential
// error so callers cannot tell which factor was wrong.
type UserProvider struct {
	store     Users
	passwords PasswordAuthenticator
	logger    Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store Users) *UserProvider {
	return &UserProvider{
		store:     store,
		passwords: BcryptPasswords{},
		logger:    defLogger{},
	}
}

func (u *UserProvider) WithLogger(logger Logger) *UserProvider {
	if logger != nil {
		u.logger = logger
	}
	return u
}

func (u *UserProvider) WithPasswordAuthenticator(passwords PasswordAuthenticator) *UserProvider {
	if passwords != nil {
		u.passwords = passwords
	}
	return u
}

// VerifyIdentity checks the email/password pair. Unknown email and wrong
// password are deliberately the same error.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByEmailWithPassword(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			u.logger.Debug("VerifyIdentity no user for identifier")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := u.passwords.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		u.logger.Debug("VerifyIdentity password mismatch for user %s", user.ID)
		return nil, ErrInvalidCredentials
	}

	return NewIdentityFromUser(user), nil
}

// FindIdentityByIdentifier loads an identity by user id, applying the same
// active filter as every default lookup.
func (u *UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.GetActiveByID(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return NewIdentityFromUser(user), nil
}

var _ IdentityProvider = (*UserProvider)(nil)

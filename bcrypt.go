package auth

import (
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password. A malformed stored hash reads the
// same as a mismatch; bcrypt internals never reach the caller.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrMismatchedHashAndPassword
	}
	return nil
}

// BcryptPasswords is the default PasswordAuthenticator, backed by the
// package-level bcrypt helpers. Swap it out on the UserProvider to change
// the hashing scheme without touching the verification flow.
type BcryptPasswords struct{}

var _ PasswordAuthenticator = BcryptPasswords{}

func (BcryptPasswords) HashPassword(password string) (string, error) {
	return HashPassword(password)
}

func (BcryptPasswords) ComparePasswordAndHash(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}

// RandomPasswordHash is a temporary password
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}

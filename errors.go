package auth

import (
	stderrors "errors"
	"strings"

	"github.com/goliatone/go-errors"
)

// CodeSessionInvalidated is surfaced when a still-valid token was issued
// before the user's last password change. Distinct from a plain 401 so
// clients can prompt a re-login instead of treating it as a bad credential.
const CodeSessionInvalidated = 440

const (
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeUnauthenticated    = "UNAUTHENTICATED"
	TextCodeSessionInvalidated = "SESSION_INVALIDATED"
	TextCodeForbidden          = "FORBIDDEN"
	TextCodeResetTokenInvalid  = "RESET_TOKEN_INVALID"
	TextCodeResetDeliveryFail  = "RESET_DELIVERY_FAILED"
)

// ErrInvalidCredentials deliberately covers both "no such email" and "wrong
// password" so callers cannot learn which factor failed.
var ErrInvalidCredentials = errors.New("incorrect email or password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCredentials)

// ErrUnauthenticated covers missing, malformed, expired, and badly signed
// tokens as well as tokens whose subject no longer resolves to an active
// user. The gate never tells the caller which one it was.
var ErrUnauthenticated = errors.New("you are not logged in, please log in to get access", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthenticated)

// ErrSessionInvalidated means the token is structurally fine but the password
// changed after it was issued.
var ErrSessionInvalidated = errors.New("session expired, please log in again", errors.CategoryAuth).
	WithCode(CodeSessionInvalidated).
	WithTextCode(TextCodeSessionInvalidated)

var ErrForbidden = errors.New("you do not have permission to perform this action", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode(TextCodeForbidden)

// ErrInvalidResetToken does not distinguish a wrong token from an expired
// one; both read the same to avoid an oracle.
var ErrInvalidResetToken = errors.New("reset token is invalid or has expired", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeResetTokenInvalid)

// ErrResetDeliveryFailed is returned after the reset fields have been rolled
// back, so no valid reset token dangles without the user having received it.
var ErrResetDeliveryFailed = errors.New("there was an error sending the email, please try again later", errors.CategoryOperation).
	WithCode(errors.CodeInternal).
	WithTextCode(TextCodeResetDeliveryFail)

var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrMismatchedHashAndPassword is the single verify failure for both a wrong
// password and a malformed stored hash.
var ErrMismatchedHashAndPassword = stderrors.New("hashed password does not match")

// ErrPasswordTooShort enforces the minimum password length policy.
var ErrPasswordTooShort = errors.New("password must be at least 8 characters", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = stderrors.New("identity not found")

// ErrUnableToFindSession is the error when our request has no token
var ErrUnableToFindSession = stderrors.New("unable to find session")

// ErrUnableToDecodeSession unable to decode JWT from session token
var ErrUnableToDecodeSession = stderrors.New("unable to decode session")

// ErrUnableToParseData parse error
var ErrUnableToParseData = stderrors.New("unable to parse data")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// StatusFromError maps an error to the HTTP-ish code carried by rich errors,
// defaulting to 500 for anything unexpected.
func StatusFromError(err error) int {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Code > 0 {
		return int(richErr.Code)
	}
	return 500
}

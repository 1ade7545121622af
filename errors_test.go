package auth_test

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	auth "github.com/voyago/go-auth"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"invalid credentials", auth.ErrInvalidCredentials, 401},
		{"unauthenticated", auth.ErrUnauthenticated, 401},
		{"session invalidated", auth.ErrSessionInvalidated, 440},
		{"forbidden", auth.ErrForbidden, 403},
		{"invalid reset token", auth.ErrInvalidResetToken, 400},
		{"reset delivery failed", auth.ErrResetDeliveryFailed, 500},
		{"expired token", auth.ErrTokenExpired, 401},
		{"malformed token", auth.ErrTokenMalformed, 401},
		{"plain error", assertableErr("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, auth.StatusFromError(tt.err))
		})
	}
}

func TestSessionInvalidatedCarriesDistinctCode(t *testing.T) {
	assert.Equal(t, 440, auth.CodeSessionInvalidated)
	assert.Equal(t, "SESSION_INVALIDATED", auth.ErrSessionInvalidated.TextCode)
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, auth.IsTokenExpiredError(auth.ErrTokenExpired))
	assert.True(t, auth.IsTokenExpiredError(assertableErr("token is expired by 1h")))
	assert.False(t, auth.IsTokenExpiredError(auth.ErrTokenMalformed))
	assert.False(t, auth.IsTokenExpiredError(nil))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, auth.IsMalformedError(auth.ErrTokenMalformed))
	assert.True(t, auth.IsMalformedError(assertableErr("missing or malformed JWT")))
	assert.False(t, auth.IsMalformedError(auth.ErrTokenExpired))
	assert.False(t, auth.IsMalformedError(nil))
}

func TestWrappedRichErrorsKeepTheirStatus(t *testing.T) {
	err := goerrors.Wrap(auth.ErrForbidden, goerrors.CategoryAuthz, "nested").
		WithCode(goerrors.CodeForbidden)
	assert.Equal(t, 403, auth.StatusFromError(err))
}

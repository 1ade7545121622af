package auth_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	auth "github.com/voyago/go-auth"
)

func TestFinalizePasswordResetReplacesPasswordAndIssuesToken(t *testing.T) {
	users := &MockUsers{}
	repo := newFakeRepoManager(users)
	tokens := newTestTokenService()

	reset, err := auth.NewResetToken()
	require.NoError(t, err)

	user := &auth.User{ID: uuid.New(), Email: "ada@example.com", Role: auth.RoleUser, Active: true}

	users.On("GetByResetDigest", mock.Anything, reset.Digest).Return(user, nil).Once()
	users.On("UpdatePasswordTx", mock.Anything, mock.Anything, user.ID, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			hash := args.Get(3).(string)
			require.NoError(t, auth.ComparePasswordAndHash("newpass123", hash))
		}).
		Return(nil).Once()

	var res *auth.FinalizePasswordResetResponse
	event := auth.FinalizePasswordResetMessage{
		Token:           reset.Plain,
		Password:        "newpass123",
		PasswordConfirm: "newpass123",
		OnResponse: func(resp *auth.FinalizePasswordResetResponse) {
			res = resp
		},
	}

	handler := auth.NewFinalizePasswordResetHandler(repo, tokens).WithLogger(testLogger{})
	require.NoError(t, handler.Execute(context.Background(), event))

	require.NotNil(t, res)
	claims, err := tokens.Validate(res.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID.String(), claims.Subject())

	users.AssertExpectations(t)
}

func TestFinalizePasswordResetRejectsUnknownToken(t *testing.T) {
	users := &MockUsers{}
	repo := newFakeRepoManager(users)

	users.On("GetByResetDigest", mock.Anything, mock.Anything).
		Return(nil, repository.NewRecordNotFound()).Once()

	event := auth.FinalizePasswordResetMessage{
		Token:           "bogus-token",
		Password:        "newpass123",
		PasswordConfirm: "newpass123",
	}

	handler := auth.NewFinalizePasswordResetHandler(repo, newTestTokenService()).WithLogger(testLogger{})
	err := handler.Execute(context.Background(), event)
	require.ErrorIs(t, err, auth.ErrInvalidResetToken)
	require.Equal(t, 400, auth.StatusFromError(err))

	users.AssertNotCalled(t, "UpdatePasswordTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizePasswordResetRejectsMismatchedPasswords(t *testing.T) {
	users := &MockUsers{}
	repo := newFakeRepoManager(users)

	event := auth.FinalizePasswordResetMessage{
		Token:           "whatever",
		Password:        "newpass123",
		PasswordConfirm: "different1",
	}

	handler := auth.NewFinalizePasswordResetHandler(repo, newTestTokenService()).WithLogger(testLogger{})
	err := handler.Execute(context.Background(), event)
	require.Error(t, err)

	users.AssertNotCalled(t, "GetByResetDigest", mock.Anything, mock.Anything)
}

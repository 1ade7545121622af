package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// UpdatePasswordMessage changes the password of an authenticated user. The
// caller must prove knowledge of the current password even though the
// request already carries a valid session token.
type UpdatePasswordMessage struct {
	UserID          string `json:"user_id"`
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	OnResponse      func(resp *UpdatePasswordResponse) `json:"-"`
}

func (p UpdatePasswordMessage) Type() string { return "user.password_update" }

func (p UpdatePasswordMessage) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.UserID, validation.Required),
		validation.Field(&p.PasswordCurrent, validation.Required),
		validation.Field(&p.Password, validation.Required, validation.Length(MinPasswordLength, 72)),
		validation.Field(&p.PasswordConfirm, validation.Required, validation.By(matches(p.Password))),
	)
}

type UpdatePasswordResponse struct {
	User  *User
	Token string
}

type UpdatePasswordHandler struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

// NewUpdatePasswordHandler creates a handler with sane defaults.
func NewUpdatePasswordHandler(repo RepositoryManager, tokens TokenService) *UpdatePasswordHandler {
	return &UpdatePasswordHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *UpdatePasswordHandler) WithLogger(logger Logger) *UpdatePasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdatePasswordHandler) Execute(ctx context.Context, event UpdatePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdatePasswordHandler) execute(ctx context.Context, event UpdatePasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password update payload")
	}

	user, err := h.repo.Users().GetActiveByIDWithPassword(ctx, event.UserID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUnauthenticated
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve user record")
	}

	if err := ComparePasswordAndHash(event.PasswordCurrent, user.PasswordHash); err != nil {
		h.logger.Warn("password update rejected: current password mismatch user=%s", user.ID)
		return ErrInvalidCredentials
	}

	passwordHash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.Users().UpdatePasswordTx(ctx, tx, user.ID, passwordHash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password")
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
	}

	// Every other session dies at the gate once password_changed_at moves;
	// this response carries the one token that stays valid.
	token, err := h.tokens.Generate(NewIdentityFromUser(user))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session token")
	}

	if event.OnResponse != nil {
		event.OnResponse(&UpdatePasswordResponse{User: user, Token: token})
	}

	return nil
}

package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Token           string `json:"token" doc:"Opaque reset token from the emailed link."`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	OnResponse      func(resp *FinalizePasswordResetResponse) `json:"-"`
}

func (p FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

func (p FinalizePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Token, validation.Required),
		validation.Field(&p.Password, validation.Required, validation.Length(MinPasswordLength, 72)),
		validation.Field(&p.PasswordConfirm, validation.Required, validation.By(matches(p.Password))),
	)
}

type FinalizePasswordResetResponse struct {
	User  *User
	Token string
}

type FinalizePasswordResetHandler struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
func NewFinalizePasswordResetHandler(repo RepositoryManager, tokens TokenService) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid reset payload")
	}

	// Wrong token and expired token land in the same branch: the lookup
	// matches fingerprint and unexpired expiry together.
	user, err := h.repo.Users().GetByResetDigest(ctx, DigestResetToken(event.Token))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrInvalidResetToken
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve password reset request")
	}

	passwordHash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Single statement: new hash, password_changed_at stamp, reset
		// fields cleared.
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
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	// Auto-login: the reset explicitly issues a fresh token, which must
	// itself pass the gate's password-change check.
	token, err := h.tokens.Generate(NewIdentityFromUser(user))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session token")
	}

	if event.OnResponse != nil {
		event.OnResponse(&FinalizePasswordResetResponse{User: user, Token: token})
	}

	return nil
}

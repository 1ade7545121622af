package auth

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type InitializePasswordResetMessage struct {
	Email string `json:"email" doc:"Account email the reset link is sent to."`
	// ResetURLBase is the caller-facing prefix the opaque token is appended
	// to, e.g. https://host/api/v1/users/resetPassword
	ResetURLBase string                                      `json:"-"`
	OnResponse   func(resp *InitializePasswordResetResponse) `json:"-"`
}

func (p InitializePasswordResetMessage) Type() string { return "user.password_reset" }

type InitializePasswordResetResponse struct {
	Delivered bool
	ExpiresAt time.Time
}

// InitializePasswordResetHandler starts the forgot-password flow. Unlike
// login, an unknown email surfaces as a 404 here; the original exposes
// account existence on this one path and the asymmetry is kept as observed,
// pending a product decision.
type InitializePasswordResetHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, mailer Mailer) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return goerrors.New("there is no user with that email address", goerrors.CategoryNotFound).
				WithCode(goerrors.CodeNotFound)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	reset, err := NewResetToken()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate reset token")
	}

	// Persist fingerprint and expiry only; the opaque value goes out in the
	// email and is gone. Replaces any prior pending reset by overwrite.
	if err := h.repo.Users().SetResetToken(ctx, user.ID, reset.Digest, reset.ExpiresAt); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store reset token")
	}

	resetURL := fmt.Sprintf("%s/%s", event.ResetURLBase, reset.Plain)

	if err := h.mailer.SendPasswordReset(ctx, user, resetURL); err != nil {
		h.logger.Error("reset email delivery failed, rolling back token: %v", err)

		// A reset token the user never received must not stay live.
		if clearErr := h.repo.Users().ClearResetToken(context.WithoutCancel(ctx), user.ID); clearErr != nil {
			h.logger.Error("failed to roll back reset token for user %s: %v", user.ID, clearErr)
		}

		return ErrResetDeliveryFailed
	}

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{
			Delivered: true,
			ExpiresAt: reset.ExpiresAt,
		})
	}

	return nil
}

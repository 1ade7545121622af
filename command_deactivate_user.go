package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// DeactivateUserMessage soft-deletes the caller's own account. The record
// stays in the table with active set false, which hides it from every
// lookup and immediately invalidates the sessions that point at it.
type DeactivateUserMessage struct {
	UserID     string `json:"user_id"`
	OnResponse func() `json:"-"`
}

func (p DeactivateUserMessage) Type() string { return "user.deactivate" }

func (p DeactivateUserMessage) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.UserID, validation.Required),
	)
}

type DeactivateUserHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewDeactivateUserHandler(repo RepositoryManager) *DeactivateUserHandler {
	return &DeactivateUserHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *DeactivateUserHandler) WithLogger(logger Logger) *DeactivateUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *DeactivateUserHandler) Execute(ctx context.Context, event DeactivateUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account deactivation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *DeactivateUserHandler) execute(ctx context.Context, event DeactivateUserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid deactivation payload")
	}

	user, err := h.repo.Users().GetActiveByID(ctx, event.UserID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUnauthenticated
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve user record")
	}

	if err := h.repo.Users().Deactivate(ctx, user.ID); err != nil {
		if repository.IsRecordNotFound(err) {
			// Another request deactivated the record between the read and
			// the write, which is the outcome we wanted anyway.
			h.logger.Info("account already deactivated user=%s", user.ID)
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deactivate user")
	}

	h.logger.Info("account deactivated user=%s", user.ID)

	if event.OnResponse != nil {
		event.OnResponse()
	}

	return nil
}

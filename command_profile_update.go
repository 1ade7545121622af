package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// UpdateProfileMessage updates the self-service profile attributes. The
// write is whitelisted to name, email, and photo; credential fields travel
// through the password routes and are rejected here outright.
type UpdateProfileMessage struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Photo  string `json:"photo"`

	// Password and PasswordConfirm are decoded only so their presence can
	// be rejected with a pointer to the right route.
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`

	OnResponse func(resp *UpdateProfileResponse) `json:"-"`
}

func (p UpdateProfileMessage) Type() string { return "user.profile_update" }

func (p UpdateProfileMessage) Validate() error {
	if p.Password != "" || p.PasswordConfirm != "" {
		return goerrors.New(
			"this route is not for password updates, please use the update password route",
			goerrors.CategoryBadInput,
		).WithCode(goerrors.CodeBadRequest)
	}

	return validation.ValidateStruct(&p,
		validation.Field(&p.UserID, validation.Required),
		validation.Field(&p.Email, is.Email),
	)
}

type UpdateProfileResponse struct {
	User *User
}

type UpdateProfileHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewUpdateProfileHandler creates a handler with sane defaults.
func NewUpdateProfileHandler(repo RepositoryManager) *UpdateProfileHandler {
	return &UpdateProfileHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *UpdateProfileHandler) WithLogger(logger Logger) *UpdateProfileHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid profile payload")
	}

	user, err := h.repo.Users().GetActiveByID(ctx, event.UserID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrUnauthenticated
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve user record")
	}

	// Omitted fields keep their stored values, so resubmitting the same
	// payload is idempotent.
	if event.Name != "" {
		user.Name = event.Name
	}
	if event.Email != "" {
		user.Email = NormalizeEmail(event.Email)
	}
	if event.Photo != "" {
		user.Photo = event.Photo
	}

	var updated *User
	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := h.repo.Users().UpdateFieldsTx(ctx, tx, user)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user record")
		}
		updated = record
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update profile")
	}

	if event.OnResponse != nil {
		event.OnResponse(&UpdateProfileResponse{User: updated})
	}

	return nil
}

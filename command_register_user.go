package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Photo           string `json:"photo"`
	Role            string `json:"role"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	UseHashid       bool   `json:"-"`
	WelcomeURL      string `json:"-"`
	OnResponse      func(resp *RegisterUserResponse) `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate will run validation rules.
// The role field is accepted from the caller (matching the original API
// surface) but constrained to the known enum; hardening candidate, see
// DESIGN.md.
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(MinPasswordLength, 72)),
		validation.Field(&e.PasswordConfirm, validation.Required, validation.By(matches(e.Password))),
		validation.Field(&e.Role, validation.In(RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin)),
	)
}

func matches(password string) validation.RuleFunc {
	return func(value any) error {
		confirm, _ := value.(string)
		if confirm != password {
			return goerrors.New("passwords are not the same", goerrors.CategoryValidation)
		}
		return nil
	}
}

type RegisterUserResponse struct {
	User  *User
	Token string
}

type RegisterUserHandler struct {
	repo   RepositoryManager
	tokens TokenService
	mailer Mailer
	logger Logger
}

func NewRegisterUserHandler(repo RepositoryManager, tokens TokenService, mailer Mailer) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid signup payload")
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Name = event.Name
		user.Photo = event.Photo
		user.Role = UserRole(event.Role)
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	token, err := h.tokens.Generate(NewIdentityFromUser(user))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue session token")
	}

	// Welcome delivery is fire and forget: a dead mail relay must not fail
	// an otherwise completed signup.
	go func(u User, url string) {
		if err := h.mailer.SendWelcome(context.Background(), &u, url); err != nil {
			h.logger.Warn("welcome email delivery failed: %v", err)
		}
	}(*user, event.WelcomeURL)

	if event.OnResponse != nil {
		event.OnResponse(&RegisterUserResponse{User: user, Token: token})
	}

	return nil
}

package auth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// AuthControllerRoutes holds the route paths the controller registers.
type AuthControllerRoutes struct {
	SignUp         string
	Login          string
	Logout         string
	ForgotPassword string
	ResetPassword  string
	UpdatePassword string
	UpdateMe       string
	DeleteMe       string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Tokens       TokenService
	Mailer       Mailer
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	ErrorHandler router.ErrorHandler

	// ResetURLBase is the prefix the emailed reset token is appended to.
	// Defaults to the reset route path; set an absolute URL in production.
	ResetURLBase string

	// WelcomeURL is linked from the welcome email.
	WelcomeURL string
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerTokens(tokens TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Tokens = tokens
		return c
	}
}

func WithControllerMailer(mailer Mailer) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Mailer = mailer
		return c
	}
}

func WithControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerResetURLBase(base string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ResetURLBase = base
		return c
	}
}

func WithControllerWelcomeURL(url string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.WelcomeURL = url
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			SignUp:         "/signup",
			Login:          "/login",
			Logout:         "/logout",
			ForgotPassword: "/forgotPassword",
			ResetPassword:  "/resetPassword",
			UpdatePassword: "/updatePassword",
			UpdateMe:       "/updateMe",
			DeleteMe:       "/deleteMe",
		},
	}

	c.ErrorHandler = c.renderError

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in auth controller...")
	}

	if c.Mailer == nil {
		c.Mailer = &LogMailer{Logger: c.Logger}
	}

	if c.ResetURLBase == "" {
		c.ResetURLBase = c.Routes.ResetPassword
	}

	return c
}

// RegisterAuthRoutes wires the credential lifecycle endpoints into a router.
// Self-service routes compose the Protected gate; everything else is open.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.SignUp, controller.SignUp).
		SetName("auth.signup")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Get(controller.Routes.Logout, controller.LogOut).
		SetName("auth.logout")

	app.Post(controller.Routes.ForgotPassword, controller.ForgotPassword).
		SetName("auth.forgot-password")

	app.Patch(fmt.Sprintf("%s/:token", controller.Routes.ResetPassword), controller.ResetPassword).
		SetName("auth.reset-password")

	protected := controller.Auther.Protected()

	app.Patch(controller.Routes.UpdatePassword, controller.UpdatePassword, protected).
		SetName("auth.update-password")

	app.Patch(controller.Routes.UpdateMe, controller.UpdateMe, protected).
		SetName("auth.update-me")

	app.Delete(controller.Routes.DeleteMe, controller.DeleteMe, protected).
		SetName("auth.delete-me")
}

// SignUp creates the account, issues a session, and mirrors it into the
// cookie. Role travels in from the payload and is validated against the
// role enum in the command.
func (a *AuthController) SignUp(ctx router.Context) error {
	payload := new(RegisterUserMessage)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, bindError(err))
	}

	var res *RegisterUserResponse
	payload.WelcomeURL = a.WelcomeURL
	payload.OnResponse = func(resp *RegisterUserResponse) {
		res = resp
	}

	handler := NewRegisterUserHandler(a.Repo, a.Tokens, a.Mailer).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), *payload); err != nil {
		a.Logger.Error("signup error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	a.Auther.SetSessionToken(ctx, res.Token)

	return a.sendToken(ctx, router.StatusCreated, res.Token, res.User)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, bindError(err))
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, goerrors.Wrap(
			err,
			goerrors.CategoryValidation,
			"please provide email and password",
		).WithCode(goerrors.CodeBadRequest))
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(router.ViewContext{"email": payload.Email}))
		fmt.Println("=========================")
	}

	token, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.Repo.Users().GetByEmail(ctx.Context(), payload.Email)
	if err != nil {
		a.Logger.Error("login: could not load user record: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return a.sendToken(ctx, router.StatusOK, token, user)
}

func (a *AuthController) LogOut(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.JSON(router.StatusOK, router.ViewContext{
		"status": "success",
	})
}

// ForgotPasswordRequest payload
type ForgotPasswordRequest struct {
	Email string `form:"email" json:"email"`
}

// ForgotPassword stores a reset fingerprint and emails the plaintext token.
// The response never includes the token.
func (a *AuthController) ForgotPassword(ctx router.Context) error {
	payload := new(ForgotPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, bindError(err))
	}

	req := InitializePasswordResetMessage{
		Email:        payload.Email,
		ResetURLBase: a.ResetURLBase,
	}

	handler := NewInitializePasswordResetHandler(a.Repo, a.Mailer).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("forgot password error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"status":  "success",
		"message": "Token sent to email!",
	})
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Password        string `form:"password" json:"password"`
	PasswordConfirm string `form:"passwordConfirm" json:"passwordConfirm"`
}

// ResetPassword consumes the emailed token, replaces the password, and logs
// the user in with a fresh session.
func (a *AuthController) ResetPassword(ctx router.Context) error {
	payload := new(ResetPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, bindError(err))
	}

	var res *FinalizePasswordResetResponse
	req := FinalizePasswordResetMessage{
		Token:           ctx.Param("token"),
		Password:        payload.Password,
		PasswordConfirm: payload.PasswordConfirm,
		OnResponse: func(resp *FinalizePasswordResetResponse) {
			res = resp
		},
	}

	handler := NewFinalizePasswordResetHandler(a.Repo, a.Tokens).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("reset password error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	a.Auther.SetSessionToken(ctx, res.Token)

	return a.sendToken(ctx, router.StatusOK, res.Token, res.User)
}

// UpdatePasswordRequest payload
type UpdatePasswordRequest struct {
	PasswordCurrent string `form:"passwordCurrent" json:"passwordCurrent"`
	Password        string `form:"password" json:"password"`
	PasswordConfirm string `form:"passwordConfirm" json:"passwordConfirm"`
}

// UpdatePassword runs behind the Protected gate.
func (a *AuthController) UpdatePassword(ctx router.Context) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	payload := new(UpdatePasswordRequest)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, bindError(err))
	}

	var res *UpdatePasswordResponse
	req := UpdatePasswordMessage{
		UserID:          user.ID.String(),
		PasswordCurrent: payload.PasswordCurrent,
		Password:        payload.Password,
		PasswordConfirm: payload.PasswordConfirm,
		OnResponse: func(resp *UpdatePasswordResponse) {
			res = resp
		},
	}

	handler := NewUpdatePasswordHandler(a.Repo, a.Tokens).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("update password error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	a.Auther.SetSessionToken(ctx, res.Token)

	return a.sendToken(ctx, router.StatusOK, res.Token, res.User)
}

// UpdateMeRequest payload. Credential fields are bound so the command can
// reject them with a pointer to the password route.
type UpdateMeRequest struct {
	Name            string `form:"name" json:"name"`
	Email           string `form:"email" json:"email"`
	Photo           string `form:"photo" json:"photo"`
	Password        string `form:"password" json:"password"`
	PasswordConfirm string `form:"passwordConfirm" json:"passwordConfirm"`
}

// UpdateMe runs behind the Protected gate.
func (a *AuthController) UpdateMe(ctx router.Context) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	payload := new(UpdateMeRequest)
	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, bindError(err))
	}

	var res *UpdateProfileResponse
	req := UpdateProfileMessage{
		UserID:          user.ID.String(),
		Name:            payload.Name,
		Email:           payload.Email,
		Photo:           payload.Photo,
		Password:        payload.Password,
		PasswordConfirm: payload.PasswordConfirm,
		OnResponse: func(resp *UpdateProfileResponse) {
			res = resp
		},
	}

	handler := NewUpdateProfileHandler(a.Repo).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("update profile error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"status": "success",
		"data": router.ViewContext{
			"user": res.User,
		},
	})
}

// DeleteMe runs behind the Protected gate and soft-deletes the account.
func (a *AuthController) DeleteMe(ctx router.Context) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		return a.ErrorHandler(ctx, ErrUnauthenticated)
	}

	req := DeactivateUserMessage{UserID: user.ID.String()}

	handler := NewDeactivateUserHandler(a.Repo).WithLogger(a.Logger)
	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("deactivate error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	a.Auther.Logout(ctx)

	return ctx.JSON(router.StatusNoContent, router.ViewContext{
		"status": "success",
		"data":   nil,
	})
}

// sendToken writes the response envelope shared by signup, login, and the
// password flows. Sensitive columns never serialize; the model hides them.
func (a *AuthController) sendToken(ctx router.Context, status int, token string, user *User) error {
	return ctx.JSON(status, router.ViewContext{
		"status": "success",
		"token":  token,
		"data": router.ViewContext{
			"user": user,
		},
	})
}

func (a *AuthController) renderError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := StatusFromError(richErr)

	return ctx.JSON(status, router.ViewContext{
		"status":  statusLabel(status),
		"message": richErr.Message,
		"code":    richErr.TextCode,
	})
}

func bindError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body").
		WithCode(goerrors.CodeBadRequest)
}

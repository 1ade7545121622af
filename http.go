package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/voyago/go-auth/middleware/jwtware"
)

// CurrentUserKey is the router locals key under which the gate stores the
// resolved *User record.
const CurrentUserKey = "current_user"

// CurrentSessionKey is the router locals key under which the gate stores the
// Session derived from the validated claims.
const CurrentSessionKey = "current_session"

// loggedOutCookieValue replaces the session cookie on logout. Any literal
// that fails JWT parsing works; the short expiry does the actual cleanup.
const loggedOutCookieValue = "loggedout"

type RouteAuthenticator struct {
	auth             Authenticator
	users            Users
	cfg              Config
	cookieDuration   time.Duration
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

var _ HTTPAuthenticator = (*RouteAuthenticator)(nil)

func NewHTTPAuthenticator(auther Authenticator, users Users, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := 24 * time.Hour
	if cfg.GetCookieExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetCookieExpiration()) * 24 * time.Hour
	}

	a := &RouteAuthenticator{
		cfg:            cfg,
		auth:           auther,
		users:          users,
		Logger:         defLogger{},
		cookieDuration: cookieDuration,
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultErrHandler

	return a, nil
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// Protected admits only requests with a valid session token whose user
// record is still active and whose password has not changed since the token
// was issued.
func (a *RouteAuthenticator) Protected() router.MiddlewareFunc {
	return a.gate(false)
}

// Optional resolves the current user when a valid token is present and
// admits the request anonymously otherwise. It never rejects.
func (a *RouteAuthenticator) Optional() router.MiddlewareFunc {
	return a.gate(true)
}

func (a *RouteAuthenticator) gate(optional bool) router.MiddlewareFunc {
	jw := jwtware.New(jwtware.Config{
		ErrorHandler:   a.MakeRouteAuthErrorHandler(optional),
		AuthScheme:     a.cfg.GetAuthScheme(),
		ContextKey:     a.cfg.GetContextKey(),
		TokenLookup:    a.cfg.GetTokenLookup(),
		AllowAnonymous: optional,
		TokenValidator: routerTokenValidator{tokens: a.auth.TokenService()},
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
			if authClaims, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(c, authClaims)
			}
			return c
		},
		SuccessHandler: func(ctx router.Context) error {
			return a.resolveCurrentUser(ctx, optional)
		},
	})

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jw(hf)
	}
}

// RequireRoles composes after Protected and admits only users whose role is
// in the permitted set.
func (a *RouteAuthenticator) RequireRoles(roles ...UserRole) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			user, ok := CurrentUser(ctx)
			if !ok {
				return a.AuthErrorHandler(ctx, ErrUnauthenticated)
			}

			if !RoleIn(user.Role, roles...) {
				a.Logger.Warn("role gate rejected user=%s role=%s", user.ID, user.Role)
				return a.AuthErrorHandler(ctx, ErrForbidden)
			}

			return ctx.Next()
		}
	}
}

// resolveCurrentUser runs after token validation. The claims prove the token
// was signed by us; this step proves the subject still deserves a session.
// The claims are folded into a Session first, and the session travels with
// the request alongside the resolved user.
func (a *RouteAuthenticator) resolveCurrentUser(ctx router.Context, optional bool) error {
	claims, ok := GetRouterClaims(ctx, a.cfg.GetContextKey())
	if !ok {
		if optional {
			return ctx.Next()
		}
		return a.AuthErrorHandler(ctx, ErrUnauthenticated)
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		if optional {
			return ctx.Next()
		}
		return a.AuthErrorHandler(ctx, ErrUnauthenticated)
	}

	user, err := a.users.GetActiveByID(ctx.Context(), session.GetUserID())
	if err != nil {
		if !repository.IsRecordNotFound(err) {
			// A store outage is not an authentication verdict.
			a.Logger.Error("current user lookup failed: %s", err)
			if optional {
				return ctx.Next()
			}
			return a.AuthErrorHandler(ctx, errors.Wrap(
				err,
				errors.CategoryInternal,
				"An unexpected server error occurred",
			).WithCode(errors.CodeInternal))
		}
		if optional {
			a.Logger.Info("optional gate: token subject not resolvable, proceeding anonymously")
			return ctx.Next()
		}
		return a.AuthErrorHandler(ctx, errors.Wrap(
			err,
			ErrUnauthenticated.Category,
			"the user belonging to this token does no longer exist",
		).WithCode(errors.CodeUnauthorized).WithTextCode(ErrUnauthenticated.TextCode))
	}

	// Tokens minted before the last password change are dead even though
	// their signature and expiry still check out.
	if issuedAt := session.GetIssuedAt(); issuedAt != nil && user.PasswordChangedAfter(*issuedAt) {
		if optional {
			a.Logger.Info("optional gate: stale session for user=%s, proceeding anonymously", user.ID)
			return ctx.Next()
		}
		return a.AuthErrorHandler(ctx, ErrSessionInvalidated)
	}

	ctx.Locals(CurrentUserKey, user)
	ctx.Locals(CurrentSessionKey, session)
	ctx.SetContext(WithContext(ctx.Context(), user))

	return ctx.Next()
}

// Login verifies the credentials, issues a session token, and mirrors it
// into the session cookie. The token is also returned so API responses can
// carry it in the body.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) (string, error) {
	token, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return "", err
	}

	a.setCookieToken(ctx, token, a.cookieDuration)
	return token, nil
}

// SetSessionToken mirrors an already issued token into the session cookie.
// Used by flows that mint a token outside Login, such as signup and the
// password reset auto-login.
func (a *RouteAuthenticator) SetSessionToken(ctx router.Context, token string) {
	a.setCookieToken(ctx, token, a.cookieDuration)
}

// Logout overwrites the session cookie with a short-lived junk value.
func (a *RouteAuthenticator) Logout(ctx router.Context) {
	ctx.Cookie(&router.Cookie{
		Name:     a.sessionCookieName(),
		Value:    loggedOutCookieValue,
		Expires:  time.Now().Add(10 * time.Second),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// MakeRouteAuthErrorHandler handles token validation failures. The reason
// stays in the server-side log; the caller always sees the same
// undifferentiated Unauthenticated response, so a missing, malformed,
// expired, or badly signed token cannot be told apart from outside. The
// optional variant logs and proceeds instead of rejecting.
func (a *RouteAuthenticator) MakeRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		reason := "invalid"
		if IsTokenExpiredError(err) {
			reason = "expired"
		} else if IsMalformedError(err) {
			reason = "malformed"
		}

		if optional {
			a.Logger.Info("Optional auth failed (%s token), proceeding: %s", reason, err)
			return ctx.Next()
		}

		a.Logger.Warn("auth rejected (%s token): %s", reason, err)
		return a.AuthErrorHandler(ctx, ErrUnauthenticated)
	}
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.sessionCookieName(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// sessionCookieName returns the cookie name from the token lookup
// expression, so the cookie written at login is the one the extractors read.
func (a *RouteAuthenticator) sessionCookieName() string {
	name := cookieNameFromLookup(a.cfg.GetTokenLookup())
	if name == "" {
		name = "jwt"
	}
	return name
}

func cookieNameFromLookup(lookup string) string {
	for _, part := range strings.Split(lookup, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(kv) == 2 && strings.TrimSpace(kv[0]) == "cookie" {
			return strings.TrimSpace(kv[1])
		}
	}
	return ""
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"request rejected: %s text_code=%s path=%s",
		richErr.Message, richErr.TextCode, c.OriginalURL(),
	)

	status := StatusFromError(richErr)

	return c.JSON(status, router.ViewContext{
		"status":  statusLabel(status),
		"message": richErr.Message,
		"code":    richErr.TextCode,
	})
}

// statusLabel mirrors the response envelope convention: client errors are
// "fail", server errors are "error".
func statusLabel(status int) string {
	if status >= 500 {
		return "error"
	}
	return "fail"
}

// routerTokenValidator bridges TokenService into the middleware's local
// validator interface.
type routerTokenValidator struct {
	tokens TokenService
}

func (v routerTokenValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

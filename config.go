package auth

import (
	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// EnvConfig is the process-wide auth configuration, loaded once at startup
// and passed explicitly into the components that need it. The signing key is
// never logged; keep it out of String()/debug output.
type EnvConfig struct {
	SigningKey      string   `env:"AUTH_SIGNING_KEY,required"`
	SigningMethod   string   `env:"AUTH_SIGNING_METHOD" envDefault:"HS256"`
	ContextKey      string   `env:"AUTH_CONTEXT_KEY" envDefault:"user"`
	TokenExpiration int      `env:"AUTH_TOKEN_EXPIRATION_HOURS" envDefault:"2160"`
	CookieExpiration int     `env:"AUTH_COOKIE_EXPIRATION_DAYS" envDefault:"90"`
	TokenLookup     string   `env:"AUTH_TOKEN_LOOKUP" envDefault:"header:Authorization,cookie:jwt"`
	AuthScheme      string   `env:"AUTH_SCHEME" envDefault:"Bearer"`
	Issuer          string   `env:"AUTH_ISSUER"`
	Audience        []string `env:"AUTH_AUDIENCE"`

	SMTPHost     string `env:"EMAIL_HOST"`
	SMTPPort     int    `env:"EMAIL_PORT" envDefault:"587"`
	SMTPUsername string `env:"EMAIL_USERNAME"`
	SMTPPassword string `env:"EMAIL_PASSWORD"`
	EmailFrom    string `env:"EMAIL_FROM"`

	ServerAddr   string `env:"SERVER_ADDR" envDefault:":8080"`
	DatabaseDSN  string `env:"DATABASE_DSN" envDefault:"file::memory:?cache=shared"`
	ResetURLBase string `env:"AUTH_RESET_URL_BASE"`
	WelcomeURL   string `env:"AUTH_WELCOME_URL"`
}

// LoadConfigFromEnv parses the environment into an EnvConfig.
func LoadConfigFromEnv() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to parse auth configuration")
	}
	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string { return c.SigningKey }

func (c *EnvConfig) GetSigningMethod() string { return c.SigningMethod }

func (c *EnvConfig) GetContextKey() string { return c.ContextKey }

// GetTokenExpiration is the session token lifetime in hours.
func (c *EnvConfig) GetTokenExpiration() int { return c.TokenExpiration }

// GetCookieExpiration is the session cookie lifetime in days.
func (c *EnvConfig) GetCookieExpiration() int { return c.CookieExpiration }

func (c *EnvConfig) GetTokenLookup() string { return c.TokenLookup }

func (c *EnvConfig) GetAuthScheme() string { return c.AuthScheme }

func (c *EnvConfig) GetIssuer() string { return c.Issuer }

func (c *EnvConfig) GetAudience() []string { return c.Audience }

var _ Config = (*EnvConfig)(nil)

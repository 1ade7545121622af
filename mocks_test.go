package auth_test

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
	auth "github.com/voyago/go-auth"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

func assertableErr(msg string) error { return errors.New(msg) }

// testSigningKey is shared by every test that mints or validates tokens.
var testSigningKey = []byte("test-signing-key")

func newTestTokenService() auth.TokenService {
	return auth.NewTokenService(testSigningKey, 1, "", nil, testLogger{})
}

func testEnvConfig() *auth.EnvConfig {
	return &auth.EnvConfig{
		SigningKey:       string(testSigningKey),
		SigningMethod:    "HS256",
		ContextKey:       "user",
		TokenExpiration:  1,
		CookieExpiration: 90,
		TokenLookup:      "header:Authorization,cookie:jwt",
		AuthScheme:       "Bearer",
	}
}

// stubProvider returns a fixed identity or error.
type stubProvider struct {
	identity auth.Identity
	err      error
}

func (s *stubProvider) VerifyIdentity(ctx context.Context, identifier, password string) (auth.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func (s *stubProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (auth.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

// MockUsers implements auth.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUsers) GetByEmailWithPassword(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUsers) GetActiveByID(ctx context.Context, id string) (*auth.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUsers) GetActiveByIDWithPassword(ctx context.Context, id string) (*auth.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUsers) GetByResetDigest(ctx context.Context, digest string) (*auth.User, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, record *auth.User) (*auth.User, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *auth.User) (*auth.User, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUsers) UpdateFields(ctx context.Context, record *auth.User) (*auth.User, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUsers) UpdateFieldsTx(ctx context.Context, tx bun.IDB, record *auth.User) (*auth.User, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUsers) SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error {
	args := m.Called(ctx, id, digest, expiresAt)
	return args.Error(0)
}

func (m *MockUsers) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// fakeRepoManager runs transaction callbacks against a zero value bun.Tx,
// which is enough because the store methods inside are mocked.
type fakeRepoManager struct {
	users auth.Users
}

func newFakeRepoManager(users auth.Users) *fakeRepoManager {
	return &fakeRepoManager{users: users}
}

func (f *fakeRepoManager) Validate() error { return nil }

func (f *fakeRepoManager) MustValidate() {}

func (f *fakeRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	var tx bun.Tx
	return fn(ctx, tx)
}

func (f *fakeRepoManager) Users() auth.Users { return f.users }

// MockMailer implements auth.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendWelcome(ctx context.Context, user *auth.User, contextURL string) error {
	args := m.Called(ctx, user, contextURL)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, user *auth.User, resetURL string) error {
	args := m.Called(ctx, user, resetURL)
	return args.Error(0)
}

// MockIdentity implements auth.Identity
type MockIdentity struct {
	IDValue    string
	NameValue  string
	EmailValue string
	RoleValue  string
}

func (m MockIdentity) ID() string    { return m.IDValue }
func (m MockIdentity) Name() string  { return m.NameValue }
func (m MockIdentity) Email() string { return m.EmailValue }
func (m MockIdentity) Role() string  { return m.RoleValue }

package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UpdateUserPasswordSQL stamps password_changed_at one second in the past so
// a session token issued in the same second as the change still passes the
// gate, and clears the reset fields as a pair.
var UpdateUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"password_changed_at" = ?,
	"reset_token_digest" = NULL,
	"reset_token_expires_at" = NULL
WHERE
	"usr"."active" IS TRUE
AND (
	"usr"."id" = ?
) RETURNING *;`

var SetResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"reset_token_digest" = ?,
	"reset_token_expires_at" = ?
WHERE
	"usr"."active" IS TRUE
AND (
	"usr"."id" = ?
) RETURNING *;`

var ClearResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"reset_token_digest" = NULL,
	"reset_token_expires_at" = NULL
WHERE
	"usr"."id" = ?
RETURNING *;`

var DeactivateUserSQL = `UPDATE "users" AS "usr"
SET
	"active" = FALSE
WHERE
	"usr"."active" IS TRUE
AND (
	"usr"."id" = ?
) RETURNING *;`

// Users is the user record store adapter. Every lookup filters out
// deactivated records; the WithPassword variants are the only reads that
// return the normally hidden password hash column.
type Users interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailWithPassword(ctx context.Context, email string) (*User, error)
	GetActiveByID(ctx context.Context, id string) (*User, error)
	GetActiveByIDWithPassword(ctx context.Context, id string) (*User, error)
	GetByResetDigest(ctx context.Context, digest string) (*User, error)

	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	UpdateFields(ctx context.Context, record *User) (*User, error)
	UpdateFieldsTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)

	SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getOne(ctx, "email", NormalizeEmail(email), false)
}

func (a *users) GetByEmailWithPassword(ctx context.Context, email string) (*User, error) {
	return a.getOne(ctx, "email", NormalizeEmail(email), true)
}

func (a *users) GetActiveByID(ctx context.Context, id string) (*User, error) {
	return a.getOne(ctx, "id", id, false)
}

func (a *users) GetActiveByIDWithPassword(ctx context.Context, id string) (*User, error) {
	return a.getOne(ctx, "id", id, true)
}

func (a *users) getOne(ctx context.Context, column, value string, includeSensitive bool) (*User, error) {
	record := &User{}

	q := a.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Where("?TableAlias.active IS TRUE")

	if !includeSensitive {
		q = q.ExcludeColumn("password_hash")
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					column: value,
				})
		}
		return nil, err
	}

	return record, nil
}

// GetByResetDigest matches the stored fingerprint AND an unexpired expiry in
// one query; a wrong token and an expired one are indistinguishable here.
func (a *users) GetByResetDigest(ctx context.Context, digest string) (*User, error) {
	record := &User{}

	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.reset_token_digest = ?", digest).
		Where("?TableAlias.reset_token_expires_at > ?", time.Now()).
		Where("?TableAlias.active IS TRUE").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *users) UpdateFields(ctx context.Context, record *User) (*User, error) {
	return a.UpdateFieldsTx(ctx, a.db, record)
}

func (a *users) UpdateFieldsTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	if record.Email != "" {
		record.Email = NormalizeEmail(record.Email)
	}
	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(record.ID.String()))
}

func (a *users) SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt time.Time) error {
	return a.exec(ctx, a.db, SetResetTokenSQL, digest, expiresAt, id.String())
}

func (a *users) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	// No active guard: the rollback path must reach recently deactivated
	// records too.
	return a.exec(ctx, a.db, ClearResetTokenSQL, id.String())
}

func (a *users) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.UpdatePasswordTx(ctx, a.db, id, passwordHash)
}

func (a *users) UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	changedAt := time.Now().Add(-time.Second)
	return a.exec(ctx, tx, UpdateUserPasswordSQL, passwordHash, changedAt, id.String())
}

func (a *users) Deactivate(ctx context.Context, id uuid.UUID) error {
	return a.exec(ctx, a.db, DeactivateUserSQL, id.String())
}

func (a *users) exec(ctx context.Context, tx bun.IDB, sql string, args ...any) error {
	res, err := a.Repository.RawTx(ctx, tx, sql, args...)
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound()
	}

	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	record.Email = NormalizeEmail(record.Email)
	record.Active = true

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

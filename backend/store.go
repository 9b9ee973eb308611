package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var (
	ErrEmailTaken = goerrors.New("email address already registered", goerrors.CategoryConflict).
			WithTextCode("EMAIL_TAKEN").
			WithCode(goerrors.CodeConflict)

	ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
			WithTextCode("USER_NOT_FOUND").
			WithCode(goerrors.CodeNotFound)
)

// User is the account row created by the store user endpoint.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Username     string    `bun:"username,notnull" json:"username"`
	Email        string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Users persists registered accounts.
type Users interface {
	repository.Repository[*User]

	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// Store implements Users on top of a bun repository.
type Store struct {
	repository.Repository[*User]
	db        *bun.DB
	useHashid bool
}

var (
	_ Users                        = (*Store)(nil)
	_ repository.Repository[*User] = (*Store)(nil)
)

type StoreOption func(*Store)

// WithHashid derives user IDs from the email address instead of
// generating random ones.
func WithHashid(enabled bool) StoreOption {
	return func(s *Store) {
		s.useHashid = enabled
	}
}

// NewStore returns a store using db. Call Migrate before first use.
func NewStore(db *bun.DB, opts ...StoreOption) *Store {
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
	})

	s := &Store{
		Repository: repo,
		db:         db,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// OpenSQLite opens a bun database on dsn with the sqlite shim driver.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "open sqlite database")
	}
	// in memory databases live as long as their connection
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// Migrate creates the users table if missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "create users table")
	}
	return nil
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.db.NewSelect().
		Model((*User)(nil)).
		Where("email = ?", normalizeEmail(email)).
		Exists(ctx)
}

// GetByIdentifier finds a user by id or email address.
func (s *Store) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return s.GetByIdentifierTx(ctx, s.db, identifier, criteria...)
}

func (s *Store) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	column, value := "email", normalizeEmail(identifier)
	if id, err := uuid.Parse(strings.TrimSpace(identifier)); err == nil {
		column, value = "id", id.String()
	}

	record := &User{}
	q := tx.NewSelect().Model(record)
	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound.Clone().WithMetadata(map[string]any{"identifier": identifier})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "select user")
	}
	return record, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.GetByIdentifier(ctx, email)
}

// Create inserts record. A user whose email is already registered fails
// with ErrEmailTaken.
func (s *Store) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	var created *User
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		created, err = s.CreateTx(ctx, tx, record, criteria...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Store) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	record.Email = normalizeEmail(record.Email)

	exists, err := tx.NewSelect().
		Model((*User)(nil)).
		Where("email = ?", record.Email).
		Exists(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "check existing user")
	}

	if exists {
		return nil, ErrEmailTaken.Clone().WithMetadata(map[string]any{"email": record.Email})
	}

	if record.ID == uuid.Nil {
		record.ID = s.newID(record.Email)
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	created, err := s.Repository.CreateTx(ctx, tx, record, criteria...)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "insert user")
	}
	return created, nil
}

func (s *Store) newID(email string) uuid.UUID {
	if s.useHashid {
		if id, err := hashid.NewUUID(email); err == nil {
			return id
		}
	}
	return uuid.New()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

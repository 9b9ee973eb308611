package backend

import (
	"context"
	"net/http"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"

	signup "github.com/goliatone/go-signup"
)

var ErrInvalidUser = goerrors.New("invalid user data", goerrors.CategoryValidation).
	WithTextCode("INVALID_USER").
	WithCode(http.StatusUnprocessableEntity)

// StoreUserRequest is the body accepted by the store user endpoint.
type StoreUserRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (r StoreUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(2, 64)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 128)),
	)
}

// Accounts registers users and exchanges their credentials for session
// tokens. It backs the HTTP server and can be used in process as both
// signup.AccountCreator and signup.Authenticator.
type Accounts struct {
	users  Users
	minter *TokenMinter
	cost   int
	logger signup.Logger

	compare   func(password, hash string) error
	dummyOnce sync.Once
	dummyHash string
}

var (
	_ signup.AccountCreator = (*Accounts)(nil)
	_ signup.Authenticator  = (*Accounts)(nil)
)

type AccountsOption func(*Accounts)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) AccountsOption {
	return func(a *Accounts) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			a.cost = cost
		}
	}
}

func WithAccountsLogger(logger signup.Logger) AccountsOption {
	return func(a *Accounts) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func NewAccounts(users Users, minter *TokenMinter, opts ...AccountsOption) *Accounts {
	if users == nil {
		panic("Missing Users store in accounts service...")
	}

	if minter == nil {
		panic("Missing TokenMinter in accounts service...")
	}

	a := &Accounts{
		users:  users,
		minter: minter,
		cost:    bcrypt.DefaultCost,
		logger:  signup.DefaultLogger(),
		compare: ComparePasswordAndHash,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Register validates req and stores a new user.
func (a *Accounts) Register(ctx context.Context, req StoreUserRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, ErrInvalidUser.Clone().WithMetadata(map[string]any{
			"fields": signup.FormatValidationErrorToMap(err),
		})
	}

	exists, err := a.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "lookup user by email")
	}

	if exists {
		return nil, ErrEmailTaken.Clone().WithMetadata(map[string]any{"email": req.Email})
	}

	hash, err := HashPassword(req.Password, a.cost)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "hash password")
	}

	user, err := a.users.Create(ctx, &User{
		Username:     strings.TrimSpace(req.Username),
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("created user %s", user.ID)
	return user, nil
}

// Login implements signup.Authenticator.
func (a *Accounts) Login(ctx context.Context, email, password string) (string, error) {
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			// unknown emails pay for a bcrypt compare too so response
			// time does not reveal which addresses are registered
			_ = a.compare(password, a.unknownUserHash())
			return "", ErrMismatchedHashAndPassword
		}
		return "", err
	}

	if err := a.compare(password, user.PasswordHash); err != nil {
		return "", err
	}

	token, _, err := a.minter.Mint(user)
	return token, err
}

// unknownUserHash returns a hash generated at the configured cost, used
// in place of a stored hash when no user matches.
func (a *Accounts) unknownUserHash() string {
	a.dummyOnce.Do(func() {
		hash, err := HashPassword("go-signup unknown user", a.cost)
		if err != nil {
			a.logger.Error("generate unknown user hash: %v", err)
			return
		}
		a.dummyHash = hash
	})
	return a.dummyHash
}

// CreateAccount implements signup.AccountCreator, answering with the
// status the HTTP endpoint would have sent.
func (a *Accounts) CreateAccount(ctx context.Context, input signup.RegistrationInput) (signup.CreateAccountResult, error) {
	err := NewRegisterAccountHandler(a).Execute(ctx, RegisterAccountMessage{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		a.logger.Debug("register %s: %v", input.Email, err)
	}
	return signup.CreateAccountResult{Status: StatusFor(err)}, nil
}

// StatusFor maps a Register error to the store user response status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusCreated
	case signup.HasTextCode(err, ErrInvalidUser.TextCode):
		return http.StatusUnprocessableEntity
	case signup.HasTextCode(err, ErrEmailTaken.TextCode):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

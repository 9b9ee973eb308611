package backend

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// RegisterAccountMessage asks for a new account to be stored.
type RegisterAccountMessage struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// RegisterAccountHandler executes RegisterAccountMessage against an
// Accounts service.
type RegisterAccountHandler struct {
	accounts *Accounts
	timeout  time.Duration
}

func NewRegisterAccountHandler(accounts *Accounts) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		accounts: accounts,
		timeout:  10 * time.Second,
	}
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	_, err := h.accounts.Register(ctx, StoreUserRequest{
		Username: event.Username,
		Email:    event.Email,
		Password: event.Password,
	})
	return err
}

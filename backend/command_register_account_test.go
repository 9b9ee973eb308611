package backend_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/backend"
)

func TestRegisterAccountHandlerExecute(t *testing.T) {
	accounts := newAccounts(t)
	handler := backend.NewRegisterAccountHandler(accounts)
	ctx := context.Background()

	msg := backend.RegisterAccountMessage{Username: "alice", Email: "a@example.com", Password: "secret1"}
	assert.Equal(t, "account.register", msg.Type())

	require.NoError(t, handler.Execute(ctx, msg))

	token, err := accounts.Login(ctx, "a@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	err = handler.Execute(ctx, msg)
	require.Error(t, err)
	assert.True(t, signup.HasTextCode(err, backend.ErrEmailTaken.TextCode))

	err = handler.Execute(ctx, backend.RegisterAccountMessage{Username: "b", Email: "nope"})
	require.Error(t, err)
	assert.True(t, signup.HasTextCode(err, backend.ErrInvalidUser.TextCode))
}

func TestRegisterAccountHandlerCancelledContext(t *testing.T) {
	accounts := newAccounts(t)
	handler := backend.NewRegisterAccountHandler(accounts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, backend.RegisterAccountMessage{Username: "alice", Email: "a@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = accounts.Login(context.Background(), "a@example.com", "secret1")
	assert.ErrorIs(t, err, backend.ErrMismatchedHashAndPassword)
}

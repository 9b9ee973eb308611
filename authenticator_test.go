package signup_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	signup "github.com/goliatone/go-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthenticatorSignInSuccess(t *testing.T) {
	auther := &MockAuthenticator{}
	auther.On("Login", mock.Anything, "a@example.com", "secret1").Return("token-123", nil).Once()

	signer := signup.NewAuthenticatorSignIn(auther, signup.NoopLogger())

	res, err := signer.SignIn(context.Background(), aliceCreds, noRedirect)
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, "token-123", res.Token)
	assert.Equal(t, "/", res.URL)
	auther.AssertExpectations(t)
}

func TestAuthenticatorSignInRejected(t *testing.T) {
	auther := &MockAuthenticator{}
	auther.On("Login", mock.Anything, "a@example.com", "secret1").Return("", errors.New("invalid credentials")).Once()

	signer := signup.NewAuthenticatorSignIn(auther, nil)

	res, err := signer.SignIn(context.Background(), aliceCreds, noRedirect)
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "invalid credentials", res.Error)
}

func TestControllerWithAuthenticatorSignIn(t *testing.T) {
	auther := &MockAuthenticator{}
	auther.On("Login", mock.Anything, "a@example.com", "secret1").Return("", errors.New("locked")).Once()

	creator := signup.AccountCreatorFunc(func(ctx context.Context, input signup.RegistrationInput) (signup.CreateAccountResult, error) {
		return signup.CreateAccountResult{Status: http.StatusCreated}, nil
	})
	nav := &MockNavigator{}

	c := newTestController(creator, signup.NewAuthenticatorSignIn(auther, signup.NoopLogger()), nav)

	outcome, err := c.Submit(context.Background(), aliceInput)
	require.Error(t, err)
	assert.Equal(t, signup.StateSignInFailed, outcome.State)
	nav.AssertNotCalled(t, "Navigate", mock.Anything, mock.Anything)
}

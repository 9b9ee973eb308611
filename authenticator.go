package signup

import (
	"context"
	"net/http"
)

// Authenticator is the minimal login surface of an in-process auth
// service: it exchanges an identifier and password for a session token.
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, error)
}

// AuthenticatorSignIn adapts an Authenticator into a SignInProvider, for
// deployments where account store and auth service live in the same
// process as the form.
type AuthenticatorSignIn struct {
	auther Authenticator
	logger Logger
}

// NewAuthenticatorSignIn wraps auther.
func NewAuthenticatorSignIn(auther Authenticator, logger Logger) *AuthenticatorSignIn {
	if logger == nil {
		logger = defLogger{}
	}
	return &AuthenticatorSignIn{auther: auther, logger: logger}
}

// SignIn implements SignInProvider. Login errors are reported through
// SignInResult.Error, matching remote credential providers.
func (a *AuthenticatorSignIn) SignIn(ctx context.Context, creds Credentials, opts SignInOptions) (SignInResult, error) {
	token, err := a.auther.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		a.logger.Debug("credentials sign in for %s rejected: %v", creds.Email, err)
		return SignInResult{
			OK:     false,
			Status: http.StatusUnauthorized,
			Error:  err.Error(),
		}, nil
	}

	return SignInResult{
		OK:     true,
		Status: http.StatusOK,
		Token:  token,
		URL:    opts.CallbackURL,
	}, nil
}

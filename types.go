package signup

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// AccountCreator submits a new account to the backend store.
type AccountCreator interface {
	CreateAccount(ctx context.Context, input RegistrationInput) (CreateAccountResult, error)
}

// SignInProvider establishes a session for freshly created credentials.
type SignInProvider interface {
	SignIn(ctx context.Context, creds Credentials, opts SignInOptions) (SignInResult, error)
}

// Navigator performs the post registration redirect.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// Prefetcher is an optional Navigator extension. When the navigator
// implements it the controller warms up the destination as soon as a
// submission starts.
type Prefetcher interface {
	Prefetch(ctx context.Context, path string) error
}

// AccountCreatorFunc adapts a function to the AccountCreator interface.
type AccountCreatorFunc func(ctx context.Context, input RegistrationInput) (CreateAccountResult, error)

// CreateAccount implements AccountCreator.
func (f AccountCreatorFunc) CreateAccount(ctx context.Context, input RegistrationInput) (CreateAccountResult, error) {
	return f(ctx, input)
}

// SignInProviderFunc adapts a function to the SignInProvider interface.
type SignInProviderFunc func(ctx context.Context, creds Credentials, opts SignInOptions) (SignInResult, error)

// SignIn implements SignInProvider.
func (f SignInProviderFunc) SignIn(ctx context.Context, creds Credentials, opts SignInOptions) (SignInResult, error) {
	return f(ctx, creds, opts)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(ctx context.Context, path string) error

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(ctx context.Context, path string) error {
	return f(ctx, path)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SIGNUP "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SIGNUP "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SIGNUP "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SIGNUP "+newline(format), args...)
}

// DefaultLogger returns the printf logger used when no logger is configured.
func DefaultLogger() Logger {
	return defLogger{}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NoopLogger discards every message.
func NoopLogger() Logger {
	return noopLogger{}
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

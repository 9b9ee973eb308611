package signup_test

import (
	"context"

	signup "github.com/goliatone/go-signup"
	"github.com/stretchr/testify/mock"
)

// MockAccountCreator implements signup.AccountCreator
type MockAccountCreator struct {
	mock.Mock
}

func (m *MockAccountCreator) CreateAccount(ctx context.Context, input signup.RegistrationInput) (signup.CreateAccountResult, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(signup.CreateAccountResult), args.Error(1)
}

// MockSignInProvider implements signup.SignInProvider
type MockSignInProvider struct {
	mock.Mock
}

func (m *MockSignInProvider) SignIn(ctx context.Context, creds signup.Credentials, opts signup.SignInOptions) (signup.SignInResult, error) {
	args := m.Called(ctx, creds, opts)
	return args.Get(0).(signup.SignInResult), args.Error(1)
}

// MockNavigator implements signup.Navigator
type MockNavigator struct {
	mock.Mock
}

func (m *MockNavigator) Navigate(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

// MockPrefetchNavigator implements signup.Navigator and signup.Prefetcher
type MockPrefetchNavigator struct {
	MockNavigator
}

func (m *MockPrefetchNavigator) Prefetch(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

// MockActivitySink implements signup.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event signup.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockAuthenticator implements signup.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, identifier, password string) (string, error) {
	args := m.Called(ctx, identifier, password)
	return args.String(0), args.Error(1)
}

type recordingSink struct {
	events []signup.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event signup.ActivityEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) transitions() []string {
	out := []string{}
	for _, evt := range r.events {
		if evt.EventType == signup.ActivityEventStateChanged {
			out = append(out, evt.FromState.String()+">"+evt.ToState.String())
		}
	}
	return out
}

// Package client provides HTTP implementations of the signup collaborators:
// the account store (POST /api/storeUser) and the credentials sign-in
// endpoint. Requests go through fiber's fasthttp backed Agent.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	signup "github.com/goliatone/go-signup"
)

const (
	DefaultStoreUserPath = "/api/storeUser"
	DefaultSignInPath    = "/api/auth/callback/credentials"
	DefaultTimeout       = 10 * time.Second

	// HeaderSubmissionID carries the controller submission id.
	HeaderSubmissionID = "X-Request-ID"

	// ErrorCredentialsSignIn is the error reported when the provider answers
	// with a failure status but no error string.
	ErrorCredentialsSignIn = "CredentialsSignin"
)

// Config holds the endpoints used by the HTTP collaborators.
type Config struct {
	BaseURL       string
	StoreUserPath string
	SignInPath    string
	Timeout       time.Duration
}

func (c Config) withDefaults() Config {
	if c.StoreUserPath == "" {
		c.StoreUserPath = DefaultStoreUserPath
	}
	if c.SignInPath == "" {
		c.SignInPath = DefaultSignInPath
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

func (c Config) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL + path
}

// Option customizes a client.
type Option func(*options)

type options struct {
	logger   signup.Logger
	verifier TokenVerifier
}

// WithLogger overrides the logger.
func WithLogger(logger signup.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTokenVerifier makes CredentialsClient verify the session token
// returned on sign-in. A token that fails verification fails the sign-in.
func WithTokenVerifier(v TokenVerifier) Option {
	return func(o *options) {
		o.verifier = v
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: signup.NoopLogger()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// post sends body as JSON and returns the status code and response body.
// A non nil error means no response was received.
func post(ctx context.Context, cfg Config, path string, body any) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	a := fiber.Post(cfg.url(path))
	a.JSON(body)
	a.Timeout(cfg.Timeout)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if id, ok := signup.SubmissionIDFromContext(ctx); ok {
		a.Set(HeaderSubmissionID, id)
	}

	if err := a.Parse(); err != nil {
		return 0, nil, err
	}

	code, resp, errs := a.Bytes()
	if len(errs) > 0 {
		return 0, nil, errors.Join(errs...)
	}

	return code, resp, nil
}

type storeUserPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountClient implements signup.AccountCreator over HTTP.
type AccountClient struct {
	cfg    Config
	logger signup.Logger
}

var _ signup.AccountCreator = (*AccountClient)(nil)

// NewAccountClient returns a client posting to cfg.StoreUserPath.
func NewAccountClient(cfg Config, opts ...Option) *AccountClient {
	o := buildOptions(opts)
	return &AccountClient{
		cfg:    cfg.withDefaults(),
		logger: o.logger,
	}
}

// CreateAccount implements signup.AccountCreator. Any response, whatever
// its status, is returned as a result; the error is reserved for requests
// that never got one.
func (c *AccountClient) CreateAccount(ctx context.Context, input signup.RegistrationInput) (signup.CreateAccountResult, error) {
	payload := storeUserPayload{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	}

	code, _, err := post(ctx, c.cfg, c.cfg.StoreUserPath, payload)
	if err != nil {
		c.logger.Error("store user request failed: %v", err)
		return signup.CreateAccountResult{}, err
	}

	c.logger.Debug("store user responded %d", code)
	return signup.CreateAccountResult{Status: code}, nil
}

type signInPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Redirect    bool   `json:"redirect"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

// SignInResponse is the JSON document returned by the credentials endpoint.
type SignInResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Status int    `json:"status,omitempty"`
	URL    string `json:"url,omitempty"`
	Token  string `json:"token,omitempty"`
}

// CredentialsClient implements signup.SignInProvider over HTTP.
type CredentialsClient struct {
	cfg      Config
	logger   signup.Logger
	verifier TokenVerifier
}

var _ signup.SignInProvider = (*CredentialsClient)(nil)

// NewCredentialsClient returns a client posting to cfg.SignInPath.
func NewCredentialsClient(cfg Config, opts ...Option) *CredentialsClient {
	o := buildOptions(opts)
	return &CredentialsClient{
		cfg:      cfg.withDefaults(),
		logger:   o.logger,
		verifier: o.verifier,
	}
}

// SignIn implements signup.SignInProvider.
func (c *CredentialsClient) SignIn(ctx context.Context, creds signup.Credentials, opts signup.SignInOptions) (signup.SignInResult, error) {
	payload := signInPayload{
		Email:       creds.Email,
		Password:    creds.Password,
		Redirect:    opts.Redirect,
		CallbackURL: opts.CallbackURL,
	}

	code, body, err := post(ctx, c.cfg, c.cfg.SignInPath, payload)
	if err != nil {
		c.logger.Error("credentials sign in request failed: %v", err)
		return signup.SignInResult{}, err
	}

	var resp SignInResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil && code < http.StatusBadRequest {
			return signup.SignInResult{Status: code}, err
		}
	}

	result := signup.SignInResult{
		OK:     resp.OK,
		Status: code,
		Error:  resp.Error,
		URL:    resp.URL,
		Token:  resp.Token,
	}

	if result.Error == "" && code >= http.StatusBadRequest {
		result.Error = ErrorCredentialsSignIn
	}

	if result.Error == "" && c.verifier != nil {
		if _, err := c.verifier.Verify(result.Token); err != nil {
			c.logger.Warn("credentials sign in returned an invalid session token: %v", err)
			result.OK = false
			result.Error = "SessionTokenInvalid"
		}
	}

	return result, nil
}

// SessionFromResult decodes the token of a successful sign-in with
// verifier. A nil verifier only decodes the claims.
func SessionFromResult(result signup.SignInResult, verifier TokenVerifier) (*Session, error) {
	if verifier == nil {
		verifier = NewUnverifiedDecoder()
	}
	return verifier.Verify(result.Token)
}

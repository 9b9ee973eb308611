package backend

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/client"
)

// CredentialsRequest is the body accepted by the credentials endpoint.
type CredentialsRequest struct {
	Email       string `json:"email" form:"email"`
	Password    string `json:"password" form:"password"`
	Redirect    bool   `json:"redirect" form:"redirect"`
	CallbackURL string `json:"callbackUrl" form:"callbackUrl"`
}

// Server exposes the account and credentials endpoints the registration
// workflow talks to.
type Server struct {
	Debug         bool
	Logger        signup.Logger
	StoreUserPath string
	SignInPath    string

	accounts *Accounts
}

type ServerOption func(*Server) *Server

func WithServerLogger(logger signup.Logger) ServerOption {
	return func(s *Server) *Server {
		if logger != nil {
			s.Logger = logger
		}
		return s
	}
}

func WithServerDebug(debug bool) ServerOption {
	return func(s *Server) *Server {
		s.Debug = debug
		return s
	}
}

// NewServer returns a server backed by accounts.
func NewServer(accounts *Accounts, opts ...ServerOption) *Server {
	if accounts == nil {
		panic("Missing Accounts service in backend server...")
	}

	s := &Server{
		Logger:        signup.DefaultLogger(),
		StoreUserPath: client.DefaultStoreUserPath,
		SignInPath:    client.DefaultSignInPath,
		accounts:      accounts,
	}

	for _, opt := range opts {
		s = opt(s)
	}

	return s
}

// Register mounts the endpoints on r.
func (s *Server) Register(r fiber.Router) {
	r.Post(s.StoreUserPath, s.StoreUser).Name("api.store_user")
	r.Post(s.SignInPath, s.Credentials).Name("api.auth.credentials")
}

// StoreUser creates an account. It answers 201 on success, 409 when the
// email is taken, 422 for invalid data and 500 otherwise.
func (s *Server) StoreUser(c *fiber.Ctx) error {
	req := new(StoreUserRequest)
	if err := c.BodyParser(req); err != nil {
		s.Logger.Warn("store user parse payload: %v", err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "invalid payload",
		})
	}

	if s.Debug {
		masked := *req
		masked.Password = strings.Repeat("*", 8)
		s.Logger.Debug("store user payload: %s", print.MaybePrettyJSON(masked))
	}

	user, err := s.accounts.Register(c.UserContext(), *req)
	if err == nil {
		return c.Status(fiber.StatusCreated).JSON(user)
	}

	status := StatusFor(err)
	body := fiber.Map{"message": "internal server error"}

	switch status {
	case fiber.StatusUnprocessableEntity:
		body["message"] = "invalid user data"
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			body["errors"] = richErr.Metadata["fields"]
		}
	case fiber.StatusConflict:
		body["message"] = "email already exists"
	default:
		s.Logger.Error("store user: %v", err)
	}

	return c.Status(status).JSON(body)
}

// Credentials signs a user in with email and password and returns a
// session token. Failures answer 401 with the CredentialsSignin error.
func (s *Server) Credentials(c *fiber.Ctx) error {
	req := new(CredentialsRequest)
	if err := c.BodyParser(req); err != nil {
		s.Logger.Warn("credentials parse payload: %v", err)
		return s.signInFailed(c, fiber.StatusBadRequest)
	}

	token, err := s.accounts.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if signup.HasTextCode(err, ErrMismatchedHashAndPassword.TextCode) {
			return s.signInFailed(c, fiber.StatusUnauthorized)
		}
		s.Logger.Error("credentials sign in: %v", err)
		return s.signInFailed(c, fiber.StatusInternalServerError)
	}

	return c.Status(fiber.StatusOK).JSON(client.SignInResponse{
		OK:     true,
		Status: fiber.StatusOK,
		URL:    req.CallbackURL,
		Token:  token,
	})
}

func (s *Server) signInFailed(c *fiber.Ctx, status int) error {
	return c.Status(status).JSON(client.SignInResponse{
		OK:     false,
		Status: status,
		Error:  client.ErrorCredentialsSignIn,
	})
}

// Package web serves the registration form. Each POST runs one
// signup.Controller; a completed registration redirects home, anything
// else re-renders the form with the banner.
package web

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	signup "github.com/goliatone/go-signup"
)

//go:embed views/*.html
var viewsFS embed.FS

// NewEngine returns the django view engine loaded with the embedded views.
func NewEngine() *django.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return django.NewFileSystem(http.FS(sub), ".html")
}

type Routes struct {
	Register string
	Home     string
	SignIn   string
}

type Views struct {
	Register string
	Home     string
}

// Handler wires the registration form into a router.
type Handler struct {
	Debug         bool
	Logger        signup.Logger
	Routes        *Routes
	Views         *Views
	SessionCookie string
	SessionTTL    time.Duration

	creator        signup.AccountCreator
	signer         signup.SignInProvider
	controllerOpts []signup.ControllerOption
}

type HandlerOption func(*Handler) *Handler

// WithControllerOptions forwards opts to every controller the handler builds.
func WithControllerOptions(opts ...signup.ControllerOption) HandlerOption {
	return func(h *Handler) *Handler {
		h.controllerOpts = append(h.controllerOpts, opts...)
		return h
	}
}

// WithLogger overrides the handler logger.
func WithLogger(logger signup.Logger) HandlerOption {
	return func(h *Handler) *Handler {
		if logger != nil {
			h.Logger = logger
		}
		return h
	}
}

// WithRoutes overrides the default routes. Empty values keep the default.
func WithRoutes(routes Routes) HandlerOption {
	return func(h *Handler) *Handler {
		if routes.Register != "" {
			h.Routes.Register = routes.Register
		}
		if routes.Home != "" {
			h.Routes.Home = routes.Home
		}
		if routes.SignIn != "" {
			h.Routes.SignIn = routes.SignIn
		}
		return h
	}
}

// WithDebug enables payload dumps in the controllers.
func WithDebug(debug bool) HandlerOption {
	return func(h *Handler) *Handler {
		h.Debug = debug
		return h
	}
}

// WithSessionCookie sets the cookie used to hand the sign-in token to the
// browser. An empty name disables the cookie.
func WithSessionCookie(name string, ttl time.Duration) HandlerOption {
	return func(h *Handler) *Handler {
		h.SessionCookie = name
		if ttl > 0 {
			h.SessionTTL = ttl
		}
		return h
	}
}

// NewHandler returns a handler using creator and signer for every submission.
func NewHandler(creator signup.AccountCreator, signer signup.SignInProvider, opts ...HandlerOption) *Handler {
	if creator == nil {
		panic("Missing AccountCreator in registration handler...")
	}

	if signer == nil {
		panic("Missing SignInProvider in registration handler...")
	}

	h := &Handler{
		Logger:        signup.DefaultLogger(),
		SessionCookie: "session",
		SessionTTL:    24 * time.Hour,
		Routes: &Routes{
			Register: "/register",
			Home:     signup.DefaultHomePath,
			SignIn:   "/signin",
		},
		Views: &Views{
			Register: "register",
			Home:     "home",
		},
		creator: creator,
		signer:  signer,
	}

	for _, opt := range opts {
		h = opt(h)
	}

	return h
}

// RegisterRoutes mounts the form and home routes of h on app.
func RegisterRoutes[T any](app router.Router[T], h *Handler) {
	app.Get(h.Routes.Register, h.RegistrationShow).
		SetName("register.get")
	app.Post(h.Routes.Register, h.RegistrationCreate).
		SetName("register.post")

	app.Get(h.Routes.Home, h.HomeShow).SetName("home.get")
}

// HomeShow renders the landing page a completed registration redirects to.
func (h *Handler) HomeShow(ctx router.Context) error {
	return ctx.Render(h.Views.Home, router.ViewContext{
		"routes": h.Routes,
	})
}

func (h *Handler) RegistrationShow(ctx router.Context) error {
	return h.render(ctx, router.StatusOK, signup.InitialView(), signup.RegistrationInput{}, nil)
}

func (h *Handler) RegistrationCreate(ctx router.Context) error {
	input := new(signup.RegistrationInput)
	if err := ctx.Bind(input); err != nil {
		h.Logger.Error("register parse payload: %v", err)
		view := signup.InitialView()
		view.InvalidInput = true
		return h.renderError(ctx, router.StatusBadRequest, view, signup.RegistrationInput{}, map[string]string{
			"form": "Failed to parse form",
		}, "Error parsing body")
	}

	nav := &redirectNavigator{ctx: ctx}
	controller := signup.NewController(h.creator, h.signer, nav, h.controllerOptions()...)

	outcome, err := controller.Submit(ctx.Context(), *input)
	view := controller.View()

	if outcome.Completed() && nav.target != "" {
		h.setSession(ctx, outcome)
		if wantsJSON(ctx) {
			return ctx.JSON(router.StatusOK, jsonView(view, nav.target))
		}
		return flash.WithSuccess(ctx, router.ViewContext{
			"system_message": "Successful user registration",
		}).Redirect(nav.target, router.StatusSeeOther)
	}

	if err != nil {
		h.Logger.Info("registration %s ended in %s: %v", outcome.SubmissionID, view.State, err)
	}

	if signup.ErrorKind(err) == signup.FailureValidation {
		validation := signup.FormatValidationErrorToMap(input.Validate())
		return h.renderError(ctx, router.StatusUnprocessableEntity, view, *input, validation, "Error validating payload")
	}

	return h.renderError(ctx, router.StatusOK, view, *input, nil, view.BannerTitle)
}

func (h *Handler) controllerOptions() []signup.ControllerOption {
	opts := []signup.ControllerOption{
		signup.WithLogger(h.Logger),
		signup.WithHomePath(h.Routes.Home),
		signup.WithDebug(h.Debug),
	}
	return append(opts, h.controllerOpts...)
}

// renderError flashes the failure before rendering the form again.
func (h *Handler) renderError(ctx router.Context, status int, view signup.View, input signup.RegistrationInput, validation map[string]string, system string) error {
	message := view.Message
	if message == "" {
		message = signup.MessageInvalidInput
	}

	return h.render(flash.WithError(ctx, router.ViewContext{
		"error_message":  message,
		"system_message": system,
	}), status, view, input, validation)
}

func (h *Handler) render(ctx router.Context, status int, view signup.View, input signup.RegistrationInput, validation map[string]string) error {
	if wantsJSON(ctx) {
		body := jsonView(view, "")
		body["validation"] = validation
		return ctx.JSON(status, body)
	}

	return ctx.Status(status).Render(h.Views.Register, router.ViewContext{
		"view":            view,
		"state":           view.State.String(),
		"record":          input.Masked(),
		"validation":      validation,
		"invalid_message": signup.MessageInvalidInput,
		"routes":          h.Routes,
	})
}

func (h *Handler) setSession(ctx router.Context, outcome signup.Outcome) {
	if h.SessionCookie == "" || outcome.SignIn == nil || outcome.SignIn.Token == "" {
		return
	}

	ctx.Cookie(&router.Cookie{
		Name:     h.SessionCookie,
		Value:    outcome.SignIn.Token,
		Path:     "/",
		Expires:  time.Now().Add(h.SessionTTL),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

func wantsJSON(ctx router.Context) bool {
	return strings.Contains(ctx.Header("Accept"), "application/json")
}

func jsonView(view signup.View, redirect string) map[string]any {
	body := map[string]any{
		"state":           view.State.String(),
		"message":         view.Message,
		"invalid_input":   view.InvalidInput,
		"submit_disabled": view.SubmitDisabled,
		"button_label":    view.ButtonLabel,
		"submission_id":   view.SubmissionID,
	}
	if redirect != "" {
		body["redirect"] = redirect
	}
	return body
}

// redirectNavigator records the navigation target so the handler can answer
// with a redirect once the workflow returns. Prefetch hints are sent as a
// Link header.
type redirectNavigator struct {
	ctx    router.Context
	target string
}

func (n *redirectNavigator) Navigate(_ context.Context, path string) error {
	n.target = path
	return nil
}

func (n *redirectNavigator) Prefetch(_ context.Context, path string) error {
	n.ctx.SetHeader("Link", "<"+path+">; rel=prefetch")
	return nil
}

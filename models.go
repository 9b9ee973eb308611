package signup

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// State is the visible status of a registration workflow.
type State int

const (
	StateIdle State = iota
	StateCreatingAccount
	StateSigningIn
	StateAccountCreationFailed
	StateSignInFailed
	StateComplete
)

var stateNames = map[State]string{
	StateIdle:                  "idle",
	StateCreatingAccount:       "creating_account",
	StateSigningIn:             "signing_in",
	StateAccountCreationFailed: "account_creation_failed",
	StateSignInFailed:          "sign_in_failed",
	StateComplete:              "complete",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether no automatic transition leaves the state.
func (s State) IsTerminal() bool {
	switch s {
	case StateComplete, StateAccountCreationFailed, StateSignInFailed:
		return true
	}
	return false
}

// IsFailure reports whether the state is one of the failure terminals.
func (s State) IsFailure() bool {
	return s == StateAccountCreationFailed || s == StateSignInFailed
}

// IsBusy reports whether a submission is running or has already completed,
// i.e. whether the submit control must be disabled.
func (s State) IsBusy() bool {
	switch s {
	case StateCreatingAccount, StateSigningIn, StateComplete:
		return true
	}
	return false
}

// RegistrationInput is the snapshot of the form fields taken at submit time.
type RegistrationInput struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate checks that every field carries a value. Anything stricter is
// the backend's call and comes back as a 422.
func (r RegistrationInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// Credentials returns the pair handed to the sign-in provider.
func (r RegistrationInput) Credentials() Credentials {
	return Credentials{
		Email:    r.Email,
		Password: r.Password,
	}
}

// Masked returns a copy that is safe to log.
func (r RegistrationInput) Masked() RegistrationInput {
	masked := r
	if masked.Password != "" {
		masked.Password = strings.Repeat("*", 8)
	}
	return masked
}

// Credentials identify the account being signed in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInOptions mirror the flags sent along with a credentials sign-in.
type SignInOptions struct {
	// Redirect asks the provider to redirect on its own. The controller
	// always sends false and navigates itself.
	Redirect bool
	// CallbackURL is forwarded to providers that support it.
	CallbackURL string
}

// View is a render friendly projection of the controller state.
type View struct {
	State          State
	Message        string
	InvalidInput   bool
	SubmitDisabled bool
	ShowBanner     bool
	BannerTitle    string
	ButtonLabel    string
	SubmissionID   string
}

const (
	bannerTitle = "Some error occured"

	labelRegister    = "Register"
	labelCreating    = "Creating account..."
	labelSigningIn   = "Signing into account..."
	labelRedirecting = "Redirecting..."
)

func buttonLabel(s State) string {
	switch s {
	case StateCreatingAccount:
		return labelCreating
	case StateSigningIn:
		return labelSigningIn
	case StateComplete:
		return labelRedirecting
	}
	return labelRegister
}

// ButtonLabel is the submit control caption shown while in s.
func (s State) ButtonLabel() string {
	return buttonLabel(s)
}

// InitialView is the view of a controller that has not been submitted yet.
func InitialView() View {
	return View{
		State:       StateIdle,
		BannerTitle: bannerTitle,
		ButtonLabel: buttonLabel(StateIdle),
	}
}

package signup

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// FailureKind names why a submission did not complete.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureValidation
	FailureConflict
	FailureUnprocessable
	FailureServer
	FailureUnknown
	FailureTransport
	FailureSignIn
)

var failureKindNames = map[FailureKind]string{
	FailureNone:          "none",
	FailureValidation:    "validation",
	FailureConflict:      "conflict",
	FailureUnprocessable: "unprocessable",
	FailureServer:        "server",
	FailureUnknown:       "unknown",
	FailureTransport:     "transport",
	FailureSignIn:        "sign_in",
}

func (k FailureKind) String() string {
	if name, ok := failureKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Banner messages shown to the user for each failure kind.
const (
	MessageInvalidInput   = "Username, email and password are required."
	MessageDuplicateEmail = "Email address already exists, try a different one."
	MessageInvalidData    = "Invalid user data."
	MessageServerError    = "Internal Server Error, please try again. If this error persists contact the website owner"
	MessageUnknownError   = "Unknown error"
	MessageTransportError = "Could not reach the server, check your connection and try again."
	MessageSignInError    = "Failed to sign in, try again manually"
)

// Message returns the banner text for kind.
func (k FailureKind) Message() string {
	switch k {
	case FailureNone:
		return ""
	case FailureValidation:
		return MessageInvalidInput
	case FailureConflict:
		return MessageDuplicateEmail
	case FailureUnprocessable:
		return MessageInvalidData
	case FailureServer:
		return MessageServerError
	case FailureTransport:
		return MessageTransportError
	case FailureSignIn:
		return MessageSignInError
	}
	return MessageUnknownError
}

const (
	TextCodeInvalidInput       = "REGISTRATION_INPUT_INVALID"
	TextCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	TextCodeInvalidUserData    = "INVALID_USER_DATA"
	TextCodeServerError        = "ACCOUNT_SERVER_ERROR"
	TextCodeUnknownResponse    = "ACCOUNT_UNKNOWN_RESPONSE"
	TextCodeTransport          = "ACCOUNT_TRANSPORT_ERROR"
	TextCodeSignInFailed       = "SIGN_IN_FAILED"
	TextCodeSubmissionInFlight = "SUBMISSION_IN_FLIGHT"
	TextCodeAlreadyComplete    = "REGISTRATION_COMPLETE"
	TextCodeInvalidTransition  = "INVALID_REGISTRATION_TRANSITION"
)

// ErrInvalidInput is returned when a required field is empty.
var ErrInvalidInput = goerrors.New("registration input is incomplete", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidInput).
	WithCode(goerrors.CodeBadRequest)

// ErrDuplicateEmail maps a 409 from the account store.
var ErrDuplicateEmail = goerrors.New("email address already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrInvalidUserData maps a 422 from the account store.
var ErrInvalidUserData = goerrors.New("account store rejected user data", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidUserData).
	WithCode(http.StatusUnprocessableEntity)

// ErrServerFailure maps a 500 from the account store.
var ErrServerFailure = goerrors.New("account store failed", goerrors.CategoryInternal).
	WithTextCode(TextCodeServerError).
	WithCode(http.StatusInternalServerError)

// ErrUnknownResponse is any status the workflow has no mapping for.
var ErrUnknownResponse = goerrors.New("unexpected account store response", goerrors.CategoryOperation).
	WithTextCode(TextCodeUnknownResponse)

// ErrTransport is returned when the account store could not be reached.
var ErrTransport = goerrors.New("account store unreachable", goerrors.CategoryOperation).
	WithTextCode(TextCodeTransport).
	WithCode(http.StatusBadGateway)

// ErrSignInFailed is returned when the account exists but no session was established.
var ErrSignInFailed = goerrors.New("sign in after registration failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeSignInFailed).
	WithCode(http.StatusUnauthorized)

// ErrSubmissionInFlight rejects a submit while another one is running.
var ErrSubmissionInFlight = goerrors.New("registration already in progress", goerrors.CategoryConflict).
	WithTextCode(TextCodeSubmissionInFlight).
	WithCode(goerrors.CodeConflict)

// ErrAlreadyComplete rejects a submit once the workflow has completed.
var ErrAlreadyComplete = goerrors.New("registration already complete", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyComplete).
	WithCode(goerrors.CodeConflict)

// ErrInvalidTransition is returned when a state change is not in the transition table.
var ErrInvalidTransition = goerrors.New("invalid registration state transition", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

var failureErrors = map[FailureKind]*goerrors.Error{
	FailureValidation:    ErrInvalidInput,
	FailureConflict:      ErrDuplicateEmail,
	FailureUnprocessable: ErrInvalidUserData,
	FailureServer:        ErrServerFailure,
	FailureUnknown:       ErrUnknownResponse,
	FailureTransport:     ErrTransport,
	FailureSignIn:        ErrSignInFailed,
}

// Err returns a fresh error for kind with source attached. FailureNone
// yields nil.
func (k FailureKind) Err(source error, meta map[string]any) error {
	if k == FailureNone {
		return nil
	}
	base, ok := failureErrors[k]
	if !ok {
		base = ErrUnknownResponse
	}
	return wrapFailure(base, source, meta)
}

func wrapFailure(base *goerrors.Error, source error, meta map[string]any) error {
	clone := base.Clone()
	if clone == nil {
		clone = base
	}

	data := map[string]any{}
	for k, v := range meta {
		data[k] = v
	}

	if source != nil {
		clone.Source = source
		data["cause"] = source.Error()
	}

	if len(data) > 0 {
		clone.WithMetadata(data)
	}

	return clone
}

var textCodeKinds = map[string]FailureKind{
	TextCodeInvalidInput:    FailureValidation,
	TextCodeDuplicateEmail:  FailureConflict,
	TextCodeInvalidUserData: FailureUnprocessable,
	TextCodeServerError:     FailureServer,
	TextCodeUnknownResponse: FailureUnknown,
	TextCodeTransport:       FailureTransport,
	TextCodeSignInFailed:    FailureSignIn,
}

// ErrorKind maps err back to the failure kind it was built from. Errors
// that did not originate in this package resolve to FailureUnknown.
func ErrorKind(err error) FailureKind {
	if err == nil {
		return FailureNone
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if kind, ok := textCodeKinds[richErr.TextCode]; ok {
			return kind
		}
	}

	return FailureUnknown
}

// HasTextCode reports whether err is a rich error carrying code.
func HasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// FormatValidationErrorToMap flattens ozzo validation errors into field
// name to message pairs.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr == nil {
				continue
			}
			out[field] = ferr.Error()
		}
		return out
	}

	out["form"] = err.Error()
	return out
}

package signup

import "net/http"

// CreateAccountResult is the typed outcome of the create-account step.
type CreateAccountResult struct {
	Status int
	Kind   FailureKind
	Err    error
}

// Created reports whether the account store accepted the new account.
// Only a 201 counts, the zero value is not a success.
func (r CreateAccountResult) Created() bool {
	return r.Kind == FailureNone && r.Status == http.StatusCreated
}

// ClassifyStatus maps an account store status code to a failure kind.
// 201 is the only success.
func ClassifyStatus(status int) FailureKind {
	switch status {
	case http.StatusCreated:
		return FailureNone
	case http.StatusConflict:
		return FailureConflict
	case http.StatusUnprocessableEntity:
		return FailureUnprocessable
	case http.StatusInternalServerError:
		return FailureServer
	}
	return FailureUnknown
}

// CreateAccountResultFromStatus builds a result from a received response.
func CreateAccountResultFromStatus(status int) CreateAccountResult {
	kind := ClassifyStatus(status)
	return CreateAccountResult{
		Status: status,
		Kind:   kind,
		Err:    kind.Err(nil, map[string]any{"status": status}),
	}
}

// CreateAccountTransportFailure builds a result for a request that never
// produced a response.
func CreateAccountTransportFailure(err error) CreateAccountResult {
	return CreateAccountResult{
		Kind: FailureTransport,
		Err:  FailureTransport.Err(err, nil),
	}
}

// SignInResult is the typed outcome of the sign-in step. It mirrors the
// shape returned by credential providers: Error is empty on success.
type SignInResult struct {
	OK     bool
	Status int
	Error  string
	URL    string
	Token  string
}

// Succeeded reports whether a session was established.
func (r SignInResult) Succeeded() bool {
	return r.Error == ""
}

// Outcome is what a submission ended with.
type Outcome struct {
	SubmissionID string
	State        State
	Kind         FailureKind
	Message      string
	Err          error
	Create       *CreateAccountResult
	SignIn       *SignInResult
	NavigatedTo  string
}

// Completed reports whether the workflow reached StateComplete.
func (o Outcome) Completed() bool {
	return o.State == StateComplete
}

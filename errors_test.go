package signup_test

import (
	"errors"
	"net/http"
	"testing"

	signup "github.com/goliatone/go-signup"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected signup.FailureKind
	}{
		{http.StatusCreated, signup.FailureNone},
		{http.StatusConflict, signup.FailureConflict},
		{http.StatusUnprocessableEntity, signup.FailureUnprocessable},
		{http.StatusInternalServerError, signup.FailureServer},
		{http.StatusOK, signup.FailureUnknown},
		{http.StatusBadRequest, signup.FailureUnknown},
		{http.StatusServiceUnavailable, signup.FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, signup.ClassifyStatus(tt.status))
		})
	}
}

func TestCreateAccountResultFromStatus(t *testing.T) {
	created := signup.CreateAccountResultFromStatus(http.StatusCreated)
	assert.True(t, created.Created())
	assert.NoError(t, created.Err)

	conflict := signup.CreateAccountResultFromStatus(http.StatusConflict)
	assert.False(t, conflict.Created())
	require.Error(t, conflict.Err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(conflict.Err, &richErr))
	assert.Equal(t, signup.TextCodeDuplicateEmail, richErr.TextCode)
	assert.Equal(t, http.StatusConflict, richErr.Metadata["status"])
}

func TestCreateAccountResultZeroValueIsNotCreated(t *testing.T) {
	assert.False(t, signup.CreateAccountResult{}.Created())

	missing := signup.CreateAccountResultFromStatus(0)
	assert.False(t, missing.Created())
	assert.Equal(t, signup.FailureUnknown, missing.Kind)
	assert.True(t, signup.HasTextCode(missing.Err, signup.TextCodeUnknownResponse))
}

func TestFailureKindErrReturnsClone(t *testing.T) {
	err := signup.FailureConflict.Err(errors.New("boom"), map[string]any{"status": 409})

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, "boom", richErr.Metadata["cause"])
	assert.Equal(t, 409, richErr.Metadata["status"])
	assert.NotSame(t, signup.ErrDuplicateEmail, richErr)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected signup.FailureKind
	}{
		{"nil", nil, signup.FailureNone},
		{"foreign error", errors.New("nope"), signup.FailureUnknown},
		{"validation", signup.FailureValidation.Err(nil, nil), signup.FailureValidation},
		{"unprocessable", signup.FailureUnprocessable.Err(nil, nil), signup.FailureUnprocessable},
		{"transport", signup.CreateAccountTransportFailure(errors.New("eof")).Err, signup.FailureTransport},
		{"sign in", signup.FailureSignIn.Err(nil, nil), signup.FailureSignIn},
		{"in flight is not a failure kind", signup.ErrSubmissionInFlight, signup.FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, signup.ErrorKind(tt.err))
		})
	}
}

func TestFailureKindMessages(t *testing.T) {
	assert.Equal(t, "", signup.FailureNone.Message())
	assert.Equal(t, "Email address already exists, try a different one.", signup.FailureConflict.Message())
	assert.Equal(t, "Invalid user data.", signup.FailureUnprocessable.Message())
	assert.Equal(t, "Unknown error", signup.FailureUnknown.Message())
	assert.Equal(t, "Unknown error", signup.FailureKind(99).Message())
	assert.NotEqual(t, signup.FailureUnknown.Message(), signup.FailureTransport.Message())
	assert.Nil(t, signup.FailureNone.Err(errors.New("ignored"), nil))
}

func TestFormatValidationErrorToMap(t *testing.T) {
	err := signup.RegistrationInput{Username: "alice"}.Validate()
	require.Error(t, err)

	fields := signup.FormatValidationErrorToMap(err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.NotContains(t, fields, "username")

	assert.Equal(t, map[string]string{"form": "plain"}, signup.FormatValidationErrorToMap(errors.New("plain")))
	assert.Empty(t, signup.FormatValidationErrorToMap(nil))
}

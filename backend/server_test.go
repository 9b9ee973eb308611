package backend_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/backend"
	"github.com/goliatone/go-signup/client"
)

var signingKey = []byte("backend-test-key")

func newServerApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := backend.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := backend.NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))

	accounts := backend.NewAccounts(store, backend.NewTokenMinter(signingKey, "go-signup", time.Hour),
		backend.WithAccountsLogger(signup.NoopLogger()),
		backend.WithBcryptCost(bcrypt.MinCost),
	)
	srv := backend.NewServer(accounts, backend.WithServerLogger(signup.NoopLogger()))

	app := fiber.New()
	srv.Register(app)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

const alice = `{"username":"alice","email":"a@example.com","password":"secret1"}`

func TestStoreUserStatuses(t *testing.T) {
	app := newServerApp(t)

	resp := postJSON(t, app, client.DefaultStoreUserPath, alice)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var user map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, "a@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")

	resp = postJSON(t, app, client.DefaultStoreUserPath, alice)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, app, client.DefaultStoreUserPath, `{"username":"bob","email":"not-an-email","password":"secret1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var invalid map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&invalid))
	assert.Contains(t, invalid["errors"], "email")

	resp = postJSON(t, app, client.DefaultStoreUserPath, `{"username":"bob"`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCredentialsSignIn(t *testing.T) {
	app := newServerApp(t)

	resp := postJSON(t, app, client.DefaultStoreUserPath, alice)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, client.DefaultSignInPath,
		`{"email":"a@example.com","password":"secret1","redirect":false,"callbackUrl":"/"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var ok client.SignInResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ok))
	assert.True(t, ok.OK)
	assert.Empty(t, ok.Error)
	assert.Equal(t, "/", ok.URL)

	session, err := client.NewHMACVerifier(signingKey).Verify(ok.Token)
	require.NoError(t, err)
	assert.Equal(t, "go-signup", session.Issuer)
	assert.Equal(t, "alice", session.Data["username"])

	tests := []struct {
		name string
		body string
	}{
		{"wrong password", `{"email":"a@example.com","password":"nope"}`},
		{"unknown email", `{"email":"ghost@example.com","password":"secret1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, app, client.DefaultSignInPath, tt.body)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			var failed client.SignInResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&failed))
			assert.False(t, failed.OK)
			assert.Equal(t, client.ErrorCredentialsSignIn, failed.Error)
			assert.Empty(t, failed.Token)
		})
	}
}

// recordingNavigator records the last navigation target.
type recordingNavigator struct {
	path string
}

func (n *recordingNavigator) Navigate(_ context.Context, path string) error {
	n.path = path
	return nil
}

func TestRegistrationAgainstBackend(t *testing.T) {
	app := newServerApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	cfg := client.Config{BaseURL: "http://" + ln.Addr().String(), Timeout: 5 * time.Second}
	creator := client.NewAccountClient(cfg, client.WithLogger(signup.NoopLogger()))
	signer := client.NewCredentialsClient(cfg,
		client.WithLogger(signup.NoopLogger()),
		client.WithTokenVerifier(client.NewHMACVerifier(signingKey)),
	)

	input := signup.RegistrationInput{Username: "alice", Email: "a@example.com", Password: "secret1"}

	nav := &recordingNavigator{}
	ctrl := signup.NewController(creator, signer, nav, signup.WithLogger(signup.NoopLogger()))
	outcome, err := ctrl.Submit(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, signup.StateComplete, outcome.State)
	assert.Equal(t, "/", nav.path)
	require.NotNil(t, outcome.SignIn)
	assert.NotEmpty(t, outcome.SignIn.Token)

	again := signup.NewController(creator, signer, &recordingNavigator{}, signup.WithLogger(signup.NoopLogger()))
	outcome, err = again.Submit(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, signup.StateAccountCreationFailed, outcome.State)
	assert.Equal(t, signup.FailureConflict, outcome.Kind)
	assert.Equal(t, signup.MessageDuplicateEmail, again.View().Message)

	invalid := signup.NewController(creator, signer, &recordingNavigator{}, signup.WithLogger(signup.NoopLogger()))
	outcome, err = invalid.Submit(context.Background(), signup.RegistrationInput{
		Username: "bob", Email: "bob", Password: "secret1",
	})
	require.Error(t, err)
	assert.Equal(t, signup.FailureUnprocessable, outcome.Kind)
	assert.Equal(t, signup.MessageInvalidData, invalid.View().Message)
}

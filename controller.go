package signup

import (
	"context"
	"fmt"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// DefaultHomePath is where a completed registration navigates to.
const DefaultHomePath = "/"

// ControllerOption customizes controller construction.
type ControllerOption func(*Controller)

// WithLogger overrides the logger.
func WithLogger(logger Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithActivitySink sets the ActivitySink used to publish workflow events.
func WithActivitySink(sink ActivitySink) ControllerOption {
	return func(c *Controller) {
		c.activitySink = normalizeActivitySink(sink)
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) ControllerOption {
	return func(c *Controller) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithHomePath overrides the navigation target used on completion.
func WithHomePath(path string) ControllerOption {
	return func(c *Controller) {
		if path != "" {
			c.homePath = path
		}
	}
}

// WithSubmissionIDGenerator overrides how submission identifiers are made.
func WithSubmissionIDGenerator(gen func() string) ControllerOption {
	return func(c *Controller) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// WithDebug dumps submitted payloads (password masked) at debug level.
func WithDebug(debug bool) ControllerOption {
	return func(c *Controller) {
		c.debug = debug
	}
}

// Controller drives one registration form: it creates the account, signs
// the user in and navigates home. A controller runs at most one submission
// at a time; failed submissions may be retried by submitting again.
type Controller struct {
	mu           sync.Mutex
	state        State
	message      string
	invalidInput bool
	submissionID string

	creator AccountCreator
	signer  SignInProvider
	nav     Navigator

	homePath     string
	debug        bool
	now          func() time.Time
	newID        func() string
	activitySink ActivitySink
	logger       Logger
}

// NewController returns a controller in StateIdle.
func NewController(creator AccountCreator, signer SignInProvider, nav Navigator, opts ...ControllerOption) *Controller {
	if creator == nil {
		panic("signup: missing AccountCreator")
	}
	if signer == nil {
		panic("signup: missing SignInProvider")
	}
	if nav == nil {
		panic("signup: missing Navigator")
	}

	c := &Controller{
		state:        StateIdle,
		creator:      creator,
		signer:       signer,
		nav:          nav,
		homePath:     DefaultHomePath,
		now:          time.Now,
		newID:        func() string { return uuid.NewString() },
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// State returns the current workflow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns a render friendly snapshot of the controller.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	return View{
		State:          c.state,
		Message:        c.message,
		InvalidInput:   c.invalidInput,
		SubmitDisabled: c.state.IsBusy(),
		ShowBanner:     c.state.IsFailure(),
		BannerTitle:    bannerTitle,
		ButtonLabel:    buttonLabel(c.state),
		SubmissionID:   c.submissionID,
	}
}

// Submit runs the registration pipeline for input and returns how it ended.
// The returned error is nil only when the workflow reached StateComplete and
// navigation succeeded; Outcome carries the details either way.
func (c *Controller) Submit(ctx context.Context, input RegistrationInput) (Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	outcome, err := c.begin(ctx, input)
	if err != nil {
		return outcome, err
	}

	ctx = WithSubmissionID(ctx, outcome.SubmissionID)
	c.prefetch(ctx)

	created := c.createAccount(ctx, input)
	outcome.Create = &created
	if !created.Created() {
		return c.fail(ctx, outcome, StateAccountCreationFailed, created.Kind, created.Status, created.Err)
	}

	if err := c.transition(ctx, outcome.SubmissionID, StateSigningIn, FailureNone, created.Status, ""); err != nil {
		return outcome, err
	}
	c.record(ctx, ActivityEvent{
		EventType:    ActivityEventAccountCreated,
		SubmissionID: outcome.SubmissionID,
		Email:        input.Email,
		ToState:      StateSigningIn,
		Status:       created.Status,
	})

	signedIn, signErr := c.signIn(ctx, input.Credentials())
	outcome.SignIn = &signedIn
	if signErr != nil {
		return c.fail(ctx, outcome, StateSignInFailed, FailureSignIn, signedIn.Status, signErr)
	}

	if err := c.transition(ctx, outcome.SubmissionID, StateComplete, FailureNone, signedIn.Status, ""); err != nil {
		return outcome, err
	}
	outcome.State = StateComplete

	if err := c.nav.Navigate(ctx, c.homePath); err != nil {
		c.logger.Error("registration %s navigation to %s failed: %v", outcome.SubmissionID, c.homePath, err)
		outcome.Err = goerrors.Wrap(err, goerrors.CategoryOperation, "navigation after registration failed")
		return outcome, outcome.Err
	}
	outcome.NavigatedTo = c.homePath

	c.record(ctx, ActivityEvent{
		EventType:    ActivityEventCompleted,
		SubmissionID: outcome.SubmissionID,
		Email:        input.Email,
		ToState:      StateComplete,
		Metadata:     map[string]any{"navigated_to": c.homePath},
	})

	return outcome, nil
}

// begin validates the submission and moves the controller into
// StateCreatingAccount. Rejected submissions leave no trace besides the
// invalid input flag.
func (c *Controller) begin(ctx context.Context, input RegistrationInput) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.state
	if current.IsBusy() {
		base := ErrSubmissionInFlight
		if current == StateComplete {
			base = ErrAlreadyComplete
		}
		err := wrapFailure(base, nil, map[string]any{
			"state":         current.String(),
			"submission_id": c.submissionID,
		})
		c.recordLocked(ctx, ActivityEvent{
			EventType:    ActivityEventSubmissionRejected,
			SubmissionID: c.submissionID,
			FromState:    current,
			ToState:      current,
			Metadata:     map[string]any{"reason": current.String()},
		})
		return Outcome{SubmissionID: c.submissionID, State: current, Err: err}, err
	}

	if current.IsFailure() {
		if err := c.setStateLocked(ctx, c.submissionID, StateIdle, FailureNone, 0, ""); err != nil {
			return Outcome{SubmissionID: c.submissionID, State: current, Err: err}, err
		}
	}

	c.message = ""
	c.invalidInput = false

	if c.debug {
		c.logger.Debug("registration payload: %s", print.MaybePrettyJSON(input.Masked()))
	}

	if err := input.Validate(); err != nil {
		c.invalidInput = true
		verr := FailureValidation.Err(err, map[string]any{
			"fields": FormatValidationErrorToMap(err),
		})
		c.recordLocked(ctx, ActivityEvent{
			EventType: ActivityEventSubmissionRejected,
			Email:     input.Email,
			FromState: StateIdle,
			ToState:   StateIdle,
			Kind:      FailureValidation,
			Metadata:  map[string]any{"reason": "invalid_input"},
		})
		return Outcome{
			State:   StateIdle,
			Kind:    FailureValidation,
			Message: FailureValidation.Message(),
			Err:     verr,
		}, verr
	}

	id := c.newID()
	if err := c.setStateLocked(ctx, id, StateCreatingAccount, FailureNone, 0, ""); err != nil {
		return Outcome{State: c.state, Err: err}, err
	}
	c.submissionID = id

	return Outcome{SubmissionID: id, State: StateCreatingAccount}, nil
}

func (c *Controller) prefetch(ctx context.Context) {
	p, ok := c.nav.(Prefetcher)
	if !ok {
		return
	}
	if err := p.Prefetch(ctx, c.homePath); err != nil {
		c.logger.Warn("registration prefetch of %s failed: %v", c.homePath, err)
	}
}

func (c *Controller) createAccount(ctx context.Context, input RegistrationInput) CreateAccountResult {
	res, err := c.creator.CreateAccount(ctx, input)
	if err != nil {
		kind := ErrorKind(err)
		if kind == FailureUnknown && !HasTextCode(err, TextCodeUnknownResponse) {
			return CreateAccountTransportFailure(err)
		}
		return CreateAccountResult{Status: res.Status, Kind: kind, Err: err}
	}

	if res.Status != 0 {
		return CreateAccountResultFromStatus(res.Status)
	}

	// without a status only an explicit failure kind is trusted, an empty
	// result never counts as created
	if res.Kind == FailureNone {
		return CreateAccountResultFromStatus(0)
	}
	if res.Err == nil {
		res.Err = res.Kind.Err(nil, nil)
	}
	return res
}

func (c *Controller) signIn(ctx context.Context, creds Credentials) (SignInResult, error) {
	opts := SignInOptions{
		Redirect:    false,
		CallbackURL: c.homePath,
	}

	res, err := c.signer.SignIn(ctx, creds, opts)
	if err != nil {
		return res, FailureSignIn.Err(err, map[string]any{"status": res.Status})
	}

	if !res.Succeeded() {
		return res, FailureSignIn.Err(fmt.Errorf("sign in provider: %s", res.Error), map[string]any{
			"status": res.Status,
		})
	}

	return res, nil
}

func (c *Controller) fail(ctx context.Context, outcome Outcome, to State, kind FailureKind, status int, cause error) (Outcome, error) {
	if err := c.transition(ctx, outcome.SubmissionID, to, kind, status, kind.Message()); err != nil {
		return outcome, err
	}

	c.logger.Warn("registration %s ended in %s (%s): %v", outcome.SubmissionID, to, kind, cause)

	outcome.State = to
	outcome.Kind = kind
	outcome.Message = kind.Message()
	outcome.Err = cause
	return outcome, cause
}

func (c *Controller) transition(ctx context.Context, id string, to State, kind FailureKind, status int, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setStateLocked(ctx, id, to, kind, status, message)
}

func (c *Controller) setStateLocked(ctx context.Context, id string, to State, kind FailureKind, status int, message string) error {
	from := c.state
	if !CanTransition(from, to) {
		return invalidTransition(from, to)
	}

	c.state = to
	c.message = message

	c.logger.Debug("registration %s: %s -> %s", id, from, to)
	c.recordLocked(ctx, ActivityEvent{
		EventType:    ActivityEventStateChanged,
		SubmissionID: id,
		FromState:    from,
		ToState:      to,
		Kind:         kind,
		Status:       status,
	})

	return nil
}

func (c *Controller) record(ctx context.Context, event ActivityEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordLocked(ctx, event)
}

func (c *Controller) recordLocked(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = c.now()
	}

	sink := normalizeActivitySink(c.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		c.logger.Warn("registration activity sink error: %v", err)
	}
}

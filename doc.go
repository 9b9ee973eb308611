// Package signup implements the registration workflow behind a sign up form:
// create the account, sign the new user in, navigate home.
//
// Workflow:
//   - Controller owns a single State and walks it through Idle,
//     CreatingAccount, SigningIn and one of the terminals Complete,
//     AccountCreationFailed or SignInFailed. The transition graph lives in
//     state_machine.go; CanTransition exposes it.
//   - Collaborators are interfaces: AccountCreator posts the account,
//     SignInProvider establishes a session and Navigator performs the final
//     redirect. The client package ships HTTP implementations.
//   - Every failure carries a FailureKind and a *goerrors.Error with a
//     TextCode. Transport failures are reported separately from unexpected
//     status codes.
//
// Activity sinks:
//   - ActivitySink receives one event per transition plus submission
//     rejections. Sinks run best-effort (errors are logged). The metrics
//     package provides a Prometheus backed sink.
package signup

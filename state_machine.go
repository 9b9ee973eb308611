package signup

var transitions = map[State]map[State]struct{}{
	StateIdle: {
		StateCreatingAccount: {},
	},
	StateCreatingAccount: {
		StateSigningIn:             {},
		StateAccountCreationFailed: {},
	},
	StateSigningIn: {
		StateComplete:     {},
		StateSignInFailed: {},
	},
	// resubmission restarts from Idle
	StateAccountCreationFailed: {
		StateIdle: {},
	},
	StateSignInFailed: {
		StateIdle: {},
	},
}

// CanTransition reports whether the workflow may move from one state to
// another. Complete has no outgoing edges.
func CanTransition(from, to State) bool {
	if allowed, ok := transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func invalidTransition(from, to State) error {
	return wrapFailure(ErrInvalidTransition, nil, map[string]any{
		"from": from.String(),
		"to":   to.String(),
	})
}

package signup

import "context"

var submissionCtxKey = &contextKey{"submission"}

type contextKey struct {
	name string
}

// WithSubmissionID stores the submission identifier in ctx so collaborators
// can correlate their requests.
func WithSubmissionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, submissionCtxKey, id)
}

// SubmissionIDFromContext returns the identifier set by WithSubmissionID.
func SubmissionIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(submissionCtxKey).(string)
	return id, ok && id != ""
}

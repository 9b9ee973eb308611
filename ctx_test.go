package signup_test

import (
	"context"
	"testing"

	signup "github.com/goliatone/go-signup"
	"github.com/stretchr/testify/assert"
)

func TestSubmissionIDContext(t *testing.T) {
	ctx := signup.WithSubmissionID(context.Background(), "abc")

	id, ok := signup.SubmissionIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = signup.SubmissionIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = signup.SubmissionIDFromContext(signup.WithSubmissionID(context.Background(), ""))
	assert.False(t, ok)
}

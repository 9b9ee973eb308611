package activitymap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/activitymap"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	event := signup.ActivityEvent{
		EventType:    signup.ActivityEventStateChanged,
		SubmissionID: "sub-1",
		Email:        "a@example.com",
		FromState:    signup.StateCreatingAccount,
		ToState:      signup.StateAccountCreationFailed,
		Kind:         signup.FailureConflict,
		Status:       409,
		Metadata: map[string]any{
			"attempt": 2,
		},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "a@example.com" {
		t.Fatalf("expected actor_id a@example.com, got %q", out.ActorID)
	}
	if out.Verb != string(signup.ActivityEventStateChanged) {
		t.Fatalf("expected verb %q, got %q", signup.ActivityEventStateChanged, out.Verb)
	}
	if out.ObjectType != "registration" {
		t.Fatalf("expected object_type registration, got %q", out.ObjectType)
	}
	if out.ObjectID != "sub-1" {
		t.Fatalf("expected object_id sub-1, got %q", out.ObjectID)
	}
	if out.Channel != "signup" {
		t.Fatalf("expected channel signup, got %q", out.Channel)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}

	if out.Metadata["attempt"] != 2 {
		t.Fatalf("expected metadata attempt 2, got %#v", out.Metadata["attempt"])
	}
	if out.Metadata[activitymap.MetadataKeyFromState] != "creating_account" {
		t.Fatalf("expected from_state creating_account, got %#v", out.Metadata[activitymap.MetadataKeyFromState])
	}
	if out.Metadata[activitymap.MetadataKeyToState] != "account_creation_failed" {
		t.Fatalf("expected to_state account_creation_failed, got %#v", out.Metadata[activitymap.MetadataKeyToState])
	}
	if out.Metadata[activitymap.MetadataKeyKind] != "conflict" {
		t.Fatalf("expected failure_kind conflict, got %#v", out.Metadata[activitymap.MetadataKeyKind])
	}
	if out.Metadata[activitymap.MetadataKeyStatus] != 409 {
		t.Fatalf("expected status 409, got %#v", out.Metadata[activitymap.MetadataKeyStatus])
	}
}

func TestNormalizeDoesNotMutateEventMetadata(t *testing.T) {
	t.Parallel()

	meta := map[string]any{"attempt": 1}
	event := signup.ActivityEvent{
		EventType: signup.ActivityEventStateChanged,
		FromState: signup.StateIdle,
		ToState:   signup.StateCreatingAccount,
		Metadata:  meta,
	}

	_ = activitymap.Normalize(event)

	if len(meta) != 1 {
		t.Fatalf("expected event metadata untouched, got %#v", meta)
	}
}

func TestNormalizeOptionsAndFallbacks(t *testing.T) {
	t.Parallel()

	event := signup.ActivityEvent{
		EventType:    signup.ActivityEventSubmissionRejected,
		SubmissionID: "  sub-2  ",
		Kind:         signup.FailureValidation,
	}

	out := activitymap.Normalize(event,
		activitymap.WithDefaultChannel(" web "),
		activitymap.WithDefaultObjectType("signup_form"),
		activitymap.WithActorFallback("visitor"),
	)

	if out.ActorID != "visitor" {
		t.Fatalf("expected fallback actor visitor, got %q", out.ActorID)
	}
	if out.Channel != "web" {
		t.Fatalf("expected channel web, got %q", out.Channel)
	}
	if out.ObjectType != "signup_form" {
		t.Fatalf("expected object_type signup_form, got %q", out.ObjectType)
	}
	if out.ObjectID != "sub-2" {
		t.Fatalf("expected trimmed object_id, got %q", out.ObjectID)
	}
	if _, ok := out.Metadata[activitymap.MetadataKeyFromState]; ok {
		t.Fatalf("expected no state metadata on rejection, got %#v", out.Metadata)
	}
	if out.OccurredAt.IsZero() {
		t.Fatal("expected occurred_at fallback")
	}
}

func TestWriterEmitsJSONLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := activitymap.NewWriter(&buf)

	events := []signup.ActivityEvent{
		{EventType: signup.ActivityEventStateChanged, SubmissionID: "s", FromState: signup.StateIdle, ToState: signup.StateCreatingAccount},
		{EventType: signup.ActivityEventCompleted, SubmissionID: "s", Email: "a@example.com"},
	}
	for _, evt := range events {
		if err := w.Record(context.Background(), evt); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	var last activitymap.Normalized
	if err := json.Unmarshal([]byte(lines[1]), &last); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if last.Verb != string(signup.ActivityEventCompleted) || last.ActorID != "a@example.com" {
		t.Fatalf("unexpected record %#v", last)
	}
}

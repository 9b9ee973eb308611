package activitymap

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	signup "github.com/goliatone/go-signup"
)

const (
	MetadataKeyFromState = "from_state"
	MetadataKeyToState   = "to_state"
	MetadataKeyKind      = "failure_kind"
	MetadataKeyStatus    = "status"
)

const (
	defaultChannel    = "signup"
	defaultObjectType = "registration"
	defaultActorID    = "anonymous"
)

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel       string
	objectType    string
	actorFallback string
}

// Normalize converts a signup.ActivityEvent into a generic normalized shape.
// The actor is the registering email, the object the submission.
func Normalize(event signup.ActivityEvent, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID:    firstNonEmpty(strings.TrimSpace(event.Email), options.actorFallback),
		Verb:       string(event.EventType),
		ObjectType: options.objectType,
		ObjectID:   strings.TrimSpace(event.SubmissionID),
		Channel:    options.channel,
		Metadata:   normalizeMetadata(event),
		OccurredAt: occurredAt,
	}
}

// WithDefaultChannel sets the default channel for normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the default object type for normalized records.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback sets the actor id used when the event carries no email.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
}

func normalizeMetadata(event signup.ActivityEvent) map[string]any {
	metadata := cloneMap(event.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}

	if event.EventType == signup.ActivityEventStateChanged {
		set(MetadataKeyFromState, event.FromState.String())
		set(MetadataKeyToState, event.ToState.String())
	}

	if event.Kind != signup.FailureNone {
		set(MetadataKeyKind, event.Kind.String())
	}

	if event.Status != 0 {
		set(MetadataKeyStatus, event.Status)
	}

	return metadata
}

// Writer is a signup.ActivitySink that writes every event as one line of
// normalized JSON.
type Writer struct {
	mu   sync.Mutex
	enc  *json.Encoder
	opts []Option
}

var _ signup.ActivitySink = (*Writer)(nil)

func NewWriter(w io.Writer, opts ...Option) *Writer {
	return &Writer{
		enc:  json.NewEncoder(w),
		opts: opts,
	}
}

func (w *Writer) Record(_ context.Context, event signup.ActivityEvent) error {
	record := Normalize(event, w.opts...)

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(record)
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

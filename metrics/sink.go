// Package metrics exposes registration workflow activity as Prometheus
// metrics through a signup.ActivitySink.
package metrics

import (
	"context"
	"sync"
	"time"

	signup "github.com/goliatone/go-signup"
	"github.com/prometheus/client_golang/prometheus"
)

// Sink implements signup.ActivitySink.
type Sink struct {
	transitions *prometheus.CounterVec
	outcomes    *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	inFlight    prometheus.Gauge
	duration    *prometheus.HistogramVec

	mu     sync.Mutex
	starts map[string]time.Time
}

var _ signup.ActivitySink = (*Sink)(nil)

// NewSink builds the collectors and registers them with reg.
func NewSink(reg prometheus.Registerer, namespace string) (*Sink, error) {
	if namespace == "" {
		namespace = "signup"
	}

	s := &Sink{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Registration workflow state transitions.",
		}, []string{"from", "to"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Registration submissions by terminal state and failure kind.",
		}, []string{"state", "kind"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_rejected_total",
			Help:      "Submissions rejected before any request was made.",
		}, []string{"reason"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "submissions_in_flight",
			Help:      "Registration workflows currently running.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Time from submit to terminal state.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"state"}),
		starts: map[string]time.Time{},
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{s.transitions, s.outcomes, s.rejections, s.inFlight, s.duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

// Record implements signup.ActivitySink.
func (s *Sink) Record(_ context.Context, event signup.ActivityEvent) error {
	switch event.EventType {
	case signup.ActivityEventSubmissionRejected:
		reason, _ := event.Metadata["reason"].(string)
		if reason == "" {
			reason = "unknown"
		}
		s.rejections.WithLabelValues(reason).Inc()

	case signup.ActivityEventStateChanged:
		s.transitions.WithLabelValues(event.FromState.String(), event.ToState.String()).Inc()

		if event.ToState == signup.StateCreatingAccount {
			s.inFlight.Inc()
			s.start(event.SubmissionID, event.OccurredAt)
		}

		if event.ToState.IsTerminal() {
			s.inFlight.Dec()
			s.outcomes.WithLabelValues(event.ToState.String(), event.Kind.String()).Inc()
			if started, ok := s.finish(event.SubmissionID); ok && !event.OccurredAt.IsZero() {
				s.duration.WithLabelValues(event.ToState.String()).Observe(event.OccurredAt.Sub(started).Seconds())
			}
		}
	}

	return nil
}

func (s *Sink) start(id string, at time.Time) {
	if id == "" || at.IsZero() {
		return
	}
	s.mu.Lock()
	s.starts[id] = at
	s.mu.Unlock()
}

func (s *Sink) finish(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	started, ok := s.starts[id]
	delete(s.starts, id)
	return started, ok
}

// Package metrics records resolver outcomes. Components receive a Recorder
// and default to NoopRecorder when metrics are disabled.
package metrics

import "time"

// Outcome labels a finished request by its response class.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeRedirect   Outcome = "redirect"
	OutcomeBadRequest Outcome = "bad_request"
	OutcomeNotFound   Outcome = "not_found"
	OutcomeInternal   Outcome = "internal_error"
)

// Recorder defines the resolver's observability hooks.
type Recorder interface {
	IncResolve(outcome Outcome)
	IncFallback(found bool)
	ObserveRender(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncResolve(Outcome) {}

func (NoopRecorder) IncFallback(bool) {}

func (NoopRecorder) ObserveRender(time.Duration) {}

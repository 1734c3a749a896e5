package stats

import (
	"time"

	"github.com/hamed0406/urlcheck/internal/domain"
)

// SuccessPredicate decides whether an outcome counts as succeeded.
type SuccessPredicate func(domain.ProbeOutcome) bool

// DefaultSuccess: a status code was obtained and it is below 400.
func DefaultSuccess(o domain.ProbeOutcome) bool {
	return o.StatusCode != nil && *o.StatusCode < 400
}

// StatusBelow returns a predicate accepting status codes below limit.
func StatusBelow(limit int) SuccessPredicate {
	return func(o domain.ProbeOutcome) bool {
		return o.StatusCode != nil && *o.StatusCode < limit
	}
}

// Compute folds outcomes into RunStats. Latency covers every outcome,
// failures included. A nil predicate means DefaultSuccess.
func Compute(outcomes []domain.ProbeOutcome, ok SuccessPredicate) domain.RunStats {
	if ok == nil {
		ok = DefaultSuccess
	}
	var s domain.RunStats
	if len(outcomes) == 0 {
		return s
	}

	var sum time.Duration
	s.MinLatency = outcomes[0].Elapsed
	for _, o := range outcomes {
		s.Total++
		if ok(o) {
			s.Succeeded++
		}
		sum += o.Elapsed
		if o.Elapsed < s.MinLatency {
			s.MinLatency = o.Elapsed
		}
		if o.Elapsed > s.MaxLatency {
			s.MaxLatency = o.Elapsed
		}
		s.TotalBytes += o.ResponseSize
	}
	s.Failed = s.Total - s.Succeeded
	s.AvgLatency = sum / time.Duration(s.Total)
	return s
}

// Classify is the reporting view of an outcome: a response whose status
// fails the predicate is flagged as an HTTP error.
func Classify(o domain.ProbeOutcome, ok SuccessPredicate) domain.OutcomeKind {
	if ok == nil {
		ok = DefaultSuccess
	}
	if o.Kind == domain.OutcomeSuccess && !ok(o) {
		return domain.OutcomeHTTPError
	}
	return o.Kind
}

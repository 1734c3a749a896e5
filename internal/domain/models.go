package domain

import (
	"fmt"
	"time"
)

// CheckRequest configures one run of the engine. It must not be mutated once
// the run has started.
type CheckRequest struct {
	Targets     []string
	Concurrency int           // max simultaneous in-flight probes
	Timeout     time.Duration // per-probe ceiling
}

func (r CheckRequest) Validate() error {
	if r.Concurrency < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidConcurrency, r.Concurrency)
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidTimeout, r.Timeout)
	}
	return nil
}

type OutcomeKind string

const (
	OutcomeSuccess        OutcomeKind = "success"
	OutcomeHTTPError      OutcomeKind = "http_error"
	OutcomeTransportError OutcomeKind = "transport_error"
	OutcomeTimeout        OutcomeKind = "timeout"
)

// ProbeOutcome is the recorded result of probing one target.
type ProbeOutcome struct {
	URL          string
	Index        int  // position in the original target list
	StatusCode   *int // nil on transport failure or timeout
	StatusReason string
	Elapsed      time.Duration
	ResponseSize int64
	Timestamp    time.Time // UTC, when the probe completed
	Kind         OutcomeKind
	Diagnosis    string // DNS class for transport failures, when diagnosis is enabled
}

// Status returns the status code, or 0 when none was obtained.
func (o ProbeOutcome) Status() int {
	if o.StatusCode == nil {
		return 0
	}
	return *o.StatusCode
}

// RunStats is derived from a set of outcomes; see stats.Compute.
type RunStats struct {
	Total      int
	Succeeded  int
	Failed     int
	AvgLatency time.Duration
	MinLatency time.Duration
	MaxLatency time.Duration
	TotalBytes int64
}

// SuccessRate is the percentage of succeeded outcomes, 0 when there are none.
func (s RunStats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}

// RunResult is everything a run produced. Outcomes are in ascending index
// order; when Partial is set, indices of un-started targets are missing.
type RunResult struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Concurrency int
	Timeout     time.Duration
	TargetCount int
	Outcomes    []ProbeOutcome
	Stats       RunStats
	Partial     bool
}

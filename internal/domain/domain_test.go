package domain

import (
	"errors"
	"testing"
	"time"
)

func TestCheckRequest_Validate(t *testing.T) {
	cases := []struct {
		name string
		req  CheckRequest
		want error
	}{
		{"ok", CheckRequest{Concurrency: 1, Timeout: time.Second}, nil},
		{"no targets is fine", CheckRequest{Targets: nil, Concurrency: 20, Timeout: 10 * time.Second}, nil},
		{"zero concurrency", CheckRequest{Concurrency: 0, Timeout: time.Second}, ErrInvalidConcurrency},
		{"negative concurrency", CheckRequest{Concurrency: -3, Timeout: time.Second}, ErrInvalidConcurrency},
		{"zero timeout", CheckRequest{Concurrency: 2, Timeout: 0}, ErrInvalidTimeout},
	}
	for _, c := range cases {
		err := c.req.Validate()
		if c.want == nil && err != nil {
			t.Fatalf("%s: unexpected error %v", c.name, err)
		}
		if c.want != nil && !errors.Is(err, c.want) {
			t.Fatalf("%s: want %v, got %v", c.name, c.want, err)
		}
	}
}

func TestProbeOutcome_Status(t *testing.T) {
	code := 404
	if got := (ProbeOutcome{StatusCode: &code}).Status(); got != 404 {
		t.Fatalf("want 404, got %d", got)
	}
	if got := (ProbeOutcome{}).Status(); got != 0 {
		t.Fatalf("want 0 for absent status, got %d", got)
	}
}

func TestRunStats_SuccessRate(t *testing.T) {
	if got := (RunStats{}).SuccessRate(); got != 0 {
		t.Fatalf("empty run: want 0, got %v", got)
	}
	s := RunStats{Total: 4, Succeeded: 1, Failed: 3}
	if got := s.SuccessRate(); got != 25 {
		t.Fatalf("want 25, got %v", got)
	}
}

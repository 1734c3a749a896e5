package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/hamed0406/urlcheck/internal/domain"
)

type fakeNotifier struct {
	err   error
	calls int
}

func (f *fakeNotifier) Send(ctx context.Context, title, text string) error {
	f.calls++
	return f.err
}

func TestMulti_SendsToAllAndCombinesErrors(t *testing.T) {
	a := &fakeNotifier{err: errors.New("a down")}
	b := &fakeNotifier{}
	c := &fakeNotifier{err: errors.New("c down")}

	err := Multi{a, nil, b, c}.Send(context.Background(), "t", "x")
	if a.calls != 1 || b.calls != 1 || c.calls != 1 {
		t.Fatalf("every notifier should be called once: %d %d %d", a.calls, b.calls, c.calls)
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Fatalf("want 2 combined errors, got %d: %v", n, err)
	}
}

func TestMulti_NoErrors(t *testing.T) {
	if err := (Multi{&fakeNotifier{}}).Send(context.Background(), "t", "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSummary(t *testing.T) {
	res := &domain.RunResult{
		RunID:       "run-9",
		TargetCount: 4,
		Partial:     true,
		Stats: domain.RunStats{
			Total: 2, Succeeded: 1, Failed: 1,
			AvgLatency: 20 * time.Millisecond, MinLatency: 10 * time.Millisecond, MaxLatency: 30 * time.Millisecond,
			TotalBytes: 2048,
		},
	}
	title, text := Summary(res, "report.json")
	if title != "urlcheck: 1/2 targets up (interrupted)" {
		t.Fatalf("title = %q", title)
	}
	for _, want := range []string{"run-9", "succeeded 1, failed 1 (50.0% success)", "avg 20 ms", "2.0 KiB", "only 2 of 4", "report report.json"} {
		if !strings.Contains(text, want) {
			t.Fatalf("summary missing %q:\n%s", want, text)
		}
	}
}

package probe

import (
	"context"
	"net/url"
	"time"

	"github.com/hamed0406/urlcheck/internal/domain"
)

// Prober performs exactly one network check of one target.
//
// Implementations never return errors: transport failures and timeouts are
// folded into the outcome. Index tagging and slot accounting belong to the
// dispatcher, so a Prober only fills in what it observed.
type Prober interface {
	Probe(ctx context.Context, target string, timeout time.Duration) domain.ProbeOutcome
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, target string, timeout time.Duration) domain.ProbeOutcome

func (f ProberFunc) Probe(ctx context.Context, target string, timeout time.Duration) domain.ProbeOutcome {
	return f(ctx, target, timeout)
}

// Diagnoser explains a transport failure by looking at the target host.
// An empty string means no diagnosis.
type Diagnoser interface {
	Diagnose(ctx context.Context, host string) string
}

// extractHost pulls the hostname from a URL string
func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}

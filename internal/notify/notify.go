package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/urlcheck/internal/domain"
	"github.com/hamed0406/urlcheck/internal/present"
)

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi sends to every notifier and returns all failures combined.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, title, text))
	}
	return err
}

// Summary formats a finished run for a chat message.
func Summary(res *domain.RunResult, reportPath string) (title, text string) {
	s := res.Stats
	title = fmt.Sprintf("urlcheck: %d/%d targets up", s.Succeeded, s.Total)
	if res.Partial {
		title += " (interrupted)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", res.RunID)
	fmt.Fprintf(&b, "succeeded %d, failed %d (%.1f%% success)\n", s.Succeeded, s.Failed, s.SuccessRate())
	if s.Total > 0 {
		fmt.Fprintf(&b, "latency avg %d ms, min %d ms, max %d ms\n",
			s.AvgLatency.Milliseconds(), s.MinLatency.Milliseconds(), s.MaxLatency.Milliseconds())
	}
	fmt.Fprintf(&b, "data %s\n", present.FormatSize(s.TotalBytes))
	if res.Partial {
		fmt.Fprintf(&b, "only %d of %d targets were checked\n", s.Total, res.TargetCount)
	}
	if reportPath != "" {
		fmt.Fprintf(&b, "report %s\n", reportPath)
	}
	return title, strings.TrimRight(b.String(), "\n")
}

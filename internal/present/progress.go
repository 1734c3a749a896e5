package present

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/hamed0406/urlcheck/internal/domain"
)

// Progress is a live progress bar fed with streamed outcomes. A nil
// *Progress is valid and does nothing.
type Progress struct {
	bar *progressbar.ProgressBar
}

func NewProgress(w io.Writer, total int) *Progress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("checking"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &Progress{bar: bar}
}

// Observe matches dispatch.Dispatcher.OnOutcome.
func (p *Progress) Observe(o domain.ProbeOutcome, done, total int) {
	if p == nil {
		return
	}
	_ = p.bar.Set(done)
}

func (p *Progress) Finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}

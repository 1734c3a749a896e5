package present

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/hamed0406/urlcheck/internal/domain"
)

const (
	ruleWidth = 100
	urlWidth  = 48
)

type palette struct {
	title, rule, bullet, value *color.Color
	ok, warn, bad, dim, bold   *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		title:  color.New(color.FgHiCyan, color.Bold),
		rule:   color.New(color.FgHiBlue, color.Bold),
		bullet: color.New(color.FgHiCyan),
		value:  color.New(color.FgHiWhite),
		ok:     color.New(color.FgGreen, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		bad:    color.New(color.FgRed, color.Bold),
		dim:    color.New(color.FgHiBlack),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.title, p.rule, p.bullet, p.value, p.ok, p.warn, p.bad, p.dim, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Presenter renders a run for a human at a terminal.
type Presenter struct {
	w io.Writer
	p palette
}

func New(w io.Writer, colored bool) *Presenter {
	return &Presenter{w: w, p: newPalette(colored)}
}

type Header struct {
	Input       string
	Output      string
	Format      string
	Targets     int
	Concurrency int
	Timeout     time.Duration
}

func (pr *Presenter) Header(h Header) {
	p := pr.p
	fmt.Fprintln(pr.w)
	fmt.Fprintln(pr.w, p.rule.Sprint(strings.Repeat("═", ruleWidth)))
	fmt.Fprintln(pr.w, p.title.Sprint("  URL CHECK"))
	fmt.Fprintln(pr.w, p.rule.Sprint(strings.Repeat("═", ruleWidth)))
	pr.item("Input file: ", h.Input)
	pr.item("Output file:", fmt.Sprintf("%s (%s)", h.Output, h.Format))
	pr.item("Targets:    ", strconv.Itoa(h.Targets))
	pr.item("Concurrency:", strconv.Itoa(h.Concurrency))
	pr.item("Timeout:    ", h.Timeout.String())
	fmt.Fprintln(pr.w, p.rule.Sprint(strings.Repeat("═", ruleWidth)))
	fmt.Fprintln(pr.w)
}

func (pr *Presenter) item(label, value string) {
	fmt.Fprintf(pr.w, "%s %s %s\n", pr.p.bullet.Sprint("•"), label, pr.p.value.Sprint(value))
}

// Label is the terminal classification of one outcome.
type Label struct {
	Icon  string
	Text  string
	Class Class
}

type Class int

const (
	ClassGood Class = iota
	ClassWarn
	ClassBad
)

// Classify maps an outcome to its table label: the status class when a
// status line was obtained, otherwise the failure kind.
func Classify(o domain.ProbeOutcome) Label {
	switch o.Kind {
	case domain.OutcomeTimeout:
		return Label{"✗", "TIMEOUT", ClassBad}
	case domain.OutcomeTransportError:
		return Label{"✗", "FAILED", ClassBad}
	}
	switch code := o.Status(); {
	case code >= 200 && code < 300:
		return Label{"✓", "OK", ClassGood}
	case code >= 300 && code < 400:
		return Label{"↻", "REDIRECT", ClassWarn}
	case code >= 400 && code < 500:
		return Label{"✗", "CLIENT ERROR", ClassBad}
	case code >= 500 && code < 600:
		return Label{"✗", "SERVER ERROR", ClassBad}
	default:
		return Label{"?", "UNKNOWN", ClassWarn}
	}
}

func (pr *Presenter) tint(c Class) *color.Color {
	switch c {
	case ClassGood:
		return pr.p.ok
	case ClassWarn:
		return pr.p.warn
	default:
		return pr.p.bad
	}
}

// Table prints one row per outcome, in the order given.
func (pr *Presenter) Table(outcomes []domain.ProbeOutcome) {
	p := pr.p
	fmt.Fprintln(pr.w, p.dim.Sprint(strings.Repeat("─", ruleWidth)))
	fmt.Fprintln(pr.w, p.bold.Sprintf("%-50s %-8s %-12s %-10s %s", "URL", "STATUS", "TIME (ms)", "SIZE", "RESULT"))
	fmt.Fprintln(pr.w, p.dim.Sprint(strings.Repeat("─", ruleWidth)))

	for _, o := range outcomes {
		l := Classify(o)
		c := pr.tint(l.Class)

		status := "ERROR"
		if o.StatusCode != nil {
			status = strconv.Itoa(*o.StatusCode)
		} else if o.Kind == domain.OutcomeTimeout {
			status = "TIMEOUT"
		}

		elapsed := p.value.Sprintf("%-12d", o.Elapsed.Milliseconds())
		size := p.value.Sprintf("%-10s", FormatSize(o.ResponseSize))
		if o.StatusCode == nil {
			size = p.dim.Sprintf("%-10s", "N/A")
		}

		fmt.Fprintf(pr.w, "%-50s %s %s %s %s %s\n",
			Truncate(o.URL, urlWidth),
			c.Sprintf("%-8s", status),
			elapsed,
			size,
			c.Sprint(l.Icon),
			c.Sprint(l.Text),
		)
		if o.StatusCode == nil && o.StatusReason != "" {
			reason := o.StatusReason
			if o.Diagnosis != "" {
				reason += " [dns: " + o.Diagnosis + "]"
			}
			fmt.Fprintf(pr.w, "  %s\n", p.dim.Sprint("↳ "+reason))
		}
	}
}

// Statistics prints the run summary block.
func (pr *Presenter) Statistics(res *domain.RunResult, reportPath string) {
	p := pr.p
	s := res.Stats
	rate := s.SuccessRate()
	failRate := 0.0
	if s.Total > 0 {
		failRate = 100 - rate
	}

	fmt.Fprintln(pr.w, p.dim.Sprint(strings.Repeat("─", ruleWidth)))
	fmt.Fprintln(pr.w)
	fmt.Fprintln(pr.w, p.title.Sprint("STATISTICS"))
	fmt.Fprintln(pr.w, p.dim.Sprint(strings.Repeat("─", ruleWidth)))

	pr.stat("Total URLs checked:   ", p.bold.Sprint(s.Total))
	pr.stat("Successful:           ", p.ok.Sprintf("%d (%.1f%%)", s.Succeeded, rate))
	pr.stat("Failed/Errors:        ", p.bad.Sprintf("%d (%.1f%%)", s.Failed, failRate))
	fmt.Fprintln(pr.w)

	if s.Total > 0 {
		pr.stat("Average response time:", p.value.Sprintf("%d ms", s.AvgLatency.Milliseconds()))
		pr.stat("Fastest response:     ", p.ok.Sprintf("%d ms", s.MinLatency.Milliseconds()))
		pr.stat("Slowest response:     ", p.bad.Sprintf("%d ms", s.MaxLatency.Milliseconds()))
	} else {
		pr.stat("Average response time:", p.dim.Sprint("N/A"))
		pr.stat("Fastest response:     ", p.dim.Sprint("N/A"))
		pr.stat("Slowest response:     ", p.dim.Sprint("N/A"))
	}
	pr.stat("Total data received:  ", p.value.Sprint(FormatSize(s.TotalBytes)))
	fmt.Fprintln(pr.w)

	if res.Partial {
		pr.stat("Interrupted:          ", p.warn.Sprintf("only %d of %d targets were checked", s.Total, res.TargetCount))
	}
	if reportPath != "" {
		pr.stat("Report saved to:      ", p.bold.Sprint(reportPath))
	}
	fmt.Fprintln(pr.w, p.dim.Sprint(strings.Repeat("─", ruleWidth)))
	fmt.Fprintln(pr.w)
}

func (pr *Presenter) stat(label, value string) {
	fmt.Fprintf(pr.w, "  %s %s %s\n", pr.p.bullet.Sprint("•"), label, value)
}

// FormatSize renders a byte count, or N/A for zero.
func FormatSize(n int64) string {
	if n <= 0 {
		return "N/A"
	}
	return humanize.IBytes(uint64(n))
}

// Truncate shortens s to at most max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

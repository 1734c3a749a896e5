package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/urlcheck/internal/domain"
)

// UserAgent is sent with every probe unless HTTPProber.UserAgent overrides it.
var UserAgent = "urlcheck/0.2"

const MaxRedirects = 10

var ErrTooManyRedirects = errors.New("too many redirects")

// dnsBudget bounds the diagnosis that follows a transport failure.
const dnsBudget = 3 * time.Second

// MaxBodySize caps how much of a response body is read. A larger body is
// not fully received and is recorded with size 0.
const MaxBodySize = 64 << 20

type HTTPProber struct {
	Client      *http.Client
	UserAgent   string
	Diagnoser   Diagnoser // optional
	MaxBodySize int64     // 0 means MaxBodySize
}

func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		Client: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:    100,
				IdleConnTimeout: 90 * time.Second,
				// No TLSHandshakeTimeout: the per-request context bounds the
				// handshake, so a stall is reported as a Timeout.
			},
			CheckRedirect: checkRedirect,
		},
		UserAgent:   UserAgent,
		MaxBodySize: MaxBodySize,
	}
}

func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= MaxRedirects {
		return ErrTooManyRedirects
	}
	return nil
}

// Probe issues one GET against target. The timeout covers the whole round
// trip including draining the body.
func (p *HTTPProber) Probe(ctx context.Context, target string, timeout time.Duration) domain.ProbeOutcome {
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := domain.ProbeOutcome{URL: target}
	start := time.Now()

	req, err := http.NewRequestWithContext(pctx, http.MethodGet, target, nil)
	if err != nil {
		return p.failed(ctx, pctx, out, err, time.Since(start), timeout)
	}
	ua := p.UserAgent
	if ua == "" {
		ua = UserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := p.Client.Do(req)
	if err != nil {
		return p.failed(ctx, pctx, out, err, time.Since(start), timeout)
	}
	defer resp.Body.Close()

	limit := p.MaxBodySize
	if limit <= 0 {
		limit = MaxBodySize
	}
	// A body that cannot be fully read still counts: the status line arrived.
	n, readErr := io.Copy(io.Discard, io.LimitReader(resp.Body, limit+1))
	out.Elapsed = time.Since(start)

	code := resp.StatusCode
	out.StatusCode = &code
	out.StatusReason = statusReason(resp)
	out.Kind = domain.OutcomeSuccess
	if readErr == nil && n <= limit {
		out.ResponseSize = n
	}
	out.Timestamp = time.Now().UTC()
	return out
}

func (p *HTTPProber) failed(parent, pctx context.Context, out domain.ProbeOutcome, err error, elapsed, timeout time.Duration) domain.ProbeOutcome {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(pctx.Err(), context.DeadlineExceeded) {
		out.Kind = domain.OutcomeTimeout
		out.StatusReason = "timeout"
		out.Elapsed = timeout
		out.Timestamp = time.Now().UTC()
		return out
	}

	out.Kind = domain.OutcomeTransportError
	out.StatusReason = errorText(err)
	out.Elapsed = elapsed
	if p.Diagnoser != nil {
		out.Diagnosis = p.diagnose(parent, out.URL)
	}
	out.Timestamp = time.Now().UTC()
	return out
}

func (p *HTTPProber) diagnose(ctx context.Context, target string) string {
	ctx, cancel := context.WithTimeout(ctx, dnsBudget)
	defer cancel()
	return p.Diagnoser.Diagnose(ctx, extractHost(target))
}

// statusReason returns the reason phrase of the status line, falling back to
// the canonical text for the code.
func statusReason(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}

// errorText drops the `Get "<url>":` prefix url.Error adds, since the URL is
// already part of the outcome.
func errorText(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err.Error()
	}
	return err.Error()
}

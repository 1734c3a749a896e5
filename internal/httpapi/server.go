package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/hamed0406/urlcheck/internal/dispatch"
	"github.com/hamed0406/urlcheck/internal/domain"
	"github.com/hamed0406/urlcheck/internal/httpapi/middleware"
	"github.com/hamed0406/urlcheck/internal/probe"
	"github.com/hamed0406/urlcheck/internal/report"
	"github.com/hamed0406/urlcheck/internal/stats"
)

const maxBodyBytes = 1 << 20

// Limits bound what a single API request may ask for.
type Limits struct {
	MaxTargets         int
	MaxConcurrency     int
	DefaultConcurrency int
	DefaultTimeout     time.Duration
	MaxTimeout         time.Duration
}

type Options struct {
	Limits         Limits
	Keys           middleware.Keys
	RateLimitRPM   int
	RateLimitBurst int
	AllowedOrigins []string
}

type Server struct {
	Logger  *zap.Logger
	Prober  probe.Prober
	Success stats.SuccessPredicate
	Opts    Options
}

func NewServer(l *zap.Logger, p probe.Prober, success stats.SuccessPredicate, opts Options) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	if opts.Limits.MaxTargets < 1 {
		opts.Limits.MaxTargets = 500
	}
	if opts.Limits.MaxConcurrency < 1 {
		opts.Limits.MaxConcurrency = 100
	}
	if opts.Limits.DefaultConcurrency < 1 {
		opts.Limits.DefaultConcurrency = 20
	}
	if opts.Limits.MaxTimeout <= 0 {
		opts.Limits.MaxTimeout = 60 * time.Second
	}
	if opts.Limits.DefaultTimeout <= 0 {
		opts.Limits.DefaultTimeout = 10 * time.Second
	}
	opts.Limits.DefaultTimeout = min(opts.Limits.DefaultTimeout, opts.Limits.MaxTimeout)
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{Logger: l, Prober: p, Success: success, Opts: opts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.Opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(s.Opts.RateLimitRPM, s.Opts.RateLimitBurst))
		r.Use(middleware.RequireAny(s.Opts.Keys))

		r.With(gziphandler.GzipHandler).Post("/checks", s.handleCheck)
		r.Post("/checks/stream", s.handleStream)
		r.With(middleware.RequireAdmin(s.Opts.Keys)).Get("/limits", s.handleLimits)
	})

	return r
}

type checkPayload struct {
	URLs        []string `json:"urls"`
	Concurrency int      `json:"concurrency"`
	TimeoutMS   int      `json:"timeout_ms"`
}

var (
	errNoURLs       = errors.New("urls must not be empty")
	errTooManyURLs  = errors.New("too many urls")
	errBadTimeout   = errors.New("timeout_ms must be positive")
	errLongTimeout  = errors.New("timeout_ms exceeds the server limit")
	errBadConcLimit = errors.New("concurrency must be positive")
)

// checkRequest turns a payload into an engine request, applying defaults
// and clamping concurrency to the server ceiling.
func (s *Server) checkRequest(p checkPayload) (domain.CheckRequest, error) {
	lim := s.Opts.Limits

	urls := make([]string, 0, len(p.URLs))
	for _, u := range p.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	switch {
	case len(urls) == 0:
		return domain.CheckRequest{}, errNoURLs
	case len(urls) > lim.MaxTargets:
		return domain.CheckRequest{}, errTooManyURLs
	case p.TimeoutMS < 0:
		return domain.CheckRequest{}, errBadTimeout
	case int64(p.TimeoutMS) > lim.MaxTimeout.Milliseconds():
		return domain.CheckRequest{}, errLongTimeout
	case p.Concurrency < 0:
		return domain.CheckRequest{}, errBadConcLimit
	}

	req := domain.CheckRequest{
		Targets:     urls,
		Concurrency: p.Concurrency,
		Timeout:     time.Duration(p.TimeoutMS) * time.Millisecond,
	}
	if req.Concurrency == 0 {
		req.Concurrency = lim.DefaultConcurrency
	}
	req.Concurrency = min(req.Concurrency, lim.MaxConcurrency)
	if req.Timeout == 0 {
		req.Timeout = lim.DefaultTimeout
	}
	return req, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (domain.CheckRequest, bool) {
	var p checkPayload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return domain.CheckRequest{}, false
	}
	req, err := s.checkRequest(p)
	if err != nil {
		s.Logger.Debug("check_rejected", zap.Error(err), zap.Int("urls", len(p.URLs)))
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.CheckRequest{}, false
	}
	return req, true
}

func (s *Server) dispatcher() *dispatch.Dispatcher {
	d := dispatch.New(s.Logger, s.Prober)
	d.Success = s.Success
	return d
}

// handleCheck runs the whole request and answers with the JSON report.
// A client that goes away cancels the run.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	res, err := s.dispatcher().Run(r.Context(), req)
	if err != nil && res == nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.Logger.Error("check_failed", zap.String("run_id", res.RunID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "check failed")
		return
	}

	writeJSON(w, http.StatusOK, report.NewDocument(res, report.Options{Success: s.Success}))
}

type streamLine struct {
	Type     string           `json:"type"`
	Outcome  *report.Row      `json:"outcome,omitempty"`
	Metadata *report.Metadata `json:"metadata,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// handleStream writes one NDJSON line per outcome as probes complete, then a
// summary line.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)
	emit := func(line streamLine) {
		if err := enc.Encode(line); err != nil {
			return
		}
		_ = rc.Flush()
	}

	d := s.dispatcher()
	d.OnOutcome = func(o domain.ProbeOutcome, done, total int) {
		row := report.NewRow(o, s.Success)
		emit(streamLine{Type: "outcome", Outcome: &row})
	}

	res, err := d.Run(r.Context(), req)
	if res == nil {
		emit(streamLine{Type: "error", Error: err.Error()})
		return
	}
	md := report.NewMetadata(res, time.Now())
	line := streamLine{Type: "summary", Metadata: &md}
	if err != nil {
		line.Error = err.Error()
	}
	emit(line)
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	lim := s.Opts.Limits
	writeJSON(w, http.StatusOK, map[string]any{
		"max_targets":         lim.MaxTargets,
		"max_concurrency":     lim.MaxConcurrency,
		"default_concurrency": lim.DefaultConcurrency,
		"default_timeout_ms":  lim.DefaultTimeout.Milliseconds(),
		"max_timeout_ms":      lim.MaxTimeout.Milliseconds(),
		"rate_limit_rpm":      s.Opts.RateLimitRPM,
		"rate_limit_burst":    s.Opts.RateLimitBurst,
		"auth_enabled":        s.Opts.Keys.Enabled(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hamed0406/urlcheck/internal/domain"
	"github.com/hamed0406/urlcheck/internal/stats"
)

// TimeFormat is ISO-8601 in UTC with millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Exporter writes a finished (or partial) run in one file format.
type Exporter interface {
	Export(w io.Writer, res *domain.RunResult) error
}

type Options struct {
	Success stats.SuccessPredicate // decides the outcome column; nil means stats.DefaultSuccess
	Now     func() time.Time       // generated_at clock; nil means time.Now
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

var Formats = []string{"csv", "json", "xlsx"}

func ForFormat(format string, opts Options) (Exporter, error) {
	switch strings.ToLower(format) {
	case "csv":
		return CSVExporter{Options: opts}, nil
	case "json":
		return JSONExporter{Options: opts}, nil
	case "xlsx":
		return XLSXExporter{Options: opts}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// WriteFile exports res to path. The file is replaced atomically so an
// interrupted write never leaves a truncated report behind.
func WriteFile(path, format string, res *domain.RunResult, opts Options) error {
	exp, err := ForFormat(format, opts)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := exp.Export(tmp, res); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s report: %w", format, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// Row is one persisted outcome.
type Row struct {
	URL          string  `json:"url"`
	StatusCode   *int    `json:"status_code"`
	StatusReason string  `json:"status_reason"`
	ElapsedMS    float64 `json:"elapsed_ms"`
	ResponseSize int64   `json:"response_size"`
	Timestamp    string  `json:"timestamp"`
	Outcome      string  `json:"outcome"`
	Diagnosis    string  `json:"diagnosis,omitempty"`
}

// Metadata summarizes a run for report headers.
type Metadata struct {
	RunID          string  `json:"run_id"`
	TotalURLs      int     `json:"total_urls"`
	Successful     int     `json:"successful"`
	Failed         int     `json:"failed"`
	SuccessRate    float64 `json:"success_rate"`
	AvgTimeMS      float64 `json:"avg_time_ms"`
	MinTimeMS      float64 `json:"min_time_ms"`
	MaxTimeMS      float64 `json:"max_time_ms"`
	TotalSizeBytes int64   `json:"total_size_bytes"`
	Partial        bool    `json:"partial"`
	TargetCount    int     `json:"target_count"`
	Concurrency    int     `json:"concurrency"`
	TimeoutMS      float64 `json:"timeout_ms"`
	GeneratedAt    string  `json:"generated_at"`
}

type Document struct {
	Metadata Metadata `json:"metadata"`
	Results  []Row    `json:"results"`
}

func Millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func NewRow(o domain.ProbeOutcome, ok stats.SuccessPredicate) Row {
	r := Row{
		URL:          o.URL,
		StatusReason: o.StatusReason,
		ElapsedMS:    Millis(o.Elapsed),
		ResponseSize: o.ResponseSize,
		Timestamp:    o.Timestamp.UTC().Format(TimeFormat),
		Outcome:      string(stats.Classify(o, ok)),
		Diagnosis:    o.Diagnosis,
	}
	if o.StatusCode != nil {
		code := *o.StatusCode
		r.StatusCode = &code
	}
	return r
}

func Rows(res *domain.RunResult, ok stats.SuccessPredicate) []Row {
	rows := make([]Row, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		rows = append(rows, NewRow(o, ok))
	}
	return rows
}

func NewMetadata(res *domain.RunResult, generatedAt time.Time) Metadata {
	s := res.Stats
	return Metadata{
		RunID:          res.RunID,
		TotalURLs:      s.Total,
		Successful:     s.Succeeded,
		Failed:         s.Failed,
		SuccessRate:    s.SuccessRate(),
		AvgTimeMS:      Millis(s.AvgLatency),
		MinTimeMS:      Millis(s.MinLatency),
		MaxTimeMS:      Millis(s.MaxLatency),
		TotalSizeBytes: s.TotalBytes,
		Partial:        res.Partial,
		TargetCount:    res.TargetCount,
		Concurrency:    res.Concurrency,
		TimeoutMS:      Millis(res.Timeout),
		GeneratedAt:    generatedAt.UTC().Format(TimeFormat),
	}
}

func NewDocument(res *domain.RunResult, opts Options) Document {
	return Document{
		Metadata: NewMetadata(res, opts.now()),
		Results:  Rows(res, opts.Success),
	}
}

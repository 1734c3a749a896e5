package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/hamed0406/urlcheck/internal/collector"
	"github.com/hamed0406/urlcheck/internal/domain"
	"github.com/hamed0406/urlcheck/internal/probe"
	"github.com/hamed0406/urlcheck/internal/stats"
)

// Dispatcher runs a target list through a Prober with at most
// CheckRequest.Concurrency probes in flight.
type Dispatcher struct {
	Logger  *zap.Logger
	Prober  probe.Prober
	Success stats.SuccessPredicate // nil means stats.DefaultSuccess

	// OnOutcome receives every outcome right after it is recorded, with the
	// number of outcomes emitted so far. Calls are serialized, and the probe
	// slot is held until the call returns.
	OnOutcome func(o domain.ProbeOutcome, done, total int)
}

func New(logger *zap.Logger, prober probe.Prober) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{Logger: logger, Prober: prober}
}

// Run probes every target once. Targets are started in list order; each
// outcome is tagged with its list index before it is recorded.
//
// Cancelling ctx stops admission of new targets. Probes already started run
// to their own timeout and are recorded; un-started targets are absent from
// the result, which is then marked Partial. A non-nil error is returned for
// an invalid request (with a nil result) or when the outcome table rejects a
// write (with the partial result).
func (d *Dispatcher) Run(ctx context.Context, req domain.CheckRequest) (*domain.RunResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	res := &domain.RunResult{
		RunID:       uuid.NewString(),
		StartedAt:   time.Now().UTC(),
		Concurrency: req.Concurrency,
		Timeout:     req.Timeout,
		TargetCount: len(req.Targets),
	}
	log := d.Logger.With(zap.String("run_id", res.RunID))
	log.Info("run_started",
		zap.Int("targets", len(req.Targets)),
		zap.Int("concurrency", req.Concurrency),
		zap.Duration("timeout", req.Timeout),
	)

	table := collector.New(len(req.Targets))
	sem := semaphore.NewWeighted(int64(req.Concurrency))

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	// In-flight probes are not aborted by run cancellation; they keep their
	// own timeout.
	probeCtx := context.WithoutCancel(ctx)

	var (
		wg       sync.WaitGroup
		emitMu   sync.Mutex
		emitted  int
		failOnce sync.Once
		runErr   error
	)

	started := 0
	for i, target := range req.Targets {
		if err := sem.Acquire(runCtx, 1); err != nil {
			break
		}
		if runCtx.Err() != nil {
			sem.Release(1)
			break
		}
		started++

		wg.Add(1)
		go func(i int, target string) {
			defer wg.Done()
			defer sem.Release(1)

			out := d.Prober.Probe(probeCtx, target, req.Timeout)
			out.Index = i
			out.URL = target

			if err := table.Record(out); err != nil {
				failOnce.Do(func() {
					runErr = err
					cancelRun()
				})
				log.Error("record_failed", zap.Int("index", i), zap.String("url", target), zap.Error(err))
				return
			}

			log.Debug("probe_done",
				zap.Int("index", i),
				zap.String("url", target),
				zap.String("kind", string(out.Kind)),
				zap.Int("status", out.Status()),
				zap.Duration("elapsed", out.Elapsed),
				zap.Int64("bytes", out.ResponseSize),
				zap.String("reason", out.StatusReason),
			)

			emitMu.Lock()
			emitted++
			if d.OnOutcome != nil {
				d.OnOutcome(out, emitted, len(req.Targets))
			}
			emitMu.Unlock()
		}(i, target)
	}

	wg.Wait()

	res.Outcomes = table.Snapshot()
	res.Stats = stats.Compute(res.Outcomes, d.Success)
	res.Partial = started < len(req.Targets)
	res.FinishedAt = time.Now().UTC()

	if res.Partial {
		log.Warn("run_cancelled",
			zap.Int("started", started),
			zap.Int("recorded", len(res.Outcomes)),
			zap.Int("targets", len(req.Targets)),
		)
	}
	log.Info("run_finished",
		zap.Int("total", res.Stats.Total),
		zap.Int("succeeded", res.Stats.Succeeded),
		zap.Int("failed", res.Stats.Failed),
		zap.Duration("avg_latency", res.Stats.AvgLatency),
		zap.Int64("total_bytes", res.Stats.TotalBytes),
		zap.Bool("partial", res.Partial),
		zap.Duration("took", res.FinishedAt.Sub(res.StartedAt)),
	)
	return res, runErr
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/urlcheck/internal/config"
	"github.com/hamed0406/urlcheck/internal/httpapi"
	"github.com/hamed0406/urlcheck/internal/httpapi/middleware"
	"github.com/hamed0406/urlcheck/internal/logging"
	"github.com/hamed0406/urlcheck/internal/probe"
	"github.com/hamed0406/urlcheck/internal/stats"
)

func main() {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	config.RegisterAPIFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(os.Stderr, "error:", e)
		}
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	p := probe.NewHTTPProber()
	p.UserAgent = cfg.UserAgent
	if cfg.DNSDiagnose {
		p.Diagnoser = probe.NewDNSDiagnoser(cfg.DNSServer, 2*time.Second)
	}

	api := httpapi.NewServer(logger, p, stats.StatusBelow(cfg.SuccessBelow), httpapi.Options{
		Limits: httpapi.Limits{
			MaxTargets:         cfg.MaxTargets,
			MaxConcurrency:     cfg.MaxConcurrency,
			DefaultConcurrency: cfg.Concurrency,
			DefaultTimeout:     cfg.Timeout,
			MaxTimeout:         cfg.MaxTimeout,
		},
		Keys:           middleware.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys},
		RateLimitRPM:   cfg.RateLimitRPM,
		RateLimitBurst: cfg.RateLimitBurst,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api_listen",
		zap.String("addr", cfg.Addr),
		zap.Bool("auth", len(cfg.PublicAPIKeys)+len(cfg.AdminAPIKeys) > 0),
		zap.Int("max_targets", cfg.MaxTargets),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("api_stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("api_shutdown")
}

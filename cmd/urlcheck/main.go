package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/urlcheck/internal/config"
	"github.com/hamed0406/urlcheck/internal/dispatch"
	"github.com/hamed0406/urlcheck/internal/domain"
	"github.com/hamed0406/urlcheck/internal/logging"
	"github.com/hamed0406/urlcheck/internal/notify"
	"github.com/hamed0406/urlcheck/internal/present"
	"github.com/hamed0406/urlcheck/internal/probe"
	"github.com/hamed0406/urlcheck/internal/report"
	"github.com/hamed0406/urlcheck/internal/stats"
	"github.com/hamed0406/urlcheck/internal/targets"
)

const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitInterrupted = 130
)

const notifyTimeout = 15 * time.Second

type Command struct {
	OutStream io.Writer
	ErrStream io.Writer

	// Interactive enables colors and the progress bar.
	Interactive bool

	// Prober overrides the HTTP prober built from the configuration.
	Prober probe.Prober
}

func (cmd *Command) usage(fs *pflag.FlagSet) {
	fmt.Fprintf(cmd.ErrStream, "Usage: %s [flags]\n\n", fs.Name())
	fmt.Fprintln(cmd.ErrStream, "Checks every URL of the input file once and writes a report.")
	fmt.Fprintf(cmd.ErrStream, "Every flag can also be set as %s_<NAME> in the environment.\n\n", config.EnvPrefix)
	fs.PrintDefaults()
}

func (cmd *Command) Run(ctx context.Context, args []string) (exitCode int) {
	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.SetOutput(cmd.ErrStream)
	config.RegisterFlags(fs)
	showVersion := fs.BoolP("version", "v", false, "show version")
	showHelp := fs.BoolP("help", "h", false, "show help")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(cmd.ErrStream, err)
		fmt.Fprintf(cmd.ErrStream, "\nPlease see `%s -h` for more information.\n", args[0])
		return exitUsage
	}
	switch {
	case *showHelp:
		cmd.usage(fs)
		return exitOK
	case *showVersion:
		fmt.Fprintf(cmd.OutStream, "urlcheck version %s\n", config.Version)
		return exitOK
	case fs.NArg() > 0:
		fmt.Fprintf(cmd.ErrStream, "unexpected argument: %s\n", fs.Arg(0))
		fmt.Fprintf(cmd.ErrStream, "\nPlease see `%s -h` for more information.\n", args[0])
		return exitUsage
	}

	cfg, err := config.Load(fs)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintf(cmd.ErrStream, "error: %s\n", e)
		}
		return exitError
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: failed to open log: %s\n", err)
		return exitError
	}
	defer logger.Sync()

	urls, err := targets.Load(cfg.Input)
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
		return exitError
	}
	if len(urls) == 0 {
		logger.Info("no_targets", zap.String("input", cfg.Input))
		fmt.Fprintf(cmd.ErrStream, "%s is empty or contains no URLs, nothing to check\n", cfg.Input)
		return exitOK
	}

	pr := present.New(cmd.OutStream, cmd.Interactive && !cfg.NoColor)
	if !cfg.Quiet {
		pr.Header(present.Header{
			Input:       cfg.Input,
			Output:      cfg.Output,
			Format:      cfg.Format,
			Targets:     len(urls),
			Concurrency: cfg.Concurrency,
			Timeout:     cfg.Timeout,
		})
	}

	success := stats.StatusBelow(cfg.SuccessBelow)
	d := dispatch.New(logger, cmd.prober(cfg))
	d.Success = success

	var progress *present.Progress
	if cmd.Interactive && !cfg.Quiet {
		progress = present.NewProgress(cmd.ErrStream, len(urls))
		d.OnOutcome = progress.Observe
	}

	res, runErr := d.Run(ctx, domain.CheckRequest{
		Targets:     urls,
		Concurrency: cfg.Concurrency,
		Timeout:     cfg.Timeout,
	})
	progress.Finish()
	if res == nil {
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", runErr)
		return exitError
	}

	if !cfg.Quiet {
		pr.Table(res.Outcomes)
	}

	if err := report.WriteFile(cfg.Output, cfg.Format, res, report.Options{Success: success}); err != nil {
		logger.Error("report_failed", zap.String("path", cfg.Output), zap.Error(err))
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
		return exitError
	}
	logger.Info("report_written",
		zap.String("run_id", res.RunID),
		zap.String("path", cfg.Output),
		zap.String("format", cfg.Format),
		zap.Int("rows", len(res.Outcomes)),
	)

	pr.Statistics(res, cfg.Output)

	if cfg.SlackWebhook != "" {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		title, text := notify.Summary(res, cfg.Output)
		if err := (notify.Multi{notify.NewSlack(cfg.SlackWebhook)}).Send(nctx, title, text); err != nil {
			logger.Warn("notify_failed", zap.String("run_id", res.RunID), zap.Error(err))
		}
		cancel()
	}

	switch {
	case runErr != nil:
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", runErr)
		return exitError
	case res.Partial:
		return exitInterrupted
	default:
		return exitOK
	}
}

func (cmd *Command) prober(cfg config.Config) probe.Prober {
	if cmd.Prober != nil {
		return cmd.Prober
	}
	p := probe.NewHTTPProber()
	p.UserAgent = cfg.UserAgent
	if cfg.DNSDiagnose {
		p.Diagnoser = probe.NewDNSDiagnoser(cfg.DNSServer, 2*time.Second)
	}
	return p
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	fd := os.Stdout.Fd()
	cmd := &Command{
		OutStream:   os.Stdout,
		ErrStream:   os.Stderr,
		Interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
	code := cmd.Run(ctx, os.Args)
	stop()
	os.Exit(code)
}

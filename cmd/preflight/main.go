// cmd/preflight/main.go
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/hamed0406/urlcheck/internal/config"
	"github.com/hamed0406/urlcheck/internal/targets"
)

// preflight validates the configuration and target list without probing.
func preflight(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	failed := false
	fail := func(msg string) {
		fmt.Fprintln(stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	cfg, err := config.Load(fs)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fail(e.Error())
		}
	} else {
		ok(fmt.Sprintf("config: concurrency=%d timeout=%s format=%s", cfg.Concurrency, cfg.Timeout, cfg.Format))
	}

	urls, err := targets.Load(cfg.Input)
	switch {
	case err != nil:
		fail(err.Error())
	case len(urls) == 0:
		fail(cfg.Input + " contains no URLs")
	default:
		bad := 0
		for _, u := range urls {
			if err := targets.CheckURL(u); err != nil {
				warn(fmt.Sprintf("%s: %s", u, err))
				bad++
			}
		}
		for _, d := range targets.Duplicates(urls) {
			warn("listed more than once: " + d)
		}
		ok(fmt.Sprintf("%s: %d URL(s), %d look unusable", cfg.Input, len(urls), bad))
	}

	if cfg.DNSDiagnose && cfg.DNSServer == "" {
		warn("dns_diagnose uses the system resolver; set dns_server to pin one")
	}
	if cfg.SlackWebhook == "" {
		warn("slack_webhook empty; no run summary will be sent")
	} else {
		ok("slack_webhook present")
	}

	if failed {
		return 1
	}
	ok("preflight passed")
	return 0
}

func main() {
	os.Exit(preflight(os.Args, os.Stdout, os.Stderr))
}

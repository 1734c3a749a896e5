package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const Version = "0.2"

// EnvPrefix prefixes every environment override, e.g. URLCHECK_CONCURRENCY.
const EnvPrefix = "URLCHECK"

type Config struct {
	Input        string        `mapstructure:"input"`
	Output       string        `mapstructure:"output"`
	Format       string        `mapstructure:"format"`
	Concurrency  int           `mapstructure:"concurrency"`
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	SuccessBelow int           `mapstructure:"success_below"` // status codes below this count as succeeded
	DNSDiagnose  bool          `mapstructure:"dns_diagnose"`
	DNSServer    string        `mapstructure:"dns_server"` // empty: system resolver
	SlackWebhook string        `mapstructure:"slack_webhook"`
	LogDir       string        `mapstructure:"log_dir"` // "-" logs to stderr
	LogLevel     string        `mapstructure:"log_level"`
	NoColor      bool          `mapstructure:"no_color"`
	Quiet        bool          `mapstructure:"quiet"`

	// API server
	Addr           string        `mapstructure:"addr"`
	PublicAPIKeys  []string      `mapstructure:"public_api_keys"`
	AdminAPIKeys   []string      `mapstructure:"admin_api_keys"`
	RateLimitRPM   int           `mapstructure:"rate_limit_rpm"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	MaxTargets     int           `mapstructure:"max_targets"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	MaxTimeout     time.Duration `mapstructure:"max_timeout"` // ceiling on timeout_ms in API requests
}

var defaults = map[string]any{
	"input":         "urls.txt",
	"output":        "report.csv",
	"format":        "csv",
	"concurrency":   20,
	"timeout":       10 * time.Second,
	"user_agent":    "urlcheck/" + Version,
	"success_below": 400,
	"dns_diagnose":  false,
	"dns_server":    "",
	"slack_webhook": "",
	"log_dir":       "logs",
	"log_level":     "info",
	"no_color":      false,
	"quiet":         false,

	"addr":             "127.0.0.1:8080",
	"public_api_keys":  []string{},
	"admin_api_keys":   []string{},
	"rate_limit_rpm":   120,
	"rate_limit_burst": 60,
	"allowed_origins":  []string{"*"},
	"max_targets":      500,
	"max_concurrency":  100,
	"max_timeout":      60 * time.Second,
}

var (
	formats   = []string{"csv", "json", "xlsx"}
	logLevels = []string{"debug", "info", "warn", "error"}
)

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(err)
	}
	return cfg
}

// RegisterFlags adds the run flags shared by the CLI and preflight.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (yaml, toml or json)")
	fs.StringP("input", "i", defaults["input"].(string), "file with one URL per line")
	fs.StringP("output", "o", defaults["output"].(string), "report file")
	fs.StringP("format", "f", defaults["format"].(string), "report format: "+strings.Join(formats, "|"))
	fs.IntP("concurrency", "c", defaults["concurrency"].(int), "max simultaneous requests")
	fs.DurationP("timeout", "t", defaults["timeout"].(time.Duration), "per-request timeout")
	fs.String("user-agent", defaults["user_agent"].(string), "User-Agent header")
	fs.Int("success-below", defaults["success_below"].(int), "status codes below this count as succeeded")
	fs.Bool("dns-diagnose", false, "resolve the host of failed targets and report the DNS class")
	fs.String("dns-server", "", "resolver for --dns-diagnose, host[:port] (default: system resolver)")
	fs.String("slack-webhook", "", "Slack incoming webhook for the run summary")
	fs.String("log-dir", defaults["log_dir"].(string), `log directory, "-" for stderr`)
	fs.String("log-level", defaults["log_level"].(string), "log level: "+strings.Join(logLevels, "|"))
	fs.Bool("no-color", false, "disable colored output")
	fs.BoolP("quiet", "q", false, "print only the statistics")
}

// RegisterAPIFlags adds the flags of the HTTP API server.
func RegisterAPIFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (yaml, toml or json)")
	fs.String("addr", defaults["addr"].(string), "listen address")
	fs.Duration("timeout", defaults["timeout"].(time.Duration), "default per-request timeout")
	fs.Int("concurrency", defaults["concurrency"].(int), "default max simultaneous requests")
	fs.StringSlice("public-api-keys", nil, "API keys allowed to run checks")
	fs.StringSlice("admin-api-keys", nil, "API keys with admin access")
	fs.Int("rate-limit-rpm", defaults["rate_limit_rpm"].(int), "requests per minute per client")
	fs.Int("rate-limit-burst", defaults["rate_limit_burst"].(int), "rate limit burst")
	fs.StringSlice("allowed-origins", []string{"*"}, "CORS allowed origins")
	fs.Int("max-targets", defaults["max_targets"].(int), "max URLs per request")
	fs.Int("max-concurrency", defaults["max_concurrency"].(int), "concurrency ceiling per request")
	fs.Duration("max-timeout", defaults["max_timeout"].(time.Duration), "per-request timeout ceiling")
	fs.Int("success-below", defaults["success_below"].(int), "status codes below this count as succeeded")
	fs.String("user-agent", defaults["user_agent"].(string), "User-Agent header")
	fs.Bool("dns-diagnose", false, "resolve the host of failed targets and report the DNS class")
	fs.String("dns-server", "", "resolver for --dns-diagnose")
	fs.String("log-dir", defaults["log_dir"].(string), `log directory, "-" for stderr`)
	fs.String("log-level", defaults["log_level"].(string), "log level")
}

// Load resolves the configuration from, in order of precedence, changed
// flags, URLCHECK_* environment variables, the --config file and defaults.
// fs may be nil.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := newViper()

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if f.Name == "config" {
				return
			}
			bindErr = multierr.Append(bindErr, v.BindPFlag(key(f.Name), f))
		})
		if bindErr != nil {
			return Config{}, bindErr
		}

		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
		}
	}
	if path := v.GetString("config"); path != "" && v.ConfigFileUsed() == "" {
		v.SetConfigFile(path)
	}
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("config")
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.PublicAPIKeys = cleanList(cfg.PublicAPIKeys)
	cfg.AdminAPIKeys = cleanList(cfg.AdminAPIKeys)
	cfg.AllowedOrigins = cleanList(cfg.AllowedOrigins)
	return cfg, nil
}

func key(flagName string) string {
	return strings.ReplaceAll(flagName, "-", "_")
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

var ErrInvalid = errors.New("invalid configuration")

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var err error
	add := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if strings.TrimSpace(c.Input) == "" {
		add("input must not be empty")
	}
	if strings.TrimSpace(c.Output) == "" {
		add("output must not be empty")
	}
	if !slices.Contains(formats, c.Format) {
		add("format %q, want one of %s", c.Format, strings.Join(formats, ", "))
	}
	if c.Concurrency < 1 {
		add("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Timeout <= 0 {
		add("timeout must be positive, got %s", c.Timeout)
	}
	if c.SuccessBelow < 100 || c.SuccessBelow > 600 {
		add("success_below must be within [100, 600], got %d", c.SuccessBelow)
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		add("log_level %q, want one of %s", c.LogLevel, strings.Join(logLevels, ", "))
	}
	if c.MaxTargets < 1 {
		add("max_targets must be at least 1, got %d", c.MaxTargets)
	}
	if c.MaxConcurrency < 1 {
		add("max_concurrency must be at least 1, got %d", c.MaxConcurrency)
	}
	if c.MaxTimeout <= 0 {
		add("max_timeout must be positive, got %s", c.MaxTimeout)
	}
	if c.RateLimitRPM < 0 || c.RateLimitBurst < 0 {
		add("rate limits must not be negative")
	}
	return err
}

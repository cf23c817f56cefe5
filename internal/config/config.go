package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "DNSFIFO"

type Config struct {
	Capacity  int
	Workers   int
	MinDelay  time.Duration
	MaxDelay  time.Duration
	Seed      int64
	RedisAddr string
	RedisKey  string
	HTTPAddr  string
	LogLevel  string
	Quiet     bool
}

func Default() Config {
	return Config{
		Capacity: 2048,
		Workers:  3000,
		MinDelay: 50 * time.Millisecond,
		MaxDelay: 100 * time.Millisecond,
		RedisKey: "dnsfifo:stress",
		LogLevel: "info",
	}
}

// RegisterFlags adds one flag per config key, defaulting to Default().
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Int("capacity", d.Capacity, "maximum number of cached names")
	fs.Int("workers", d.Workers, "number of concurrent workers")
	fs.Duration("min-delay", d.MinDelay, "minimum delay before each cache call")
	fs.Duration("max-delay", d.MaxDelay, "maximum delay before each cache call")
	fs.Int64("seed", d.Seed, "random seed (0 seeds from the clock)")
	fs.String("redis-addr", d.RedisAddr, "redis address for outcome reports (empty disables)")
	fs.String("redis-key", d.RedisKey, "redis key prefix for outcome reports")
	fs.String("http-addr", d.HTTPAddr, "listen address for /stats and /metrics (empty disables)")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.Bool("quiet", d.Quiet, "do not print per-worker outcomes")
}

// Load resolves the config from flags, then DNSFIFO_* environment
// variables, then defaults.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	cfg := Config{
		Capacity:  v.GetInt("capacity"),
		Workers:   v.GetInt("workers"),
		MinDelay:  v.GetDuration("min-delay"),
		MaxDelay:  v.GetDuration("max-delay"),
		Seed:      v.GetInt64("seed"),
		RedisAddr: v.GetString("redis-addr"),
		RedisKey:  v.GetString("redis-key"),
		HTTPAddr:  v.GetString("http-addr"),
		LogLevel:  v.GetString("log-level"),
		Quiet:     v.GetBool("quiet"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []string
	if c.Capacity < 1 {
		errs = append(errs, fmt.Sprintf("capacity must be positive, got %d", c.Capacity))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Sprintf("workers must be positive, got %d", c.Workers))
	}
	if c.MinDelay < 0 || c.MaxDelay < 0 {
		errs = append(errs, "delays must not be negative")
	}
	if c.MinDelay > c.MaxDelay {
		errs = append(errs, fmt.Sprintf("min-delay %s exceeds max-delay %s", c.MinDelay, c.MaxDelay))
	}
	if c.RedisAddr != "" && c.RedisKey == "" {
		errs = append(errs, "redis-key must be set when redis-addr is")
	}
	if len(errs) > 0 {
		return errors.New("invalid config: " + strings.Join(errs, "; "))
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Config holds every tunable of the API process.
type Config struct {
	HTTPAddr        string
	DatabaseURL     string
	RedisURL        string
	RedisKeyPrefix  string
	ShutdownTimeout time.Duration

	// Relationship lease guarding the resolved block sets.
	LeaseName        string
	LeaseTTL         time.Duration
	LeaseAttempts    uint64
	LeaseMaxElapsed  time.Duration
	LeaseInitialWait time.Duration

	DefaultPageLimit int
	MaxPageLimit     int

	QueueConcurrency int
	QueueWeights     string

	OTLPEndpoint string
	Environment  string
	LogLevel     string
	LogFormat    string
}

// Defaults returns a Config with every optional field populated.
func Defaults() Config {
	return Config{
		HTTPAddr:         ":8080",
		RedisKeyPrefix:   "",
		ShutdownTimeout:  10 * time.Second,
		LeaseName:        "lock:rblocks",
		LeaseTTL:         time.Second,
		LeaseAttempts:    10,
		LeaseMaxElapsed:  3 * time.Second,
		LeaseInitialWait: 25 * time.Millisecond,
		DefaultPageLimit: 50,
		MaxPageLimit:     200,
		QueueConcurrency: 10,
		QueueWeights:     "relation=3,chat=2,default=1",
		Environment:      "development",
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Validate reports every problem found in c.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("database url is required"))
	}
	if strings.TrimSpace(c.RedisURL) == "" {
		errs = append(errs, errors.New("redis url is required"))
	}
	if c.LeaseName == "" {
		errs = append(errs, errors.New("lease name is required"))
	}
	if c.LeaseTTL <= 0 {
		errs = append(errs, fmt.Errorf("lease ttl must be positive, got %s", c.LeaseTTL))
	}
	if c.LeaseAttempts == 0 {
		errs = append(errs, errors.New("lease attempts must be at least 1"))
	}
	if c.MaxPageLimit < 1 {
		errs = append(errs, fmt.Errorf("max page limit must be at least 1, got %d", c.MaxPageLimit))
	}
	if c.DefaultPageLimit < 1 || c.DefaultPageLimit > c.MaxPageLimit {
		errs = append(errs, fmt.Errorf("default page limit must be within [1, %d], got %d", c.MaxPageLimit, c.DefaultPageLimit))
	}
	if c.QueueConcurrency < 1 {
		errs = append(errs, fmt.Errorf("queue concurrency must be at least 1, got %d", c.QueueConcurrency))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// ParseLogLevel maps a level name onto slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

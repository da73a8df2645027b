package procflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/procflow/model/graph"
	"github.com/viant/procflow/service/meta"
)

// Store kinds
const (
	StoreMemory = "memory"
	StoreFs     = "fs"
	StoreRedis  = "redis"
)

// Config is a serialisable representation of the engine configuration. It can
// be populated from YAML or JSON on any afs location; ${env.KEY} expressions
// are expanded before decoding. Durations use time.ParseDuration syntax.
type Config struct {
	Processor ProcessorConfig `json:"processor" yaml:"processor"`
	Executor  ExecutorConfig  `json:"executor" yaml:"executor"`
	Approval  ApprovalConfig  `json:"approval" yaml:"approval"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Events    EventsConfig    `json:"events" yaml:"events"`
	Log       LogConfig       `json:"log" yaml:"log"`
	Tracing   TracingConfig   `json:"tracing" yaml:"tracing"`
}

type ProcessorConfig struct {
	WorkerCount  int    `json:"workers" yaml:"workers"`
	QueueBuffer  int    `json:"queueBuffer,omitempty" yaml:"queueBuffer,omitempty"`
	PollInterval string `json:"pollInterval,omitempty" yaml:"pollInterval,omitempty"`
	SLAInterval  string `json:"slaInterval,omitempty" yaml:"slaInterval,omitempty"`
}

type ExecutorConfig struct {
	DefaultTimeout      string       `json:"defaultTimeout,omitempty" yaml:"defaultTimeout,omitempty"`
	ConfidenceThreshold float64      `json:"confidenceThreshold,omitempty" yaml:"confidenceThreshold,omitempty"`
	Retry               *graph.Retry `json:"retry,omitempty" yaml:"retry,omitempty"`
}

type ApprovalConfig struct {
	DefaultDeadline string `json:"defaultDeadline,omitempty" yaml:"defaultDeadline,omitempty"`
}

// StoreConfig selects where flows, executions and data step records live
type StoreConfig struct {
	Kind    string      `json:"kind" yaml:"kind"`
	BaseURL string      `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	Redis   RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	TTL      string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// EventsConfig controls the watermill sink topic
type EventsConfig struct {
	Topic string `json:"topic,omitempty" yaml:"topic,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

type TracingConfig struct {
	Enabled        bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	ServiceName    string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`
	ServiceVersion string `json:"serviceVersion,omitempty" yaml:"serviceVersion,omitempty"`
	Output         string `json:"output,omitempty" yaml:"output,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults. Callers
// may modify the returned struct before passing it to NewFromConfig.
func DefaultConfig() *Config {
	return &Config{
		Processor: ProcessorConfig{
			WorkerCount:  5,
			QueueBuffer:  1024,
			PollInterval: "50ms",
			SLAInterval:  "1s",
		},
		Executor: ExecutorConfig{
			ConfidenceThreshold: 0.7,
			Retry:               &graph.Retry{Type: "fixed", Delay: "500ms"},
		},
		Store:   StoreConfig{Kind: StoreMemory},
		Log:     LogConfig{Level: "info", Format: "json"},
		Tracing: TracingConfig{ServiceName: "procflow"},
	}
}

// LoadConfig reads a YAML or JSON config from URL on top of DefaultConfig
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	ret := DefaultConfig()
	if err := meta.New(afs.New(), "").Load(ctx, URL, ret); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Processor.WorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("processor.workers must be > 0"))
	}
	if c.Processor.QueueBuffer < 0 {
		errs = append(errs, fmt.Errorf("processor.queueBuffer must be >= 0"))
	}
	for name, value := range map[string]string{
		"processor.pollInterval":   c.Processor.PollInterval,
		"processor.slaInterval":    c.Processor.SLAInterval,
		"executor.defaultTimeout":  c.Executor.DefaultTimeout,
		"approval.defaultDeadline": c.Approval.DefaultDeadline,
		"store.redis.ttl":          c.Store.Redis.TTL,
	} {
		if _, err := parseDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if t := c.Executor.ConfidenceThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("executor.confidenceThreshold must be within [0,1], got %v", t))
	}
	if retry := c.Executor.Retry; retry != nil {
		switch retry.Type {
		case "", "fixed", "exponential", "none":
		default:
			errs = append(errs, fmt.Errorf("executor.retry.type: unsupported %q", retry.Type))
		}
		if _, err := parseDuration(retry.Delay); err != nil {
			errs = append(errs, fmt.Errorf("executor.retry.delay: %w", err))
		}
		if _, err := parseDuration(retry.MaxDelay); err != nil {
			errs = append(errs, fmt.Errorf("executor.retry.maxDelay: %w", err))
		}
	}
	switch c.Store.Kind {
	case "", StoreMemory:
	case StoreFs:
		if c.Store.BaseURL == "" {
			errs = append(errs, fmt.Errorf("store.baseURL is required for fs store"))
		}
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("store.redis.addr is required for redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.kind: unsupported %q", c.Store.Kind))
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format: unsupported %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %v", value)
	}
	return d, nil
}

func mustDuration(value string) time.Duration {
	d, _ := parseDuration(value)
	return d
}

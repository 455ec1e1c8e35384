// Package config provides yaml-backed configuration for the middleware
// pipeline: which policies a client opts into, their parameters, and the
// retry policy the executor consults between attempts. It converts the
// parsed configuration into assembled pipeline policies.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cortexflow/pipelinekit/pkg/cache"
	"github.com/cortexflow/pipelinekit/pkg/logging"
	"github.com/cortexflow/pipelinekit/pkg/metrics"
	"github.com/cortexflow/pipelinekit/pkg/pipeline"
	"github.com/cortexflow/pipelinekit/pkg/ratelimit"
	"github.com/cortexflow/pipelinekit/pkg/retry"
)

// Duration wraps time.Duration for yaml parsing of values like "30s" or "5m"
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Rate limiting modes
const (
	// RateLimitModeWindow rejects calls over a fixed 60-second window limit
	RateLimitModeWindow = "window"

	// RateLimitModeSmooth paces calls to the configured rate instead of
	// rejecting them
	RateLimitModeSmooth = "smooth"
)

// Config is the complete pipeline configuration
type Config struct {
	Retry     RetryConfig     `yaml:"retry,omitempty"`
	Cache     CacheConfig     `yaml:"cache,omitempty"`
	RateLimit RateLimitConfig `yaml:"rate_limit,omitempty"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// RetryConfig selects a retry preset, optionally overriding its fields
type RetryConfig struct {
	// Preset is "default", "aggressive", or "disabled" (default: "default")
	Preset string `yaml:"preset,omitempty"`

	// Optional overrides applied on top of the preset
	MaxRetries   *int      `yaml:"max_retries,omitempty"`
	InitialDelay *Duration `yaml:"initial_delay,omitempty"`
	MaxDelay     *Duration `yaml:"max_delay,omitempty"`
	Multiplier   *float64  `yaml:"multiplier,omitempty"`
	Jitter       *bool     `yaml:"jitter,omitempty"`
}

// CacheConfig configures the prompt cache policy
type CacheConfig struct {
	Enabled    bool     `yaml:"enabled"`
	TTL        Duration `yaml:"ttl,omitempty"`
	MaxEntries int      `yaml:"max_entries,omitempty"`
}

// RateLimitConfig configures the rate limiting policy
type RateLimitConfig struct {
	Enabled           bool   `yaml:"enabled"`
	RequestsPerMinute int    `yaml:"requests_per_minute,omitempty"`
	Mode              string `yaml:"mode,omitempty"`
}

// MetricsConfig configures the token accounting policy
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig configures the structured logging policy
type LoggingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Defaults applied to enabled sections that omit a value
const (
	DefaultCacheTTL          = 5 * time.Minute
	DefaultCacheMaxEntries   = 1000
	DefaultRequestsPerMinute = 60
)

// Load reads and parses a yaml configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses yaml configuration data and validates it
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the configuration for inconsistent values
func (c *Config) Validate() error {
	switch c.Retry.Preset {
	case "", "default", "aggressive", "disabled":
	default:
		return fmt.Errorf("unknown retry preset %q", c.Retry.Preset)
	}

	if c.Retry.MaxRetries != nil && *c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry max_retries must be non-negative")
	}

	if c.Cache.Enabled {
		if c.Cache.TTL.Std() < 0 {
			return fmt.Errorf("cache ttl must be non-negative")
		}
		if c.Cache.MaxEntries < 0 {
			return fmt.Errorf("cache max_entries must be non-negative")
		}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMinute < 0 {
			return fmt.Errorf("rate_limit requests_per_minute must be non-negative")
		}
		switch c.RateLimit.Mode {
		case "", RateLimitModeWindow, RateLimitModeSmooth:
		default:
			return fmt.Errorf("unknown rate_limit mode %q", c.RateLimit.Mode)
		}
	}

	return nil
}

// RetryPolicy resolves the configured preset and overrides into a policy
func (c *Config) RetryPolicy() retry.Policy {
	var policy retry.Policy
	switch c.Retry.Preset {
	case "aggressive":
		policy = retry.AggressivePolicy()
	case "disabled":
		policy = retry.DisabledPolicy()
	default:
		policy = retry.DefaultPolicy()
	}

	if c.Retry.MaxRetries != nil {
		policy.MaxRetries = *c.Retry.MaxRetries
	}
	if c.Retry.InitialDelay != nil {
		policy.InitialDelay = c.Retry.InitialDelay.Std()
	}
	if c.Retry.MaxDelay != nil {
		policy.MaxDelay = c.Retry.MaxDelay.Std()
	}
	if c.Retry.Multiplier != nil {
		policy.Multiplier = *c.Retry.Multiplier
	}
	if c.Retry.Jitter != nil {
		policy.Jitter = *c.Retry.Jitter
	}

	return policy
}

// Policies holds the assembled per-client policy instances and the chain
// they are registered on. Every policy is opt-in: a disabled section leaves
// its field nil and registers nothing, so absent policies are silent no-ops.
type Policies struct {
	Chain *pipeline.Chain

	RateLimiter *ratelimit.FixedWindow
	Pacer       *ratelimit.ClientLimiter
	Cache       *cache.PromptCache
	Tokens      *metrics.TokenCounter
	Logger      *logging.StructuredLogger

	Retry retry.Policy
}

// Build assembles the configured policies into a chain. The logger (when
// enabled) is registered first so it observes the final response last, then
// the window limiter, then the cache, then the token counter — the standard
// onion for this kit. sink may be nil when logging is disabled.
func (c *Config) Build(sink logging.Sink) (*Policies, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p := &Policies{
		Chain: pipeline.NewChain(),
		Retry: c.RetryPolicy(),
	}

	if c.Logging.Enabled {
		if sink == nil {
			return nil, fmt.Errorf("logging enabled but no sink supplied")
		}
		p.Logger = logging.NewStructuredLogger(sink)
		p.Chain.Use(p.Logger)
	}

	if c.RateLimit.Enabled {
		rpm := c.RateLimit.RequestsPerMinute
		if rpm == 0 {
			rpm = DefaultRequestsPerMinute
		}
		if c.RateLimit.Mode == RateLimitModeSmooth {
			p.Pacer = ratelimit.NewClientLimiter(rpm)
		} else {
			p.RateLimiter = ratelimit.NewFixedWindow(rpm)
			p.Chain.Use(p.RateLimiter)
		}
	}

	if c.Cache.Enabled {
		ttl := c.Cache.TTL.Std()
		if ttl == 0 {
			ttl = DefaultCacheTTL
		}
		maxEntries := c.Cache.MaxEntries
		if maxEntries == 0 {
			maxEntries = DefaultCacheMaxEntries
		}
		p.Cache = cache.NewPromptCache(ttl, maxEntries)
		p.Chain.Use(p.Cache)
	}

	if c.Metrics.Enabled {
		p.Tokens = metrics.NewTokenCounter()
		p.Chain.Use(p.Tokens)
	}

	return p, nil
}

// NewExecutor creates an executor over the assembled chain, wiring the pacer
// when smooth rate limiting was configured
func (p *Policies) NewExecutor(adapter pipeline.ModelAdapter) *pipeline.Executor {
	executor := pipeline.NewExecutor(p.Chain, adapter, p.Retry)
	if p.Pacer != nil {
		executor.WithPacer(p.Pacer)
	}
	return executor
}

// Package config defines service configuration and its loading from
// defaults, an optional YAML file and PLACEMENT_* environment variables.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Dedupe backends.
const (
	DedupeMemory = "memory"
	DedupeRedis  = "redis"
)

// PresetConfig overrides or adds a named scoring preset.
type PresetConfig struct {
	Weights           map[string]float64 `koanf:"weights"`
	MinimumThresholds map[string]float64 `koanf:"minimum_thresholds"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the encoder: console or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory application queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of screening workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeBackend selects where seen application ids live: memory or redis.
	DedupeBackend string `koanf:"dedupe_backend"`

	// DedupeSize bounds the in-memory dedupe cache.
	DedupeSize int `koanf:"dedupe_size"`

	// DedupeTTLSeconds is how long Redis remembers an application id.
	DedupeTTLSeconds int `koanf:"dedupe_ttl_seconds"`

	// RedisAddr is required when DedupeBackend is redis.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// MaxShortlistLimit caps GET /jobs/{id}/shortlist?limit.
	MaxShortlistLimit int `koanf:"max_shortlist_limit"`

	// DefaultTopN is the number of deficits explained when a request omits it.
	DefaultTopN int `koanf:"default_top_n"`

	// RateLimitRPS and RateLimitBurst throttle application intake; 0 disables.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// PenaltyPerBacklog is subtracted from the backlogs factor per backlog.
	PenaltyPerBacklog float64 `koanf:"penalty_per_backlog"`

	// FactorCaps saturate count factors: internships, projects, extracurriculars, skills.
	FactorCaps map[string]float64 `koanf:"factor_caps"`

	// SkillCategories group skills into category factors named skills_<category>.
	SkillCategories map[string][]string `koanf:"skill_categories"`

	// Presets overrides built-in presets or adds new ones by name.
	Presets map[string]PresetConfig `koanf:"presets"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "console",
		Addr:              ":9080",
		QueueSize:         10_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeBackend:     DedupeMemory,
		DedupeSize:        100_000,
		DedupeTTLSeconds:  86_400,
		MaxShortlistLimit: 100,
		DefaultTopN:       3,
		PenaltyPerBacklog: 0.1,
		FactorCaps: map[string]float64{
			"internships":      3,
			"projects":         5,
			"extracurriculars": 5,
			"skills":           10,
		},
		SkillCategories: map[string][]string{
			"technical": {"SQL", "Data Analysis", "A/B Testing", "Metrics Definition", "API Understanding", "Basic Coding"},
			"business":  {"Market Research", "Competitive Analysis", "ROI Calculation", "Business Case Development", "Stakeholder Management"},
			"product":   {"PRD Writing", "User Stories", "Wireframing", "Roadmapping", "Prioritization", "User Research"},
		},
		Presets: map[string]PresetConfig{},
	}
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MaxShortlistLimit <= 0:
		return fmt.Errorf("%w: max_shortlist_limit must be positive", ErrInvalidConfig)
	case c.DefaultTopN <= 0:
		return fmt.Errorf("%w: default_top_n must be positive", ErrInvalidConfig)
	case c.RateLimitRPS < 0 || c.RateLimitBurst < 0:
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}

	switch c.DedupeBackend {
	case DedupeMemory:
	case DedupeRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: redis_addr is required for the redis dedupe backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown dedupe_backend %q", ErrInvalidConfig, c.DedupeBackend)
	}
	return nil
}

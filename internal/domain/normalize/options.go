package normalize

import (
	"strings"

	"github.com/okian/placement/internal/domain/model"
)

// Option applies a configuration option to a Normalizer.
type Option func(*Config)

// WithPenaltyPerBacklog sets the per-backlog deduction from the backlogs factor.
func WithPenaltyPerBacklog(penalty float64) Option {
	return func(c *Config) {
		c.PenaltyPerBacklog = penalty
	}
}

// WithCaps overrides saturation caps for count factors. Factors not present
// keep their current cap.
func WithCaps(caps map[model.Factor]float64) Option {
	return func(c *Config) {
		for f, v := range caps {
			c.Caps[model.Factor(strings.ToLower(string(f)))] = v
		}
	}
}

// WithSkillCategories replaces the skill categories used for category factors.
func WithSkillCategories(categories map[string][]string) Option {
	return func(c *Config) {
		c.SkillCategories = make(map[string][]string, len(categories))
		for name, skills := range categories {
			c.SkillCategories[name] = append([]string(nil), skills...)
		}
	}
}

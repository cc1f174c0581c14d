package service

import (
	"fmt"
	"sort"

	"github.com/okian/placement/internal/config"
	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/normalize"
	"github.com/okian/placement/internal/domain/scoring"
	"github.com/okian/placement/pkg/metrics"
)

// FromConfig builds a service whose normalizer, presets and sizing come from
// cfg. Options given after cfg take precedence.
func FromConfig(cfg *config.Config, opts ...Option) (*Service, error) {
	n, err := NormalizerFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	p, err := PresetsFromConfig(cfg, n.Factors())
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithNormalizer(n),
		WithPresets(p),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDefaultTopN(cfg.DefaultTopN),
	}
	return New(append(base, opts...)...), nil
}

// NormalizerFromConfig maps penalty, caps and skill categories onto a normalizer.
func NormalizerFromConfig(cfg *config.Config) (*normalize.Normalizer, error) {
	caps := normalize.DefaultCaps()
	for name, v := range cfg.FactorCaps {
		f := model.Factor(name)
		if _, ok := caps[f]; !ok {
			metrics.RecordConfigurationError("factor_cap")
			return nil, fmt.Errorf("%w: factor_caps: %q is not a count factor", config.ErrInvalidConfig, name)
		}
		caps[f] = v
	}
	n, err := normalize.New(
		normalize.WithPenaltyPerBacklog(cfg.PenaltyPerBacklog),
		normalize.WithCaps(caps),
		normalize.WithSkillCategories(cfg.SkillCategories),
	)
	if err != nil {
		metrics.RecordConfigurationError("normalizer")
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	return n, nil
}

// PresetsFromConfig layers configured presets over the built-in ones and
// checks every preset against the known factors.
func PresetsFromConfig(cfg *config.Config, known []model.Factor) (*scoring.Presets, error) {
	p := scoring.NewPresets()

	names := make([]string, 0, len(cfg.Presets))
	for name := range cfg.Presets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pc := cfg.Presets[name]
		c := scoring.Criteria{
			Name:              name,
			Weights:           toFactorMap(pc.Weights),
			MinimumThresholds: toFactorMap(pc.MinimumThresholds),
		}
		if err := p.Override(c, known); err != nil {
			metrics.RecordConfigurationError("preset")
			return nil, fmt.Errorf("%w: preset %q: %w", config.ErrInvalidConfig, name, err)
		}
	}
	if err := p.Validate(known); err != nil {
		metrics.RecordConfigurationError("preset")
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	return p, nil
}

func toFactorMap(in map[string]float64) map[model.Factor]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[model.Factor]float64, len(in))
	for k, v := range in {
		out[model.Factor(k)] = v
	}
	return out
}

package scoring

import (
	"fmt"
	"sort"
	"sync"

	"github.com/okian/placement/internal/domain/model"
)

// Built-in preset names.
const (
	PlacementDefault   = "placement-default"
	JobFitDefault      = "job-fit-default"
	PMReadinessDefault = "pm-readiness-default"
)

// PlacementDefaultCriteria weighs academics, experience and assessments for
// general campus placement.
func PlacementDefaultCriteria() Criteria {
	return Criteria{
		Name: PlacementDefault,
		Weights: map[model.Factor]float64{
			model.FactorCGPA:             0.30,
			model.FactorInternships:      0.20,
			model.FactorProjects:         0.15,
			model.FactorAptitude:         0.10,
			model.FactorCoding:           0.10,
			model.FactorCommunication:    0.10,
			model.FactorExtracurriculars: 0.05,
			model.FactorBacklogs:         0.10,
		},
	}
}

// JobFitDefaultCriteria weighs a candidate against a specific posting. Job
// requirements add thresholds on top.
func JobFitDefaultCriteria() Criteria {
	return Criteria{
		Name: JobFitDefault,
		Weights: map[model.Factor]float64{
			model.FactorCGPA:           0.25,
			model.FactorRequiredSkills: 0.30,
			model.FactorInternships:    0.15,
			model.FactorProjects:       0.10,
			model.FactorCoding:         0.10,
			model.FactorBacklogs:       0.10,
		},
	}
}

// PMReadinessDefaultCriteria weighs the three product-management skill
// categories equally.
func PMReadinessDefaultCriteria() Criteria {
	return Criteria{
		Name: PMReadinessDefault,
		Weights: map[model.Factor]float64{
			model.CategoryFactor("technical"): 1,
			model.CategoryFactor("business"):  1,
			model.CategoryFactor("product"):   1,
		},
	}
}

// PresetOption applies a configuration option to Presets.
type PresetOption func(*Presets)

// WithPreset adds or replaces a preset under c.Name.
func WithPreset(c Criteria) PresetOption {
	return func(p *Presets) {
		p.byName[c.Name] = c.Clone()
	}
}

// Presets is a registry of named criteria.
type Presets struct {
	mu     sync.RWMutex
	byName map[string]Criteria
}

// NewPresets returns a registry holding the built-in presets plus opts.
func NewPresets(opts ...PresetOption) *Presets {
	p := &Presets{byName: make(map[string]Criteria)}
	for _, c := range []Criteria{PlacementDefaultCriteria(), JobFitDefaultCriteria(), PMReadinessDefaultCriteria()} {
		p.byName[c.Name] = c
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Lookup returns a copy of the named preset.
func (p *Presets) Lookup(name string) (Criteria, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.byName[name]
	if !ok {
		return Criteria{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return c.Clone(), nil
}

// Override replaces the named preset after checking it against known factors.
func (p *Presets) Override(c Criteria, known []model.Factor) error {
	if c.Name == "" {
		return fmt.Errorf("%w: preset name is empty", ErrInvalidArgument)
	}
	if err := c.Validate(known); err != nil {
		return err
	}
	p.mu.Lock()
	p.byName[c.Name] = c.Clone()
	p.mu.Unlock()
	return nil
}

// Validate checks every preset against known factors.
func (p *Presets) Validate(known []model.Factor) error {
	for _, name := range p.Names() {
		c, err := p.Lookup(name)
		if err != nil {
			return err
		}
		if err := c.Validate(known); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the preset names in sorted order.
func (p *Presets) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.byName))
	for name := range p.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

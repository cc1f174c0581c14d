// Package scoring computes a weighted 0-100 score, an eligibility decision
// and a verdict band from normalized features.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/placement/internal/domain/model"
)

const maxScoreValue = 100.0

// Criteria is a named set of factor weights and minimum thresholds.
// Weights are relative; only their ratios matter.
type Criteria struct {
	Name              string                   `json:"name"`
	Weights           map[model.Factor]float64 `json:"weights"`
	MinimumThresholds map[model.Factor]float64 `json:"minimum_thresholds,omitempty"`
}

// Clone returns a deep copy.
func (c Criteria) Clone() Criteria {
	out := Criteria{Name: c.Name}
	if c.Weights != nil {
		out.Weights = make(map[model.Factor]float64, len(c.Weights))
		for k, v := range c.Weights {
			out.Weights[k] = v
		}
	}
	if c.MinimumThresholds != nil {
		out.MinimumThresholds = make(map[model.Factor]float64, len(c.MinimumThresholds))
		for k, v := range c.MinimumThresholds {
			out.MinimumThresholds[k] = v
		}
	}
	return out
}

// Validate checks the criteria against the set of factors a caller can
// produce, without scoring anything.
func (c Criteria) Validate(known []model.Factor) error {
	f := make(model.Features, len(known))
	for _, k := range known {
		f[k] = 0
	}
	_, err := checkCriteria(f, c)
	return err
}

// Contribution is one factor's share of the score.
type Contribution struct {
	Factor       model.Factor `json:"factor"`
	Value        float64      `json:"value"`
	Weight       float64      `json:"weight"`       // normalized weight share, sums to 1
	Contribution float64      `json:"contribution"` // Weight * Value
}

// Violation is a threshold the features did not meet.
type Violation struct {
	Factor    model.Factor `json:"factor"`
	Value     float64      `json:"value"`
	Threshold float64      `json:"threshold"`
}

// Result is the outcome of scoring features against criteria.
type Result struct {
	Criteria            string         `json:"criteria"`
	Score               float64        `json:"score"`
	Eligible            bool           `json:"eligible"`
	Verdict             Verdict        `json:"verdict"`
	Violations          []Violation    `json:"violations,omitempty"`
	FactorContributions []Contribution `json:"factor_contributions"`
}

// Scorer scores features against criteria.
type Scorer interface {
	Score(f model.Features, c Criteria) (Result, error)
}

// Engine is the default Scorer.
type Engine struct{}

// Score implements Scorer.
func (Engine) Score(f model.Features, c Criteria) (Result, error) {
	return Score(f, c)
}

// Score computes raw = sum(w*v)/sum(w), score = clamp(raw*100, 0, 100).
// Eligibility is decided by thresholds alone. The same inputs always give
// the same result.
func Score(f model.Features, c Criteria) (Result, error) {
	factors, err := checkCriteria(f, c)
	if err != nil {
		return Result{}, err
	}

	var num, den float64
	for _, k := range factors {
		w := c.Weights[k]
		num += w * f[k]
		den += w
	}

	contributions := make([]Contribution, 0, len(factors))
	for _, k := range factors {
		share := c.Weights[k] / den
		contributions = append(contributions, Contribution{
			Factor:       k,
			Value:        f[k],
			Weight:       share,
			Contribution: share * f[k],
		})
	}
	sort.SliceStable(contributions, func(i, j int) bool {
		if contributions[i].Contribution != contributions[j].Contribution {
			return contributions[i].Contribution > contributions[j].Contribution
		}
		return contributions[i].Factor < contributions[j].Factor
	})

	score := math.Max(0, math.Min(maxScoreValue, num/den*maxScoreValue))

	var violations []Violation
	for _, k := range sortedKeys(c.MinimumThresholds) {
		if t := c.MinimumThresholds[k]; f[k] < t {
			violations = append(violations, Violation{Factor: k, Value: f[k], Threshold: t})
		}
	}

	return Result{
		Criteria:            c.Name,
		Score:               score,
		Eligible:            len(violations) == 0,
		Verdict:             VerdictFor(score),
		Violations:          violations,
		FactorContributions: contributions,
	}, nil
}

// checkCriteria validates c against f and returns the weighted factors in
// name order.
func checkCriteria(f model.Features, c Criteria) ([]model.Factor, error) {
	if len(c.Weights) == 0 {
		return nil, fmt.Errorf("%w: criteria %q has no weights", ErrEmptyCriteria, c.Name)
	}

	factors := sortedKeys(c.Weights)
	var total float64
	for _, k := range factors {
		v, ok := f[k]
		if !ok {
			return nil, &UnknownFactorError{Criteria: c.Name, Factor: k}
		}
		if err := checkValue(c.Name, k, v); err != nil {
			return nil, err
		}
		w := c.Weights[k]
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, fmt.Errorf("%w: criteria %q: weight for %q must be finite and non-negative, got %v",
				ErrInvalidArgument, c.Name, k, w)
		}
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: criteria %q: weights sum to zero", ErrInvalidArgument, c.Name)
	}

	for _, k := range sortedKeys(c.MinimumThresholds) {
		v, ok := f[k]
		if !ok {
			return nil, &UnknownFactorError{Criteria: c.Name, Factor: k, Threshold: true}
		}
		if err := checkValue(c.Name, k, v); err != nil {
			return nil, err
		}
		t := c.MinimumThresholds[k]
		if math.IsNaN(t) || t < 0 || t > 1 {
			return nil, fmt.Errorf("%w: criteria %q: threshold for %q must be in [0,1], got %v",
				ErrInvalidArgument, c.Name, k, t)
		}
	}
	return factors, nil
}

func checkValue(criteria string, k model.Factor, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: criteria %q: feature %q must be in [0,1], got %v", ErrInvalidArgument, criteria, k, v)
	}
	return nil
}

func sortedKeys(m map[model.Factor]float64) []model.Factor {
	out := make([]model.Factor, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

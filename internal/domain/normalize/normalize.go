// Package normalize maps raw candidate profiles and job requirements onto
// factors in [0,1].
package normalize

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/placement/internal/domain/model"
)

// Default normalization constants.
const (
	DefaultPenaltyPerBacklog = 0.1

	maxCGPA    = 10.0
	maxPercent = 100.0
)

// Values assigned to skill levels.
const (
	BeginnerValue     = 0.33
	IntermediateValue = 0.66
	AdvancedValue     = 1.0
)

// DefaultCaps returns the saturation caps for count factors.
func DefaultCaps() map[model.Factor]float64 {
	return map[model.Factor]float64{
		model.FactorInternships:      3,
		model.FactorProjects:         5,
		model.FactorExtracurriculars: 5,
		model.FactorSkills:           10,
	}
}

// DefaultSkillCategories returns the product-management skill taxonomy.
func DefaultSkillCategories() map[string][]string {
	return map[string][]string{
		"technical": {"SQL", "Data Analysis", "A/B Testing", "Metrics Definition", "API Understanding", "Basic Coding"},
		"business":  {"Market Research", "Competitive Analysis", "ROI Calculation", "Business Case Development", "Stakeholder Management"},
		"product":   {"PRD Writing", "User Stories", "Wireframing", "Roadmapping", "Prioritization", "User Research"},
	}
}

// Config holds normalization parameters.
type Config struct {
	PenaltyPerBacklog float64
	Caps              map[model.Factor]float64
	SkillCategories   map[string][]string
}

// DefaultConfig returns the default normalization parameters.
func DefaultConfig() Config {
	return Config{
		PenaltyPerBacklog: DefaultPenaltyPerBacklog,
		Caps:              DefaultCaps(),
		SkillCategories:   DefaultSkillCategories(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if math.IsNaN(c.PenaltyPerBacklog) || c.PenaltyPerBacklog <= 0 || c.PenaltyPerBacklog > 1 {
		return fmt.Errorf("%w: penalty per backlog %v not in (0,1]", model.ErrInvalidArgument, c.PenaltyPerBacklog)
	}
	for _, f := range countFactors {
		cp, ok := c.Caps[f]
		if !ok {
			return fmt.Errorf("%w: missing cap for %s", model.ErrInvalidArgument, f)
		}
		if math.IsNaN(cp) || math.IsInf(cp, 0) || cp <= 0 {
			return fmt.Errorf("%w: cap for %s must be positive, got %v", model.ErrInvalidArgument, f, cp)
		}
	}
	for name := range c.SkillCategories {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty skill category name", model.ErrInvalidArgument)
		}
	}
	return nil
}

var countFactors = []model.Factor{
	model.FactorInternships,
	model.FactorProjects,
	model.FactorExtracurriculars,
	model.FactorSkills,
}

// Warning reports an input that was clamped into its domain.
type Warning struct {
	Field   string  `json:"field"`
	Raw     float64 `json:"raw"`
	Clamped float64 `json:"clamped"`
	Reason  string  `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s (%v -> %v)", w.Field, w.Reason, w.Raw, w.Clamped)
}

// Normalizer converts raw inputs to features. It is immutable and safe for
// concurrent use.
type Normalizer struct {
	cfg        Config
	categories []string            // sorted, lower-case
	members    map[string][]string // category -> lower-case skills, deduplicated
}

// New builds a normalizer from the defaults and the given options.
func New(opts ...Option) (*Normalizer, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return FromConfig(cfg)
}

// FromConfig builds a normalizer from an explicit configuration.
func FromConfig(cfg Config) (*Normalizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := &Normalizer{
		cfg: Config{
			PenaltyPerBacklog: cfg.PenaltyPerBacklog,
			Caps:              make(map[model.Factor]float64, len(cfg.Caps)),
			SkillCategories:   make(map[string][]string, len(cfg.SkillCategories)),
		},
		members: make(map[string][]string, len(cfg.SkillCategories)),
	}
	for f, v := range cfg.Caps {
		n.cfg.Caps[f] = v
	}
	for name, skills := range cfg.SkillCategories {
		key := strings.ToLower(strings.TrimSpace(name))
		n.cfg.SkillCategories[key] = append([]string(nil), skills...)
		n.members[key] = uniqueLower(append(n.members[key], skills...))
	}
	for key := range n.members {
		n.categories = append(n.categories, key)
	}
	sort.Strings(n.categories)
	return n, nil
}

// Normalize is a convenience wrapper building a Normalizer from cfg.
func Normalize(p model.CandidateProfile, cfg Config) (model.Features, []Warning, error) {
	n, err := FromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	f, w := n.Normalize(p)
	return f, w, nil
}

// Config returns a copy of the effective configuration.
func (n *Normalizer) Config() Config {
	out := Config{
		PenaltyPerBacklog: n.cfg.PenaltyPerBacklog,
		Caps:              make(map[model.Factor]float64, len(n.cfg.Caps)),
		SkillCategories:   make(map[string][]string, len(n.cfg.SkillCategories)),
	}
	for f, v := range n.cfg.Caps {
		out.Caps[f] = v
	}
	for k, v := range n.cfg.SkillCategories {
		out.SkillCategories[k] = append([]string(nil), v...)
	}
	return out
}

// Categories returns the configured skill categories, sorted.
func (n *Normalizer) Categories() []string {
	return append([]string(nil), n.categories...)
}

// Factors returns every factor this normalizer can produce, sorted.
func (n *Normalizer) Factors() []model.Factor {
	out := []model.Factor{
		model.FactorCGPA,
		model.FactorBacklogs,
		model.FactorInternships,
		model.FactorProjects,
		model.FactorExtracurriculars,
		model.FactorSkills,
		model.FactorAptitude,
		model.FactorCoding,
		model.FactorCommunication,
		model.FactorRequiredSkills,
	}
	for _, c := range n.categories {
		out = append(out, model.CategoryFactor(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Normalize maps a profile to features. Out-of-domain inputs are clamped and
// reported; the returned features are always in [0,1].
func (n *Normalizer) Normalize(p model.CandidateProfile) (model.Features, []Warning) {
	f, _, w := n.normalize(p)
	return f, w
}

// NormalizeForJob normalizes p and adds the required-skills factor for job.
// A job without required skills yields 1.0 for that factor.
func (n *Normalizer) NormalizeForJob(p model.CandidateProfile, job model.JobPosting) (model.Features, []Warning) {
	f, levels, w := n.normalize(p)
	required := uniqueLower(job.RequiredSkills)
	if len(required) == 0 {
		f[model.FactorRequiredSkills] = 1
	} else {
		f[model.FactorRequiredSkills] = meanLevel(levels, required)
	}
	return f, w
}

// Thresholds maps a job's raw requirements onto minimum factor values using
// the same rules as Normalize. A backlog allowance at or beyond the point where
// the factor reaches 0 yields a threshold of 0 and a warning; callers that need
// the limit enforced must compare raw counts.
func (n *Normalizer) Thresholds(job model.JobPosting) (map[model.Factor]float64, []Warning) {
	var w []Warning
	t := make(map[model.Factor]float64)
	if job.MinCGPA != 0 {
		if v := clamp("min_cgpa", job.MinCGPA, 0, maxCGPA, &w) / maxCGPA; v > 0 {
			t[model.FactorCGPA] = v
		}
	}
	if job.MaxBacklogs != nil {
		b := *job.MaxBacklogs
		if b < 0 {
			w = append(w, Warning{Field: "max_backlogs", Raw: float64(b), Clamped: 0, Reason: "negative count"})
			b = 0
		}
		t[model.FactorBacklogs] = n.backlogValue(b)
		if b > 0 && float64(b)*n.cfg.PenaltyPerBacklog >= 1 {
			w = append(w, Warning{Field: "max_backlogs", Raw: float64(b), Clamped: 0, Reason: "requirement saturates backlog factor"})
		}
	}
	if job.MinSkillMatch != 0 {
		if v := clamp("min_skill_match", job.MinSkillMatch, 0, 1, &w); v > 0 {
			t[model.FactorRequiredSkills] = v
		}
	}
	return t, w
}

func (n *Normalizer) normalize(p model.CandidateProfile) (model.Features, map[string]float64, []Warning) {
	var w []Warning
	f := make(model.Features, len(countFactors)+len(n.categories)+5)

	f[model.FactorCGPA] = clamp("cgpa", p.CGPA, 0, maxCGPA, &w) / maxCGPA

	backlogs := p.Backlogs
	if backlogs < 0 {
		w = append(w, Warning{Field: "backlogs", Raw: float64(backlogs), Clamped: 0, Reason: "negative count"})
		backlogs = 0
	}
	f[model.FactorBacklogs] = n.backlogValue(backlogs)

	f[model.FactorInternships] = n.count("internship_count", model.FactorInternships, p.InternshipCount, &w)
	f[model.FactorProjects] = n.count("project_count", model.FactorProjects, p.ProjectCount, &w)
	f[model.FactorExtracurriculars] = n.count("extracurricular_count", model.FactorExtracurriculars, p.ExtracurricularCount, &w)

	levels := canonicalSkills(p.SkillLevels, &w)
	f[model.FactorSkills] = n.count("skill_levels", model.FactorSkills, len(levels), &w)
	for _, c := range n.categories {
		f[model.CategoryFactor(c)] = meanLevel(levels, n.members[c])
	}

	f[model.FactorAptitude] = clamp("aptitude_score", p.AptitudeScore, 0, maxPercent, &w) / maxPercent
	f[model.FactorCoding] = clamp("coding_score", p.CodingScore, 0, maxPercent, &w) / maxPercent
	f[model.FactorCommunication] = clamp("communication_score", p.CommunicationScore, 0, maxPercent, &w) / maxPercent

	return f, levels, w
}

func (n *Normalizer) backlogValue(backlogs int) float64 {
	return math.Max(0, 1-float64(backlogs)*n.cfg.PenaltyPerBacklog)
}

// count saturates at the factor's cap; only negative counts are clamped.
func (n *Normalizer) count(field string, f model.Factor, v int, w *[]Warning) float64 {
	if v < 0 {
		*w = append(*w, Warning{Field: field, Raw: float64(v), Clamped: 0, Reason: "negative count"})
		return 0
	}
	return math.Min(float64(v)/n.cfg.Caps[f], 1)
}

func clamp(field string, v, lo, hi float64, w *[]Warning) float64 {
	switch {
	case math.IsNaN(v):
		*w = append(*w, Warning{Field: field, Raw: v, Clamped: lo, Reason: "not a number"})
		return lo
	case v < lo:
		*w = append(*w, Warning{Field: field, Raw: v, Clamped: lo, Reason: "below minimum"})
		return lo
	case v > hi:
		*w = append(*w, Warning{Field: field, Raw: v, Clamped: hi, Reason: "above maximum"})
		return hi
	}
	return v
}

// LevelValue maps a skill level to its numeric value; invalid levels map to 0.
func LevelValue(l model.SkillLevel) float64 {
	switch l {
	case model.Beginner:
		return BeginnerValue
	case model.Intermediate:
		return IntermediateValue
	case model.Advanced:
		return AdvancedValue
	}
	return 0
}

// canonicalSkills lower-cases skill names. Case-insensitive duplicates keep
// the highest level.
func canonicalSkills(in map[string]model.SkillLevel, w *[]Warning) map[string]float64 {
	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]float64, len(in))
	for _, name := range names {
		lvl := in[name]
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			*w = append(*w, Warning{Field: "skill_levels", Raw: float64(lvl), Clamped: 0, Reason: "empty skill name ignored"})
			continue
		}
		v := LevelValue(lvl)
		if !lvl.Valid() {
			*w = append(*w, Warning{Field: "skill_levels." + key, Raw: float64(lvl), Clamped: 0, Reason: "invalid level"})
		}
		if prev, ok := out[key]; ok {
			*w = append(*w, Warning{Field: "skill_levels." + key, Raw: v, Clamped: math.Max(prev, v), Reason: "duplicate skill"})
			v = math.Max(prev, v)
		}
		out[key] = v
	}
	return out
}

// meanLevel averages the levels of skills; a skill the candidate did not
// list counts as 0 and an empty list yields 0.
func meanLevel(levels map[string]float64, skills []string) float64 {
	if len(skills) == 0 {
		return 0
	}
	var sum float64
	for _, s := range skills {
		sum += levels[s]
	}
	return sum / float64(len(skills))
}

func uniqueLower(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

package model

import "strings"

// Factor names a normalized feature in [0,1].
type Factor string

// Built-in factors produced by the normalizer.
const (
	FactorCGPA             Factor = "cgpa"
	FactorBacklogs         Factor = "backlogs"
	FactorInternships      Factor = "internships"
	FactorProjects         Factor = "projects"
	FactorExtracurriculars Factor = "extracurriculars"
	FactorSkills           Factor = "skills"
	FactorAptitude         Factor = "aptitude"
	FactorCoding           Factor = "coding"
	FactorCommunication    Factor = "communication"
	FactorRequiredSkills   Factor = "skills_required"
)

const categoryPrefix = "skills_"

// CategoryFactor returns the factor carrying the aggregate level of a skill category.
func CategoryFactor(category string) Factor {
	return Factor(categoryPrefix + strings.ToLower(strings.TrimSpace(category)))
}

// Category reports the skill category behind f, if f is a category factor.
func (f Factor) Category() (string, bool) {
	s := string(f)
	if f == FactorRequiredSkills || !strings.HasPrefix(s, categoryPrefix) {
		return "", false
	}
	return strings.TrimPrefix(s, categoryPrefix), true
}

// Features maps factor names to normalized values.
type Features map[Factor]float64

// Clone returns an independent copy.
func (f Features) Clone() Features {
	out := make(Features, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

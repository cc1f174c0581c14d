package model

// Company is an employer that posts jobs.
type Company struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Industry    string `json:"industry,omitempty"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
}

// JobPosting holds raw requirements for an opportunity. Zero values mean
// "no requirement" except MaxBacklogs, which is nil when unrestricted.
type JobPosting struct {
	ID             string             `json:"id,omitempty"`
	CompanyID      string             `json:"company_id,omitempty"`
	Title          string             `json:"title"`
	MinCGPA        float64            `json:"min_cgpa,omitempty"`
	MaxBacklogs    *int               `json:"max_backlogs,omitempty"`
	RequiredSkills []string           `json:"required_skills,omitempty"`
	MinSkillMatch  float64            `json:"min_skill_match,omitempty"`
	Weights        map[Factor]float64 `json:"weights,omitempty"`
	Active         bool               `json:"active"`
}

// Clone returns a deep copy of the posting.
func (j JobPosting) Clone() JobPosting {
	out := j
	if j.MaxBacklogs != nil {
		n := *j.MaxBacklogs
		out.MaxBacklogs = &n
	}
	if j.RequiredSkills != nil {
		out.RequiredSkills = append([]string(nil), j.RequiredSkills...)
	}
	if j.Weights != nil {
		out.Weights = make(map[Factor]float64, len(j.Weights))
		for k, v := range j.Weights {
			out.Weights[k] = v
		}
	}
	return out
}

package scoring

import "github.com/okian/placement/internal/domain/model"

// Career path names.
const (
	CareerSoftwareDevelopment = "career-software-development"
	CareerDataScience         = "career-data-science"
	CareerProductManagement   = "career-product-management"
)

// CareerPath is a career track a candidate can be scored against. Skills are
// scored through the required-skills factor, so features must come from
// normalizing the profile against Posting.
type CareerPath struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Roles    []string `json:"entry_roles"`
	Skills   []string `json:"skills"`
	Criteria Criteria `json:"criteria"`
}

// Posting returns a pseudo job posting whose required skills are the path's.
func (p CareerPath) Posting() model.JobPosting {
	return model.JobPosting{ID: p.Name, Title: p.Title, RequiredSkills: append([]string(nil), p.Skills...), Active: true}
}

// CareerPaths returns the built-in career tracks in name order.
func CareerPaths() []CareerPath {
	return []CareerPath{
		{
			Name:   CareerDataScience,
			Title:  "Data Science",
			Roles:  []string{"Data Analyst", "Business Analyst", "Junior Data Scientist"},
			Skills: []string{"Statistics", "Machine Learning", "Python", "Data Visualization", "SQL"},
			Criteria: Criteria{
				Name: CareerDataScience,
				Weights: map[model.Factor]float64{
					model.FactorRequiredSkills:        0.40,
					model.CategoryFactor("technical"): 0.20,
					model.FactorAptitude:              0.20,
					model.FactorCoding:                0.10,
					model.FactorProjects:              0.10,
				},
			},
		},
		{
			Name:   CareerProductManagement,
			Title:  "Product Management",
			Roles:  []string{"Associate Product Manager", "Product Analyst"},
			Skills: []string{"User Research", "Data Analysis", "Stakeholder Management", "Prioritization"},
			Criteria: Criteria{
				Name: CareerProductManagement,
				Weights: map[model.Factor]float64{
					model.FactorRequiredSkills:        0.20,
					model.CategoryFactor("product"):   0.25,
					model.CategoryFactor("business"):  0.25,
					model.CategoryFactor("technical"): 0.10,
					model.FactorCommunication:         0.20,
				},
			},
		},
		{
			Name:   CareerSoftwareDevelopment,
			Title:  "Software Development",
			Roles:  []string{"Software Engineer", "Frontend Developer", "Backend Developer"},
			Skills: []string{"Programming", "System Design", "Algorithms", "Testing"},
			Criteria: Criteria{
				Name: CareerSoftwareDevelopment,
				Weights: map[model.Factor]float64{
					model.FactorRequiredSkills:        0.40,
					model.FactorCoding:                0.25,
					model.FactorProjects:              0.15,
					model.CategoryFactor("technical"): 0.10,
					model.FactorAptitude:              0.10,
				},
			},
		},
	}
}

// IsCareerPath reports whether name is a built-in career path.
func IsCareerPath(name string) bool {
	switch name {
	case CareerSoftwareDevelopment, CareerDataScience, CareerProductManagement:
		return true
	}
	return false
}

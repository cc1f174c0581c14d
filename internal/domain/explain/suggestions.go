package explain

import (
	"fmt"

	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/scoring"
)

var suggestions = map[model.Factor]string{
	model.FactorCGPA:             "Raise your CGPA above 8.0 through focused coursework.",
	model.FactorBacklogs:         "Clear pending backlogs; many recruiters filter on them.",
	model.FactorInternships:      "Complete at least 2 internships for industry exposure.",
	model.FactorProjects:         "Complete 2-3 technical projects and publish them.",
	model.FactorExtracurriculars: "Participate in coding competitions and hackathons.",
	model.FactorSkills:           "Broaden your skill set with in-demand certifications.",
	model.FactorAptitude:         "Practice aptitude tests regularly.",
	model.FactorCoding:           "Improve coding test scores above 80% with daily practice.",
	model.FactorCommunication:    "Join a communication skills workshop or mock interviews.",
	model.FactorRequiredSkills:   "Build the skills this job lists as required.",
}

// Suggestion returns the fixed improvement text for f.
func Suggestion(f model.Factor) string {
	if s, ok := suggestions[f]; ok {
		return s
	}
	if cat, ok := f.Category(); ok {
		return fmt.Sprintf("Strengthen your %s skills.", cat)
	}
	return fmt.Sprintf("Improve %s.", f)
}

var advice = map[scoring.Verdict][]string{
	scoring.VerdictLow: {
		"Improve CGPA above 8.0",
		"Complete at least 2 internships",
		"Participate in coding competitions",
		"Join a communication skills workshop",
	},
	scoring.VerdictModerate: {
		"Complete 2-3 technical projects",
		"Practice aptitude tests regularly",
		"Network with alumni in target companies",
		"Improve coding test scores above 80%",
	},
	scoring.VerdictHigh: {
		"Target top-tier companies",
		"Prepare company-specific resumes",
		"Practice advanced coding problems",
		"Prepare for behavioral interviews",
	},
}

// Advice returns the next steps for a verdict band.
func Advice(v scoring.Verdict) []string {
	return append([]string(nil), advice[v]...)
}

// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// SkillLevel is a self-assessed proficiency.
type SkillLevel int

// Skill levels in increasing order. The zero value is not a valid level.
const (
	Beginner SkillLevel = iota + 1
	Intermediate
	Advanced
)

var skillLevelNames = map[SkillLevel]string{
	Beginner:     "Beginner",
	Intermediate: "Intermediate",
	Advanced:     "Advanced",
}

// ParseSkillLevel parses a level name case-insensitively.
func ParseSkillLevel(s string) (SkillLevel, error) {
	for lvl, name := range skillLevelNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return lvl, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown skill level %q", ErrInvalidArgument, s)
}

// Valid reports whether l is one of the defined levels.
func (l SkillLevel) Valid() bool {
	_, ok := skillLevelNames[l]
	return ok
}

func (l SkillLevel) String() string {
	if name, ok := skillLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("SkillLevel(%d)", int(l))
}

// MarshalText implements encoding.TextMarshaler.
func (l SkillLevel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: skill level %d", ErrInvalidArgument, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *SkillLevel) UnmarshalText(b []byte) error {
	lvl, err := ParseSkillLevel(string(b))
	if err != nil {
		return err
	}
	*l = lvl
	return nil
}

// CandidateProfile is the raw, unnormalized description of a candidate.
type CandidateProfile struct {
	ID                   string                `json:"id,omitempty"`
	Name                 string                `json:"name,omitempty"`
	Department           string                `json:"department,omitempty"`
	GraduationYear       int                   `json:"graduation_year,omitempty"`
	CGPA                 float64               `json:"cgpa"`
	Backlogs             int                   `json:"backlogs"`
	InternshipCount      int                   `json:"internship_count"`
	ProjectCount         int                   `json:"project_count"`
	ExtracurricularCount int                   `json:"extracurricular_count"`
	SkillLevels          map[string]SkillLevel `json:"skill_levels,omitempty"`
	AptitudeScore        float64               `json:"aptitude_score"`
	CodingScore          float64               `json:"coding_score"`
	CommunicationScore   float64               `json:"communication_score"`
}

// Clone returns a deep copy of the profile.
func (p CandidateProfile) Clone() CandidateProfile {
	out := p
	if p.SkillLevels != nil {
		out.SkillLevels = make(map[string]SkillLevel, len(p.SkillLevels))
		for k, v := range p.SkillLevels {
			out.SkillLevels[k] = v
		}
	}
	return out
}

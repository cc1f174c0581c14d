package api

import (
	"net/http"

	"github.com/okian/placement/internal/domain/model"
)

// jobRequest mirrors model.JobPosting with an optional active flag that
// defaults to true.
type jobRequest struct {
	ID             string                   `json:"id,omitempty"`
	CompanyID      string                   `json:"company_id,omitempty"`
	Title          string                   `json:"title"`
	MinCGPA        float64                  `json:"min_cgpa,omitempty"`
	MaxBacklogs    *int                     `json:"max_backlogs,omitempty"`
	RequiredSkills []string                 `json:"required_skills,omitempty"`
	MinSkillMatch  float64                  `json:"min_skill_match,omitempty"`
	Weights        map[model.Factor]float64 `json:"weights,omitempty"`
	Active         *bool                    `json:"active,omitempty"`
}

func (j jobRequest) posting() model.JobPosting {
	active := true
	if j.Active != nil {
		active = *j.Active
	}
	return model.JobPosting{
		ID:             j.ID,
		CompanyID:      j.CompanyID,
		Title:          j.Title,
		MinCGPA:        j.MinCGPA,
		MaxBacklogs:    j.MaxBacklogs,
		RequiredSkills: j.RequiredSkills,
		MinSkillMatch:  j.MinSkillMatch,
		Weights:        j.Weights,
		Active:         active,
	}
}

func (s *Server) handlePutCandidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_candidate"
	var p model.CandidateProfile
	if err := decode(w, r, op, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.deps.PutCandidate(r.Context(), p)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_candidate"
	p, err := s.deps.Candidate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAssessments(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_assessments"
	h, err := s.deps.Assessments(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handlePutCompany(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_company"
	var c model.Company
	if err := decode(w, r, op, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.deps.PutCompany(r.Context(), c)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_company"
	c, err := s.deps.Company(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handlePutJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_job"
	var req jobRequest
	if err := decode(w, r, op, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.deps.PutJob(r.Context(), req.posting())
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_job"
	j, err := s.deps.Job(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, j)
}

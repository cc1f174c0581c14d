package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/placement/internal/domain/model"
)

// applicationRequest mirrors the OpenAPI schema for POST /applications.
type applicationRequest struct {
	ApplicationID string `json:"application_id"`
	CandidateID   string `json:"candidate_id"`
	JobID         string `json:"job_id"`
	TS            string `json:"ts,omitempty"`
}

func (a applicationRequest) application() (model.Application, error) {
	switch {
	case strings.TrimSpace(a.CandidateID) == "":
		return model.Application{}, errors.New("missing candidate_id")
	case strings.TrimSpace(a.JobID) == "":
		return model.Application{}, errors.New("missing job_id")
	}
	app := model.Application{ApplicationID: a.ApplicationID, CandidateID: a.CandidateID, JobID: a.JobID}
	if a.TS != "" {
		ts, err := time.Parse(time.RFC3339, a.TS)
		if err != nil {
			return model.Application{}, errors.New("invalid ts; must be RFC3339")
		}
		app.TS = ts
	}
	return app, nil
}

type ackResponse struct {
	Status        string `json:"status"`
	ApplicationID string `json:"application_id"`
	Duplicate     bool   `json:"duplicate"`
}

// handlePostApplication handles POST /applications: 202 when queued, 200
// for a duplicate id, 429 under backpressure.
func (s *Server) handlePostApplication(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_application"
	var req applicationRequest
	if err := decode(w, r, op, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	app, err := req.application()
	if err != nil {
		s.writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := s.deps.Enqueue(r.Context(), app)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ApplicationID: res.ApplicationID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ApplicationID: res.ApplicationID})
}

// handleShortlist handles GET /jobs/{id}/shortlist?limit=N&eligible_only=true.
func (s *Server) handleShortlist(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_shortlist"
	n, err := queryInt(r, op, "limit", defaultShortlistLen)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if n > s.maxLimit {
		s.writeError(w, r, WrapKind(op, ErrLimitExceeded, fmt.Errorf("limit %d exceeds %d", n, s.maxLimit)))
		return
	}
	eligibleOnly := r.URL.Query().Get("eligible_only") == "true"

	entries, err := s.deps.Shortlist(r.Context(), r.PathValue("id"), n, eligibleOnly)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleRank handles GET /jobs/{id}/rank/{candidate_id}.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	e, err := s.deps.Rank(r.Context(), r.PathValue("id"), r.PathValue("candidate_id"))
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleMatch handles GET /jobs/{id}/match/{candidate_id}?top_n=N.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.match"
	topN, err := queryInt(r, op, "top_n", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.deps.Match(r.Context(), r.PathValue("candidate_id"), r.PathValue("id"), topN)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

package api

import (
	"net/http"

	service "github.com/okian/placement/internal/app"
)

// handleAssess handles POST /assess.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	const op = "api.assess"
	var req service.AssessRequest
	if err := decode(w, r, op, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.deps.Assess(r.Context(), req)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleListPresets handles GET /presets.
func (s *Server) handleListPresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Presets())
}

// handleGetPreset handles GET /presets/{name}.
func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_preset"
	c, err := s.deps.Preset(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

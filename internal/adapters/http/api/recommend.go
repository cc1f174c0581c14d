package api

import "net/http"

// handleRecommendations handles GET /candidates/{id}/recommendations?top_n=N.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommendations"
	topN, err := queryInt(r, op, "top_n", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	recs, err := s.deps.Recommend(r.Context(), r.PathValue("id"), topN)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"candidate_id":    r.PathValue("id"),
		"recommendations": recs,
	})
}

// handleCareerPaths handles GET /candidates/{id}/career-paths?top_n=N, where
// top_n bounds the deficits listed per path.
func (s *Server) handleCareerPaths(w http.ResponseWriter, r *http.Request) {
	const op = "api.career_paths"
	topN, err := queryInt(r, op, "top_n", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	paths, err := s.deps.CareerPaths(r.Context(), r.PathValue("id"), topN)
	if err != nil {
		s.writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"candidate_id": r.PathValue("id"),
		"career_paths": paths,
	})
}

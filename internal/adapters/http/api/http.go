// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/okian/placement/internal/adapters/records"
	service "github.com/okian/placement/internal/app"
	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/scoring"
	"github.com/okian/placement/internal/domain/types"
	"github.com/okian/placement/pkg/logger"
)

const (
	defaultMaxLimit     = 100
	defaultShortlistLen = 10
	maxBodyBytes        = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Assess(ctx context.Context, req service.AssessRequest) (service.Assessment, error)
	Match(ctx context.Context, candidateID, jobID string, topN int) (service.Assessment, error)
	Recommend(ctx context.Context, candidateID string, topN int) ([]service.Recommendation, error)
	CareerPaths(ctx context.Context, candidateID string, topN int) ([]service.CareerMatch, error)
	Presets() []scoring.Criteria
	Preset(name string) (scoring.Criteria, error)

	PutCandidate(ctx context.Context, p model.CandidateProfile) (model.CandidateProfile, error)
	Candidate(ctx context.Context, id string) (model.CandidateProfile, error)
	Assessments(ctx context.Context, candidateID string) ([]records.Assessment, error)
	PutCompany(ctx context.Context, c model.Company) (model.Company, error)
	Company(ctx context.Context, id string) (model.Company, error)
	PutJob(ctx context.Context, j model.JobPosting) (model.JobPosting, error)
	Job(ctx context.Context, id string) (model.JobPosting, error)

	// Enqueue submits an application; queue.ErrQueueFull signals backpressure.
	Enqueue(ctx context.Context, app model.Application) (service.EnqueueResult, error)
	Shortlist(ctx context.Context, jobID string, limit int, eligibleOnly bool) ([]types.Entry, error)
	Rank(ctx context.Context, jobID, candidateID string) (types.Entry, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps     Dependencies
	stats    StatsProvider
	maxLimit int
	limiter  *rate.Limiter
	logger   logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, stats StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:     deps,
		stats:    stats,
		maxLimit: defaultMaxLimit,
		logger:   logger.Get().Named("http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.Handle(pattern, RequestIDMiddleware(MetricsMiddleware(h, endpoint), s.logger))
	}

	route("GET /healthz", "healthz", HandleHealth)
	route("GET /stats", "stats", s.handleStats)

	route("POST /assess", "assess", s.handleAssess)
	route("GET /presets", "presets", s.handleListPresets)
	route("GET /presets/{name}", "preset", s.handleGetPreset)

	route("POST /candidates", "candidates", s.handlePutCandidate)
	route("GET /candidates/{id}", "candidate", s.handleGetCandidate)
	route("GET /candidates/{id}/assessments", "assessments", s.handleAssessments)
	route("GET /candidates/{id}/recommendations", "recommendations", s.handleRecommendations)
	route("GET /candidates/{id}/career-paths", "career_paths", s.handleCareerPaths)
	route("POST /companies", "companies", s.handlePutCompany)
	route("GET /companies/{id}", "company", s.handleGetCompany)
	route("POST /jobs", "jobs", s.handlePutJob)
	route("GET /jobs/{id}", "job", s.handleGetJob)
	route("GET /jobs/{id}/match/{candidate_id}", "match", s.handleMatch)

	route("POST /applications", "applications", RateLimitMiddleware(s.limiter, s.handlePostApplication))
	route("GET /jobs/{id}/shortlist", "shortlist", s.handleShortlist)
	route("GET /jobs/{id}/rank/{candidate_id}", "rank", s.handleRank)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and logs server-side failures.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

// decode reads a JSON body, rejecting unknown fields and trailing data.
func decode(w http.ResponseWriter, r *http.Request, op string, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	if dec.More() {
		return WrapKind(op, ErrBadRequest, errors.New("unexpected data after JSON body"))
	}
	return nil
}

// queryInt parses an optional positive integer query parameter.
func queryInt(r *http.Request, op, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, WrapKind(op, ErrBadRequest, fmt.Errorf("%s must be a positive integer", name))
	}
	return n, nil
}

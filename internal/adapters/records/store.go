// Package records stores candidates, companies, job postings and assessment
// history.
package records

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/pkg/metrics"
)

const defaultHistoryLimit = 50

// Assessment is a stored scoring outcome for a candidate.
type Assessment struct {
	ID          string    `json:"id"`
	CandidateID string    `json:"candidate_id"`
	JobID       string    `json:"job_id,omitempty"`
	Criteria    string    `json:"criteria"`
	Score       float64   `json:"score"`
	Eligible    bool      `json:"eligible"`
	Verdict     string    `json:"verdict"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store provides access to the records the scoring service reads and writes.
type Store interface {
	PutCandidate(ctx context.Context, p model.CandidateProfile) (model.CandidateProfile, error)
	Candidate(ctx context.Context, id string) (model.CandidateProfile, error)

	PutCompany(ctx context.Context, c model.Company) (model.Company, error)
	Company(ctx context.Context, id string) (model.Company, error)

	PutJob(ctx context.Context, j model.JobPosting) (model.JobPosting, error)
	Job(ctx context.Context, id string) (model.JobPosting, error)
	// Jobs returns every posting ordered by id.
	Jobs(ctx context.Context) ([]model.JobPosting, error)

	// SaveAssessment appends to the candidate's history.
	SaveAssessment(ctx context.Context, a Assessment) (Assessment, error)
	// Assessments returns the candidate's history, newest first.
	Assessments(ctx context.Context, candidateID string) ([]Assessment, error)

	// Counts returns the number of stored records by kind.
	Counts(ctx context.Context) map[string]int
}

// MemoryStore is an in-process Store. Values are copied on the way in and out.
type MemoryStore struct {
	mu           sync.RWMutex
	candidates   map[string]model.CandidateProfile
	companies    map[string]model.Company
	jobs         map[string]model.JobPosting
	history      map[string][]Assessment // candidate id -> oldest first
	historyLimit int
	now          func() time.Time
	newID        func() string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		candidates:   make(map[string]model.CandidateProfile),
		companies:    make(map[string]model.Company),
		jobs:         make(map[string]model.JobPosting),
		history:      make(map[string][]Assessment),
		historyLimit: defaultHistoryLimit,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PutCandidate stores a copy of p, assigning an id when it has none.
func (s *MemoryStore) PutCandidate(_ context.Context, p model.CandidateProfile) (model.CandidateProfile, error) {
	p = p.Clone()
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		p.ID = s.newID()
	}

	s.mu.Lock()
	s.candidates[p.ID] = p
	n := len(s.candidates)
	s.mu.Unlock()

	metrics.UpdateRecords("candidates", n)
	return p.Clone(), nil
}

// Candidate returns a copy of the stored profile.
func (s *MemoryStore) Candidate(_ context.Context, id string) (model.CandidateProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.candidates[id]
	if !ok {
		return model.CandidateProfile{}, fmt.Errorf("candidate %q: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

// PutCompany stores c; a name is required.
func (s *MemoryStore) PutCompany(_ context.Context, c model.Company) (model.Company, error) {
	if strings.TrimSpace(c.Name) == "" {
		return model.Company{}, fmt.Errorf("%w: company name is required", ErrInvalidRecord)
	}
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		c.ID = s.newID()
	}

	s.mu.Lock()
	s.companies[c.ID] = c
	n := len(s.companies)
	s.mu.Unlock()

	metrics.UpdateRecords("companies", n)
	return c, nil
}

// Company returns the stored company.
func (s *MemoryStore) Company(_ context.Context, id string) (model.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return model.Company{}, fmt.Errorf("company %q: %w", id, ErrNotFound)
	}
	return c, nil
}

// PutJob requires a title and, when CompanyID is set, an existing company.
func (s *MemoryStore) PutJob(_ context.Context, j model.JobPosting) (model.JobPosting, error) {
	if strings.TrimSpace(j.Title) == "" {
		return model.JobPosting{}, fmt.Errorf("%w: job title is required", ErrInvalidRecord)
	}
	j = j.Clone()
	j.ID = strings.TrimSpace(j.ID)
	if j.ID == "" {
		j.ID = s.newID()
	}

	s.mu.Lock()
	if j.CompanyID != "" {
		if _, ok := s.companies[j.CompanyID]; !ok {
			s.mu.Unlock()
			return model.JobPosting{}, fmt.Errorf("%w: company %q does not exist", ErrInvalidRecord, j.CompanyID)
		}
	}
	s.jobs[j.ID] = j
	n := len(s.jobs)
	s.mu.Unlock()

	metrics.UpdateRecords("jobs", n)
	return j.Clone(), nil
}

// Job returns a copy of the stored posting.
func (s *MemoryStore) Job(_ context.Context, id string) (model.JobPosting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return model.JobPosting{}, fmt.Errorf("job %q: %w", id, ErrNotFound)
	}
	return j.Clone(), nil
}

// Jobs returns copies of every posting ordered by id.
func (s *MemoryStore) Jobs(_ context.Context) ([]model.JobPosting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.JobPosting, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Clone())
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

// SaveAssessment appends a to its candidate's history, keeping the newest entries.
func (s *MemoryStore) SaveAssessment(_ context.Context, a Assessment) (Assessment, error) {
	if a.CandidateID == "" {
		return Assessment{}, fmt.Errorf("%w: assessment needs a candidate id", ErrInvalidRecord)
	}
	if a.ID == "" {
		a.ID = s.newID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}

	s.mu.Lock()
	h := append(s.history[a.CandidateID], a)
	if len(h) > s.historyLimit {
		h = append([]Assessment(nil), h[len(h)-s.historyLimit:]...)
	}
	s.history[a.CandidateID] = h
	total := 0
	for _, v := range s.history {
		total += len(v)
	}
	s.mu.Unlock()

	metrics.UpdateRecords("assessments", total)
	return a, nil
}

// Assessments returns the candidate's history, newest first.
func (s *MemoryStore) Assessments(_ context.Context, candidateID string) ([]Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.candidates[candidateID]; !ok {
		if _, ok := s.history[candidateID]; !ok {
			return nil, fmt.Errorf("candidate %q: %w", candidateID, ErrNotFound)
		}
	}
	h := s.history[candidateID]
	out := make([]Assessment, len(h))
	for i, a := range h {
		out[len(h)-1-i] = a
	}
	return out, nil
}

// Counts returns record totals by kind.
func (s *MemoryStore) Counts(_ context.Context) map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, v := range s.history {
		total += len(v)
	}
	return map[string]int{
		"candidates":  len(s.candidates),
		"companies":   len(s.companies),
		"jobs":        len(s.jobs),
		"assessments": total,
	}
}

package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/placement/internal/domain/explain"
	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/scoring"
)

// DefaultRecommendations is how many jobs Recommend returns when asked for 0.
const DefaultRecommendations = 3

// Recommendation is an open job ranked for a candidate.
type Recommendation struct {
	Rank       int                 `json:"rank"`
	JobID      string              `json:"job_id"`
	Title      string              `json:"title"`
	CompanyID  string              `json:"company_id,omitempty"`
	Score      float64             `json:"score"`
	Eligible   bool                `json:"eligible"`
	Verdict    scoring.Verdict     `json:"verdict"`
	Violations []scoring.Violation `json:"violations,omitempty"`
}

// CareerMatch is a career path scored for a candidate.
type CareerMatch struct {
	Rank     int               `json:"rank"`
	Name     string            `json:"name"`
	Title    string            `json:"title"`
	Roles    []string          `json:"entry_roles"`
	Score    float64           `json:"score"`
	Verdict  scoring.Verdict   `json:"verdict"`
	Deficits []explain.Deficit `json:"deficits"`
}

// Recommend scores a stored candidate against every active job and returns
// the best topN: eligible jobs first, then by score, then by job id.
func (s *Service) Recommend(ctx context.Context, candidateID string, topN int) ([]Recommendation, error) {
	if topN < 0 {
		return nil, fmt.Errorf("%w: top_n must not be negative", model.ErrInvalidArgument)
	}
	if topN == 0 {
		topN = DefaultRecommendations
	}
	profile, err := s.records.Candidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	jobs, err := s.records.Jobs(ctx)
	if err != nil {
		return nil, err
	}
	_, warnings := s.normalizer.Normalize(profile)
	s.reportWarnings(ctx, warnings)

	out := make([]Recommendation, 0, len(jobs))
	for _, job := range jobs {
		if !job.Active {
			continue
		}
		res, _, err := s.matchJob(profile, job)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", job.ID, err)
		}
		out = append(out, Recommendation{
			JobID:      job.ID,
			Title:      job.Title,
			CompanyID:  job.CompanyID,
			Score:      res.Score,
			Eligible:   res.Eligible,
			Verdict:    res.Verdict,
			Violations: res.Violations,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Eligible != b.Eligible {
			return a.Eligible
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.JobID < b.JobID
	})
	if len(out) > topN {
		out = out[:topN]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// CareerPaths scores a stored candidate against every built-in career path,
// best first. topN bounds the deficits listed per path.
func (s *Service) CareerPaths(ctx context.Context, candidateID string, topN int) ([]CareerMatch, error) {
	profile, err := s.records.Candidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	_, warnings := s.normalizer.Normalize(profile)
	s.reportWarnings(ctx, warnings)

	paths := scoring.CareerPaths()
	out := make([]CareerMatch, 0, len(paths))
	for _, p := range paths {
		f, _ := s.normalizer.NormalizeForJob(profile, p.Posting())
		res, err := s.score(f, p.Criteria)
		if err != nil {
			return nil, fmt.Errorf("career path %q: %w", p.Name, err)
		}
		a, err := s.explain(res, nil, topN)
		if err != nil {
			return nil, err
		}
		out = append(out, CareerMatch{
			Name:     p.Name,
			Title:    p.Title,
			Roles:    p.Roles,
			Score:    res.Score,
			Verdict:  res.Verdict,
			Deficits: a.Deficits,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

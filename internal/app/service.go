// Package service wires normalization, scoring and explanation to the record
// store, the application queue and the job shortlists. It implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/placement/internal/adapters/mq/queue"
	"github.com/okian/placement/internal/adapters/mq/worker"
	"github.com/okian/placement/internal/adapters/records"
	"github.com/okian/placement/internal/adapters/repository"
	"github.com/okian/placement/internal/domain/dedupe"
	"github.com/okian/placement/internal/domain/explain"
	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/normalize"
	"github.com/okian/placement/internal/domain/scoring"
	"github.com/okian/placement/internal/domain/types"
	"github.com/okian/placement/pkg/logger"
	"github.com/okian/placement/pkg/metrics"
)

const (
	defaultQueueSize  = 10_000
	defaultDedupeSize = 100_000
)

// AssessRequest asks for a profile to be scored. Profile wins over a stored
// candidate; Criteria wins over Preset; with neither, placement-default applies.
type AssessRequest struct {
	CandidateID string                  `json:"candidate_id,omitempty"`
	Profile     *model.CandidateProfile `json:"profile,omitempty"`
	Preset      string                  `json:"preset,omitempty"`
	Criteria    *scoring.Criteria       `json:"criteria,omitempty"`
	TopN        int                     `json:"top_n,omitempty"`
}

// Assessment is a scored, explained profile.
type Assessment struct {
	ID          string              `json:"id,omitempty"`
	CandidateID string              `json:"candidate_id,omitempty"`
	JobID       string              `json:"job_id,omitempty"`
	Result      scoring.Result      `json:"result"`
	Warnings    []normalize.Warning `json:"warnings,omitempty"`
	Deficits    []explain.Deficit   `json:"deficits"`
	Advice      []string            `json:"advice"`
}

// EnqueueResult reports what happened to a submitted application.
type EnqueueResult struct {
	ApplicationID string `json:"application_id"`
	Duplicate     bool   `json:"duplicate"`
}

// Stats is a point-in-time view of the service.
type Stats struct {
	Started       bool           `json:"started"`
	WorkerCount   int            `json:"worker_count"`
	QueueCapacity int            `json:"queue_capacity"`
	QueueLength   int            `json:"queue_length"`
	DedupeSize    int64          `json:"dedupe_size"`
	Shortlists    int            `json:"shortlists"`
	Shortlisted   int            `json:"shortlisted"`
	Records       map[string]int `json:"records"`
	Presets       []string       `json:"presets"`
}

// Service implements the API dependencies for the scoring engine.
type Service struct {
	mu sync.RWMutex

	records    records.Store
	deduper    dedupe.Deduper
	normalizer *normalize.Normalizer
	presets    *scoring.Presets
	scorer     scoring.Scorer

	shortlist *repository.TreapStore
	queue     *queue.InMemoryQueue
	pool      *worker.Pool

	workerCount int
	queueSize   int
	defaultTopN int

	started bool
	cancel  context.CancelFunc
	logger  logger.Logger
}

// New constructs a Service. Anything not supplied by options gets an
// in-memory default.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   defaultQueueSize,
		defaultTopN: explain.DefaultTopN,
		scorer:      scoring.Engine{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.records == nil {
		s.records = records.NewMemoryStore()
	}
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(defaultDedupeSize))
	}
	if s.normalizer == nil {
		// Defaults are valid by construction.
		s.normalizer, _ = normalize.New()
	}
	if s.presets == nil {
		s.presets = scoring.NewPresets()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start creates the shortlist store and queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	// Workers outlive ctx so that Stop can drain accepted applications.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.shortlist = repository.NewTreapStore(runCtx)
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s, s.shortlist)
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Any("presets", s.presets.Names()),
	)
	return nil
}

// Stop drains the queue, stops the workers and releases the deduper. The
// shortlists stay readable after Stop.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping scoring service")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if left := s.queue.Len(ctx); left > 0 {
		s.logger.Warn(ctx, "applications dropped at shutdown", logger.Int("count", left))
	}
	s.cancel()
	if err := s.shortlist.Close(); err != nil {
		errs = append(errs, err)
	}
	if c, ok := s.deduper.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close deduper: %w", err))
		}
	}
	s.started = false
	return errors.Join(errs...)
}

// Assess normalizes, scores and explains a profile. When the request names a
// candidate the outcome is added to that candidate's history.
func (s *Service) Assess(ctx context.Context, req AssessRequest) (Assessment, error) {
	if req.Preset != "" && req.Criteria != nil {
		return Assessment{}, fmt.Errorf("%w: give either preset or criteria, not both", model.ErrInvalidArgument)
	}
	profile, err := s.profileFor(ctx, req)
	if err != nil {
		return Assessment{}, err
	}
	criteria, err := s.criteriaFor(req)
	if err != nil {
		recordCriteriaError(err)
		return Assessment{}, err
	}

	features, warnings := s.normalizer.Normalize(profile)
	s.reportWarnings(ctx, warnings)
	res, err := s.score(features, criteria)
	if err != nil {
		return Assessment{}, err
	}
	a, err := s.explain(res, warnings, req.TopN)
	if err != nil {
		return Assessment{}, err
	}
	a.CandidateID = req.CandidateID
	if req.CandidateID != "" {
		return s.record(ctx, a)
	}
	return a, nil
}

// Match assesses a stored candidate against a stored job's criteria.
func (s *Service) Match(ctx context.Context, candidateID, jobID string, topN int) (Assessment, error) {
	profile, err := s.records.Candidate(ctx, candidateID)
	if err != nil {
		return Assessment{}, err
	}
	job, err := s.records.Job(ctx, jobID)
	if err != nil {
		return Assessment{}, err
	}
	res, warnings, err := s.matchJob(profile, job)
	if err != nil {
		return Assessment{}, err
	}
	s.reportWarnings(ctx, warnings)
	a, err := s.explain(res, warnings, topN)
	if err != nil {
		return Assessment{}, err
	}
	a.CandidateID = candidateID
	a.JobID = jobID
	return s.record(ctx, a)
}

// JobCriteria returns job-fit-default with the job's own weights, if any,
// and thresholds derived from its requirements.
func (s *Service) JobCriteria(job model.JobPosting) (scoring.Criteria, error) {
	c, _, err := s.jobCriteria(job)
	return c, err
}

func (s *Service) jobCriteria(job model.JobPosting) (scoring.Criteria, []normalize.Warning, error) {
	c, err := s.presets.Lookup(scoring.JobFitDefault)
	if err != nil {
		return scoring.Criteria{}, nil, err
	}
	if len(job.Weights) > 0 {
		c.Name = scoring.JobFitDefault + ":" + job.ID
		c.Weights = make(map[model.Factor]float64, len(job.Weights))
		for k, v := range job.Weights {
			c.Weights[k] = v
		}
	}
	thresholds, warnings := s.normalizer.Thresholds(job)
	if len(thresholds) > 0 && c.MinimumThresholds == nil {
		c.MinimumThresholds = make(map[model.Factor]float64, len(thresholds))
	}
	for k, v := range thresholds {
		c.MinimumThresholds[k] = v
	}
	return c, warnings, nil
}

// matchJob scores profile against job and enforces the raw backlog limit.
// Threshold warnings follow the profile's warnings.
func (s *Service) matchJob(profile model.CandidateProfile, job model.JobPosting) (scoring.Result, []normalize.Warning, error) {
	criteria, tw, err := s.jobCriteria(job)
	if err != nil {
		return scoring.Result{}, nil, err
	}
	features, warnings := s.normalizer.NormalizeForJob(profile, job)
	warnings = append(warnings, tw...)
	res, err := s.score(features, criteria)
	if err != nil {
		return scoring.Result{}, nil, err
	}
	enforceBacklogLimit(&res, profile, job, features[model.FactorBacklogs], criteria.MinimumThresholds[model.FactorBacklogs])
	return res, warnings, nil
}

// enforceBacklogLimit compares raw backlog counts. The normalized factor
// bottoms out at 0, so a generous limit cannot be expressed as a threshold.
func enforceBacklogLimit(res *scoring.Result, p model.CandidateProfile, job model.JobPosting, value, threshold float64) {
	if job.MaxBacklogs == nil || max(p.Backlogs, 0) <= max(*job.MaxBacklogs, 0) {
		return
	}
	res.Eligible = false
	for _, v := range res.Violations {
		if v.Factor == model.FactorBacklogs {
			return
		}
	}
	res.Violations = append(res.Violations, scoring.Violation{Factor: model.FactorBacklogs, Value: value, Threshold: threshold})
	sort.Slice(res.Violations, func(i, j int) bool { return res.Violations[i].Factor < res.Violations[j].Factor })
}

// Screen implements worker.Screener.
func (s *Service) Screen(ctx context.Context, app model.Application) (types.Entry, error) {
	a, err := s.Match(ctx, app.CandidateID, app.JobID, s.defaultTopN)
	if err != nil {
		return types.Entry{}, err
	}
	return types.Entry{
		CandidateID:   app.CandidateID,
		Score:         a.Result.Score,
		Eligible:      a.Result.Eligible,
		Verdict:       string(a.Result.Verdict),
		ApplicationID: app.ApplicationID,
	}, nil
}

// Enqueue accepts an application for asynchronous screening. A repeated
// application id is reported as a duplicate and not queued again.
func (s *Service) Enqueue(ctx context.Context, app model.Application) (EnqueueResult, error) {
	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return EnqueueResult{}, ErrNotStarted
	}

	app.ApplicationID = strings.TrimSpace(app.ApplicationID)
	if app.ApplicationID == "" {
		app.ApplicationID = uuid.NewString()
	}
	if app.TS.IsZero() {
		app.TS = time.Now()
	}
	if _, err := s.records.Candidate(ctx, app.CandidateID); err != nil {
		return EnqueueResult{}, err
	}
	job, err := s.records.Job(ctx, app.JobID)
	if err != nil {
		return EnqueueResult{}, err
	}
	if !job.Active {
		return EnqueueResult{}, fmt.Errorf("job %q: %w", app.JobID, ErrJobClosed)
	}

	res := EnqueueResult{ApplicationID: app.ApplicationID}
	seen, err := s.deduper.SeenAndRecord(ctx, app.ApplicationID)
	if err != nil {
		return EnqueueResult{}, fmt.Errorf("dedupe %s: %w", app.ApplicationID, err)
	}
	if seen {
		metrics.RecordApplicationDuplicate()
		s.logger.Debug(ctx, "duplicate application", logger.String("application_id", app.ApplicationID))
		res.Duplicate = true
		return res, nil
	}

	if err := q.Enqueue(ctx, app); err != nil {
		// Forget the id so the client can retry after backpressure.
		if uerr := s.deduper.Unrecord(ctx, app.ApplicationID); uerr != nil {
			s.logger.Warn(ctx, "unrecord failed", logger.String("application_id", app.ApplicationID), logger.Error(uerr))
		}
		return EnqueueResult{}, err
	}
	metrics.RecordApplicationAccepted()
	return res, nil
}

// Shortlist returns up to limit screened candidates for a job.
func (s *Service) Shortlist(ctx context.Context, jobID string, limit int, eligibleOnly bool) ([]types.Entry, error) {
	if _, err := s.records.Job(ctx, jobID); err != nil {
		return nil, err
	}
	sl, err := s.shortlistStore()
	if err != nil {
		return nil, err
	}
	return sl.TopN(ctx, jobID, limit, eligibleOnly)
}

// Rank returns a candidate's position on a job's shortlist.
func (s *Service) Rank(ctx context.Context, jobID, candidateID string) (types.Entry, error) {
	sl, err := s.shortlistStore()
	if err != nil {
		return types.Entry{}, err
	}
	return sl.Rank(ctx, jobID, candidateID)
}

// Presets returns every preset in name order.
func (s *Service) Presets() []scoring.Criteria {
	names := s.presets.Names()
	out := make([]scoring.Criteria, 0, len(names))
	for _, name := range names {
		if c, err := s.presets.Lookup(name); err == nil {
			out = append(out, c)
		}
	}
	return out
}

// Preset returns one preset by name.
func (s *Service) Preset(name string) (scoring.Criteria, error) {
	return s.presets.Lookup(name)
}

// Factors returns the factors assessments can reference.
func (s *Service) Factors() []model.Factor {
	return s.normalizer.Factors()
}

// PutCandidate stores a candidate profile.
func (s *Service) PutCandidate(ctx context.Context, p model.CandidateProfile) (model.CandidateProfile, error) {
	return s.records.PutCandidate(ctx, p)
}

// Candidate returns a stored candidate profile.
func (s *Service) Candidate(ctx context.Context, id string) (model.CandidateProfile, error) {
	return s.records.Candidate(ctx, id)
}

// PutCompany stores a company.
func (s *Service) PutCompany(ctx context.Context, c model.Company) (model.Company, error) {
	return s.records.PutCompany(ctx, c)
}

// Company returns a stored company.
func (s *Service) Company(ctx context.Context, id string) (model.Company, error) {
	return s.records.Company(ctx, id)
}

// PutJob stores a posting after checking its weights reference known factors.
func (s *Service) PutJob(ctx context.Context, j model.JobPosting) (model.JobPosting, error) {
	if len(j.Weights) > 0 {
		c := scoring.Criteria{Name: "job:" + j.Title, Weights: j.Weights}
		if err := c.Validate(s.normalizer.Factors()); err != nil {
			recordCriteriaError(err)
			return model.JobPosting{}, err
		}
	}
	return s.records.PutJob(ctx, j)
}

// Job returns a stored job posting.
func (s *Service) Job(ctx context.Context, id string) (model.JobPosting, error) {
	return s.records.Job(ctx, id)
}

// Assessments returns a candidate's assessment history, newest first.
func (s *Service) Assessments(ctx context.Context, candidateID string) ([]records.Assessment, error) {
	return s.records.Assessments(ctx, candidateID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:     s.started,
		WorkerCount: s.workerCount,
		DedupeSize:  s.deduper.Size(),
		Records:     s.records.Counts(ctx),
		Presets:     s.presets.Names(),
	}
	if s.started {
		st.QueueCapacity = s.queue.Capacity()
		st.QueueLength = s.queue.Len(ctx)
		st.Shortlisted, st.Shortlists = s.shortlist.Totals()
		metrics.UpdateShortlistTotals(st.Shortlisted, st.Shortlists)
	}
	return st
}

// Size returns the number of application ids the deduper remembers.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

func (s *Service) shortlistStore() (*repository.TreapStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.shortlist == nil {
		return nil, ErrNotStarted
	}
	return s.shortlist, nil
}

func (s *Service) profileFor(ctx context.Context, req AssessRequest) (model.CandidateProfile, error) {
	if req.Profile != nil {
		return *req.Profile, nil
	}
	if req.CandidateID == "" {
		return model.CandidateProfile{}, fmt.Errorf("%w: profile or candidate_id is required", model.ErrInvalidArgument)
	}
	return s.records.Candidate(ctx, req.CandidateID)
}

func (s *Service) criteriaFor(req AssessRequest) (scoring.Criteria, error) {
	switch {
	case req.Criteria != nil:
		c := req.Criteria.Clone()
		if c.Name == "" {
			c.Name = "custom"
		}
		return c, nil
	case req.Preset != "":
		return s.presets.Lookup(req.Preset)
	default:
		return s.presets.Lookup(scoring.PlacementDefault)
	}
}

func (s *Service) reportWarnings(ctx context.Context, warnings []normalize.Warning) {
	for _, w := range warnings {
		metrics.RecordClampWarning(warningLabel(w.Field))
		s.logger.Warn(ctx, "input clamped",
			logger.String("field", w.Field),
			logger.Float64("raw", w.Raw),
			logger.Float64("clamped", w.Clamped),
			logger.String("reason", w.Reason),
		)
	}
}

func (s *Service) score(f model.Features, c scoring.Criteria) (scoring.Result, error) {
	start := time.Now()
	res, err := s.scorer.Score(f, c)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		recordCriteriaError(err)
		return scoring.Result{}, err
	}
	return res, nil
}

func (s *Service) explain(res scoring.Result, warnings []normalize.Warning, topN int) (Assessment, error) {
	if topN == 0 {
		topN = s.defaultTopN
	}
	deficits, err := explain.Explain(res, topN)
	if err != nil {
		return Assessment{}, err
	}
	metrics.RecordAssessment(s.criteriaLabel(res.Criteria), string(res.Verdict), res.Eligible)

	return Assessment{
		Result:   res,
		Warnings: warnings,
		Deficits: deficits,
		Advice:   explain.Advice(res.Verdict),
	}, nil
}

// criteriaLabel keeps metric labels to presets, career paths, "job-fit" and
// "custom".
func (s *Service) criteriaLabel(name string) string {
	switch {
	case strings.HasPrefix(name, scoring.JobFitDefault+":"):
		return "job-fit"
	case scoring.IsCareerPath(name):
		return name
	}
	if _, err := s.presets.Lookup(name); err == nil {
		return name
	}
	return "custom"
}

// warningLabel drops the skill name from skill warnings.
func warningLabel(field string) string {
	base, _, _ := strings.Cut(field, ".")
	return base
}

func recordCriteriaError(err error) {
	var kind string
	switch {
	case errors.Is(err, scoring.ErrUnknownFactor):
		kind = "unknown_factor"
	case errors.Is(err, scoring.ErrEmptyCriteria):
		kind = "empty_criteria"
	case errors.Is(err, scoring.ErrUnknownPreset):
		kind = "unknown_preset"
	case errors.Is(err, scoring.ErrInvalidArgument):
		kind = "invalid_argument"
	default:
		return
	}
	metrics.RecordConfigurationError(kind)
}

func (s *Service) record(ctx context.Context, a Assessment) (Assessment, error) {
	saved, err := s.records.SaveAssessment(ctx, records.Assessment{
		CandidateID: a.CandidateID,
		JobID:       a.JobID,
		Criteria:    a.Result.Criteria,
		Score:       a.Result.Score,
		Eligible:    a.Result.Eligible,
		Verdict:     string(a.Result.Verdict),
	})
	if err != nil {
		return Assessment{}, err
	}
	a.ID = saved.ID
	return a, nil
}

package service_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/placement/internal/adapters/records"
	"github.com/okian/placement/internal/config"
	service "github.com/okian/placement/internal/app"
	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/scoring"
	"github.com/okian/placement/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func strongProfile() model.CandidateProfile {
	return model.CandidateProfile{
		CGPA:            8.5,
		Backlogs:        0,
		InternshipCount: 2,
		AptitudeScore:   75,
	}
}

func TestService_Assess(t *testing.T) {
	Convey("Given a service with default presets", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("When assessing a profile with ad hoc criteria", func() {
			p := strongProfile()
			a, err := svc.Assess(ctx, service.AssessRequest{
				Profile: &p,
				Criteria: &scoring.Criteria{Weights: map[model.Factor]float64{
					model.FactorCGPA:        0.3,
					model.FactorBacklogs:    0.2,
					model.FactorInternships: 0.2,
					model.FactorAptitude:    0.3,
				}},
				TopN: 2,
			})

			Convey("Then the weighted score and explanation are returned", func() {
				So(err, ShouldBeNil)
				So(a.Result.Score, ShouldAlmostEqual, 81.3333, 0.001)
				So(a.Result.Verdict, ShouldEqual, scoring.VerdictHigh)
				So(a.Result.Eligible, ShouldBeTrue)
				So(a.Result.Criteria, ShouldEqual, "custom")
				So(a.Deficits, ShouldHaveLength, 2)
				So(a.Deficits[0].Factor, ShouldEqual, model.FactorAptitude)
				So(a.Advice, ShouldNotBeEmpty)
				So(a.ID, ShouldBeEmpty)
			})
		})

		Convey("When no preset or criteria is given", func() {
			p := strongProfile()
			a, err := svc.Assess(ctx, service.AssessRequest{Profile: &p})

			Convey("Then placement-default is used with the default top-n", func() {
				So(err, ShouldBeNil)
				So(a.Result.Criteria, ShouldEqual, scoring.PlacementDefault)
				So(a.Deficits, ShouldHaveLength, 3)
			})
		})

		Convey("When inputs are out of range", func() {
			p := strongProfile()
			p.CGPA = 12
			a, err := svc.Assess(ctx, service.AssessRequest{Profile: &p})

			Convey("Then they are clamped and reported", func() {
				So(err, ShouldBeNil)
				So(a.Warnings, ShouldNotBeEmpty)
				So(a.Warnings[0].Field, ShouldEqual, "cgpa")
			})
		})

		Convey("When the request is malformed", func() {
			p := strongProfile()

			_, errBoth := svc.Assess(ctx, service.AssessRequest{Profile: &p, Preset: scoring.PlacementDefault, Criteria: &scoring.Criteria{}})
			_, errNone := svc.Assess(ctx, service.AssessRequest{})
			_, errPreset := svc.Assess(ctx, service.AssessRequest{Profile: &p, Preset: "nope"})
			_, errFactor := svc.Assess(ctx, service.AssessRequest{Profile: &p, Criteria: &scoring.Criteria{
				Weights: map[model.Factor]float64{"charisma": 1},
			}})
			_, errTopN := svc.Assess(ctx, service.AssessRequest{Profile: &p, TopN: -1})

			Convey("Then each failure carries its kind", func() {
				So(errors.Is(errBoth, model.ErrInvalidArgument), ShouldBeTrue)
				So(errors.Is(errNone, model.ErrInvalidArgument), ShouldBeTrue)
				So(errors.Is(errPreset, scoring.ErrUnknownPreset), ShouldBeTrue)
				So(errors.Is(errFactor, scoring.ErrUnknownFactor), ShouldBeTrue)
				So(errors.Is(errTopN, model.ErrInvalidArgument), ShouldBeTrue)
			})
		})

		Convey("When assessing a stored candidate", func() {
			p := strongProfile()
			p.ID = "cand-1"
			_, err := svc.PutCandidate(ctx, p)
			So(err, ShouldBeNil)

			a, err := svc.Assess(ctx, service.AssessRequest{CandidateID: "cand-1", Preset: scoring.PlacementDefault})
			So(err, ShouldBeNil)

			Convey("Then the outcome is added to the candidate's history", func() {
				So(a.ID, ShouldNotBeEmpty)
				h, err := svc.Assessments(ctx, "cand-1")
				So(err, ShouldBeNil)
				So(h, ShouldHaveLength, 1)
				So(h[0].Score, ShouldEqual, a.Result.Score)
				So(h[0].Criteria, ShouldEqual, scoring.PlacementDefault)
			})
		})
	})
}

func TestService_Match(t *testing.T) {
	Convey("Given a stored candidate and job", t, func() {
		svc := service.New()
		ctx := context.Background()

		_, err := svc.PutCandidate(ctx, model.CandidateProfile{
			ID:   "c1",
			CGPA: 6.5,
			SkillLevels: map[string]model.SkillLevel{
				"Go":  model.Advanced,
				"SQL": model.Intermediate,
			},
		})
		So(err, ShouldBeNil)
		_, err = svc.PutJob(ctx, model.JobPosting{
			ID:             "j1",
			Title:          "Backend Engineer",
			MinCGPA:        7.0,
			RequiredSkills: []string{"go", "sql"},
			Active:         true,
		})
		So(err, ShouldBeNil)

		Convey("When matching the candidate to the job", func() {
			a, err := svc.Match(ctx, "c1", "j1", 0)

			Convey("Then job thresholds decide eligibility", func() {
				So(err, ShouldBeNil)
				So(a.JobID, ShouldEqual, "j1")
				So(a.Result.Criteria, ShouldEqual, scoring.JobFitDefault)
				So(a.Result.Eligible, ShouldBeFalse)
				So(a.Result.Violations, ShouldHaveLength, 1)
				So(a.Result.Violations[0].Factor, ShouldEqual, model.FactorCGPA)
				So(a.Result.Violations[0].Threshold, ShouldAlmostEqual, 0.7, 1e-9)
			})

			Convey("And required skills are scored from the candidate's levels", func() {
				for _, fc := range a.Result.FactorContributions {
					if fc.Factor == model.FactorRequiredSkills {
						So(fc.Value, ShouldAlmostEqual, 0.83, 1e-9)
					}
				}
			})
		})

		Convey("When the job carries its own weights", func() {
			_, err := svc.PutJob(ctx, model.JobPosting{
				ID:      "j2",
				Title:   "Data Analyst",
				Weights: map[model.Factor]float64{model.FactorRequiredSkills: 1},
				Active:  true,
			})
			So(err, ShouldBeNil)
			a, err := svc.Match(ctx, "c1", "j2", 1)

			Convey("Then only those weights apply", func() {
				So(err, ShouldBeNil)
				So(a.Result.Criteria, ShouldEqual, "job-fit-default:j2")
				So(a.Result.Score, ShouldAlmostEqual, 83, 1e-9)
			})
		})

		Convey("When a job names an unknown factor", func() {
			_, err := svc.PutJob(ctx, model.JobPosting{
				Title:   "Bad",
				Weights: map[model.Factor]float64{"luck": 1},
			})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, scoring.ErrUnknownFactor), ShouldBeTrue)
			})
		})

		Convey("When the candidate or job is missing", func() {
			_, errC := svc.Match(ctx, "nobody", "j1", 0)
			_, errJ := svc.Match(ctx, "c1", "nothing", 0)

			Convey("Then not found is returned", func() {
				So(errors.Is(errC, records.ErrNotFound), ShouldBeTrue)
				So(errors.Is(errJ, records.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_FromConfig(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := config.New()

		Convey("When a preset is added", func() {
			cfg.Presets = map[string]config.PresetConfig{
				"academics-only": {Weights: map[string]float64{"cgpa": 1}, MinimumThresholds: map[string]float64{"cgpa": 0.6}},
			}
			svc, err := service.FromConfig(cfg)

			Convey("Then it is available next to the built-ins", func() {
				So(err, ShouldBeNil)
				c, err := svc.Preset("academics-only")
				So(err, ShouldBeNil)
				So(c.MinimumThresholds[model.FactorCGPA], ShouldEqual, 0.6)
				So(svc.Presets(), ShouldHaveLength, 4)
			})
		})

		Convey("When a preset names an unknown factor", func() {
			cfg.Presets = map[string]config.PresetConfig{"broken": {Weights: map[string]float64{"height": 1}}}
			_, err := service.FromConfig(cfg)

			Convey("Then configuration fails", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
				So(errors.Is(err, scoring.ErrUnknownFactor), ShouldBeTrue)
			})
		})

		Convey("When a cap is not a count factor", func() {
			cfg.FactorCaps = map[string]float64{"cgpa": 4}
			_, err := service.FromConfig(cfg)

			Convey("Then configuration fails", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the backlog penalty is out of range", func() {
			cfg.PenaltyPerBacklog = 1.5
			_, err := service.FromConfig(cfg)

			Convey("Then configuration fails", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
				So(errors.Is(err, model.ErrInvalidArgument), ShouldBeTrue)
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats(context.Background())

			Convey("Then it reports records and presets but no queue", func() {
				So(stats.Started, ShouldBeFalse)
				So(stats.QueueCapacity, ShouldEqual, 0)
				So(stats.Presets, ShouldResemble, []string{scoring.JobFitDefault, scoring.PlacementDefault, scoring.PMReadinessDefault})
				So(stats.Records["candidates"], ShouldEqual, 0)
			})
		})
	})
}

package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/placement/internal/adapters/http/api"
	"github.com/okian/placement/internal/adapters/mq/queue"
	service "github.com/okian/placement/internal/app"
	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fullQueue reports backpressure for every application.
type fullQueue struct {
	*service.Service
}

func (fullQueue) Enqueue(context.Context, model.Application) (service.EnqueueResult, error) {
	return service.EnqueueResult{}, queue.ErrQueueFull
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder, v any) {
	So(json.Unmarshal(w.Body.Bytes(), v), ShouldBeNil)
}

func TestServer_Routes(t *testing.T) {
	Convey("Given an API server over a started service", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		svc := service.New(service.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		mux := http.NewServeMux()
		api.NewServer(svc, svc, api.WithMaxLimit(50)).Register(ctx, mux)

		Convey("When scoring an ad hoc profile", func() {
			w := do(mux, http.MethodPost, "/assess", `{
				"profile": {"cgpa": 8.5, "backlogs": 0, "internship_count": 2, "aptitude_score": 75},
				"criteria": {"weights": {"cgpa": 0.3, "backlogs": 0.2, "internships": 0.2, "aptitude": 0.3}},
				"top_n": 1
			}`)

			Convey("Then the assessment is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
				var a service.Assessment
				decodeBody(w, &a)
				So(a.Result.Score, ShouldAlmostEqual, 81.3333, 0.001)
				So(string(a.Result.Verdict), ShouldEqual, "High")
				So(a.Deficits, ShouldHaveLength, 1)
			})
		})

		Convey("When the request is invalid", func() {
			badJSON := do(mux, http.MethodPost, "/assess", `{"profile":`)
			unknownField := do(mux, http.MethodPost, "/assess", `{"profile":{"cgpa":8},"shoe_size":9}`)
			unknownFactor := do(mux, http.MethodPost, "/assess", `{"profile":{"cgpa":8},"criteria":{"weights":{"height":1}}}`)
			emptyCriteria := do(mux, http.MethodPost, "/assess", `{"profile":{"cgpa":8},"criteria":{"weights":{}}}`)
			unknownPreset := do(mux, http.MethodPost, "/assess", `{"profile":{"cgpa":8},"preset":"nope"}`)

			Convey("Then each maps to its status", func() {
				So(badJSON.Code, ShouldEqual, http.StatusBadRequest)
				So(unknownField.Code, ShouldEqual, http.StatusBadRequest)
				So(unknownFactor.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(emptyCriteria.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(unknownPreset.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When listing presets", func() {
			list := do(mux, http.MethodGet, "/presets", "")
			one := do(mux, http.MethodGet, "/presets/pm-readiness-default", "")
			missing := do(mux, http.MethodGet, "/presets/other", "")

			Convey("Then built-ins are served by name", func() {
				So(list.Code, ShouldEqual, http.StatusOK)
				var names []map[string]any
				decodeBody(list, &names)
				So(names, ShouldHaveLength, 3)
				So(one.Code, ShouldEqual, http.StatusOK)
				So(one.Body.String(), ShouldContainSubstring, "skills_product")
				So(missing.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When records are created and an application is screened", func() {
			So(do(mux, http.MethodPost, "/companies", `{"id":"acme","name":"Acme"}`).Code, ShouldEqual, http.StatusCreated)
			So(do(mux, http.MethodPost, "/jobs", `{"id":"be","company_id":"acme","title":"Backend","min_cgpa":7,"required_skills":["Go"]}`).Code, ShouldEqual, http.StatusCreated)
			So(do(mux, http.MethodPost, "/candidates", `{"id":"c1","cgpa":8.2,"skill_levels":{"Go":"Advanced"}}`).Code, ShouldEqual, http.StatusCreated)

			accepted := do(mux, http.MethodPost, "/applications", `{"application_id":"a1","candidate_id":"c1","job_id":"be"}`)
			duplicate := do(mux, http.MethodPost, "/applications", `{"application_id":"a1","candidate_id":"c1","job_id":"be"}`)

			var shortlist []map[string]any
			deadline := time.Now().Add(5 * time.Second)
			for len(shortlist) == 0 && time.Now().Before(deadline) {
				w := do(mux, http.MethodGet, "/jobs/be/shortlist?limit=5", "")
				_ = json.Unmarshal(w.Body.Bytes(), &shortlist)
				time.Sleep(10 * time.Millisecond)
			}

			Convey("Then intake, shortlist and rank agree", func() {
				So(accepted.Code, ShouldEqual, http.StatusAccepted)
				So(duplicate.Code, ShouldEqual, http.StatusOK)
				So(duplicate.Body.String(), ShouldContainSubstring, `"duplicate":true`)

				So(shortlist, ShouldHaveLength, 1)
				So(shortlist[0]["candidate_id"], ShouldEqual, "c1")
				So(shortlist[0]["eligible"], ShouldEqual, true)

				rank := do(mux, http.MethodGet, "/jobs/be/rank/c1", "")
				So(rank.Code, ShouldEqual, http.StatusOK)
				So(rank.Body.String(), ShouldContainSubstring, `"rank":1`)

				So(do(mux, http.MethodGet, "/jobs/be/rank/nobody", "").Code, ShouldEqual, http.StatusNotFound)
				So(do(mux, http.MethodGet, "/candidates/c1/assessments", "").Code, ShouldEqual, http.StatusOK)
			})

			Convey("And match explains the fit directly", func() {
				w := do(mux, http.MethodGet, "/jobs/be/match/c1?top_n=2", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				var a service.Assessment
				decodeBody(w, &a)
				So(a.JobID, ShouldEqual, "be")
				So(a.Result.Eligible, ShouldBeTrue)
				So(a.Deficits, ShouldHaveLength, 2)

				So(do(mux, http.MethodGet, "/jobs/be/match/c1?top_n=zero", "").Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("And records read back", func() {
				So(do(mux, http.MethodGet, "/jobs/be", "").Body.String(), ShouldContainSubstring, `"active":true`)
				So(do(mux, http.MethodGet, "/companies/acme", "").Code, ShouldEqual, http.StatusOK)
				So(do(mux, http.MethodGet, "/candidates/c1", "").Code, ShouldEqual, http.StatusOK)
				So(do(mux, http.MethodGet, "/candidates/nobody", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When shortlist parameters are out of range", func() {
			So(do(mux, http.MethodPost, "/jobs", `{"id":"j","title":"T"}`).Code, ShouldEqual, http.StatusCreated)

			Convey("Then they are rejected", func() {
				So(do(mux, http.MethodGet, "/jobs/j/shortlist?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
				So(do(mux, http.MethodGet, "/jobs/j/shortlist?limit=51", "").Code, ShouldEqual, http.StatusBadRequest)
				So(do(mux, http.MethodGet, "/jobs/missing/shortlist", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When a candidate asks which jobs and careers fit", func() {
			So(do(mux, http.MethodPost, "/jobs", `{"id":"be","title":"Backend","min_cgpa":7,"required_skills":["Go"]}`).Code, ShouldEqual, http.StatusCreated)
			So(do(mux, http.MethodPost, "/jobs", `{"id":"pm","title":"Product","required_skills":["Roadmapping"]}`).Code, ShouldEqual, http.StatusCreated)
			So(do(mux, http.MethodPost, "/jobs", `{"id":"old","title":"Filled","active":false}`).Code, ShouldEqual, http.StatusCreated)
			So(do(mux, http.MethodPost, "/candidates", `{"id":"c3","cgpa":8.2,"skill_levels":{"Go":"Advanced"}}`).Code, ShouldEqual, http.StatusCreated)

			recs := do(mux, http.MethodGet, "/candidates/c3/recommendations", "")
			careers := do(mux, http.MethodGet, "/candidates/c3/career-paths?top_n=1", "")

			Convey("Then open jobs are ranked best first", func() {
				So(recs.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Recommendations []service.Recommendation `json:"recommendations"`
				}
				decodeBody(recs, &body)
				So(body.Recommendations, ShouldHaveLength, 2)
				So(body.Recommendations[0].JobID, ShouldEqual, "be")
				So(body.Recommendations[0].Rank, ShouldEqual, 1)
				So(body.Recommendations[1].JobID, ShouldEqual, "pm")

				So(do(mux, http.MethodGet, "/candidates/c3/recommendations?top_n=1", "").Body.String(), ShouldNotContainSubstring, `"pm"`)
				So(do(mux, http.MethodGet, "/candidates/c3/recommendations?top_n=zero", "").Code, ShouldEqual, http.StatusBadRequest)
				So(do(mux, http.MethodGet, "/candidates/nobody/recommendations", "").Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And every career path is scored", func() {
				So(careers.Code, ShouldEqual, http.StatusOK)
				var body struct {
					CareerPaths []service.CareerMatch `json:"career_paths"`
				}
				decodeBody(careers, &body)
				So(body.CareerPaths, ShouldHaveLength, 3)
				So(body.CareerPaths[0].Rank, ShouldEqual, 1)
				So(body.CareerPaths[0].Deficits, ShouldHaveLength, 1)
				So(do(mux, http.MethodGet, "/candidates/nobody/career-paths", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When an application is incomplete or targets a closed job", func() {
			So(do(mux, http.MethodPost, "/jobs", `{"id":"closed","title":"T","active":false}`).Code, ShouldEqual, http.StatusCreated)
			So(do(mux, http.MethodPost, "/candidates", `{"id":"c2","cgpa":7}`).Code, ShouldEqual, http.StatusCreated)

			Convey("Then it is refused", func() {
				So(do(mux, http.MethodPost, "/applications", `{"candidate_id":"c2"}`).Code, ShouldEqual, http.StatusBadRequest)
				So(do(mux, http.MethodPost, "/applications", `{"candidate_id":"c2","job_id":"closed"}`).Code, ShouldEqual, http.StatusConflict)
				So(do(mux, http.MethodPost, "/applications", `{"candidate_id":"c2","job_id":"closed","ts":"yesterday"}`).Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When health and stats are requested", func() {
			health := do(mux, http.MethodGet, "/healthz", "")
			stats := do(mux, http.MethodGet, "/stats", "")

			Convey("Then metrics and service stats are served", func() {
				So(health.Code, ShouldEqual, http.StatusOK)
				So(health.Body.String(), ShouldContainSubstring, "placement_")
				So(stats.Code, ShouldEqual, http.StatusOK)
				So(stats.Body.String(), ShouldContainSubstring, `"started":true`)
			})
		})

		Convey("When a route is called with the wrong method", func() {
			Convey("Then the mux rejects it", func() {
				So(do(mux, http.MethodDelete, "/assess", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(do(mux, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestServer_Backpressure(t *testing.T) {
	Convey("Given a server whose queue is full", t, func() {
		svc := service.New()
		mux := http.NewServeMux()
		api.NewServer(fullQueue{svc}, svc).Register(context.Background(), mux)

		Convey("When an application is posted", func() {
			w := do(mux, http.MethodPost, "/applications", `{"application_id":"x","candidate_id":"c","job_id":"j"}`)

			Convey("Then 429 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(w.Body.String(), ShouldContainSubstring, "backpressure")
			})
		})
	})

	Convey("Given a server with a strict intake rate", t, func() {
		svc := service.New()
		mux := http.NewServeMux()
		api.NewServer(fullQueue{svc}, svc, api.WithRateLimit(0.001, 1)).Register(context.Background(), mux)

		Convey("When two applications arrive back to back", func() {
			_ = do(mux, http.MethodPost, "/applications", `{"candidate_id":"c","job_id":"j"}`)
			w := do(mux, http.MethodPost, "/applications", `{"candidate_id":"c","job_id":"j"}`)

			Convey("Then the second is rate limited", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(w.Body.String(), ShouldContainSubstring, "rate_limited")
				So(w.Header().Get("Retry-After"), ShouldEqual, "1")
			})
		})
	})
}

package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	model "github.com/okian/placement/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestSkillLevel(t *testing.T) {
	convey.Convey("Given skill level names", t, func() {
		convey.Convey("When parsing regardless of case", func() {
			lvl, err := model.ParseSkillLevel(" intermediate ")

			convey.Convey("Then the level is recognized", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(lvl, convey.ShouldEqual, model.Intermediate)
				convey.So(lvl.String(), convey.ShouldEqual, "Intermediate")
			})
		})

		convey.Convey("When parsing an unknown name", func() {
			_, err := model.ParseSkillLevel("Expert")

			convey.Convey("Then it is an invalid argument", func() {
				convey.So(errors.Is(err, model.ErrInvalidArgument), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a profile is decoded from JSON", func() {
			var p model.CandidateProfile
			err := json.Unmarshal([]byte(`{"cgpa":8.5,"skill_levels":{"SQL":"advanced","Go":"Beginner"}}`), &p)

			convey.Convey("Then levels are decoded by name", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.CGPA, convey.ShouldEqual, 8.5)
				convey.So(p.SkillLevels["SQL"], convey.ShouldEqual, model.Advanced)
				convey.So(p.SkillLevels["Go"], convey.ShouldEqual, model.Beginner)
			})
		})

		convey.Convey("When a profile carries an unknown level", func() {
			var p model.CandidateProfile
			err := json.Unmarshal([]byte(`{"skill_levels":{"SQL":"guru"}}`), &p)

			convey.Convey("Then decoding fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestFactor(t *testing.T) {
	convey.Convey("Given category factors", t, func() {
		f := model.CategoryFactor(" Technical ")

		convey.Convey("Then names are lower-case and reversible", func() {
			convey.So(f, convey.ShouldEqual, model.Factor("skills_technical"))
			cat, ok := f.Category()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(cat, convey.ShouldEqual, "technical")
		})

		convey.Convey("Then built-in factors are not categories", func() {
			_, ok := model.FactorRequiredSkills.Category()
			convey.So(ok, convey.ShouldBeFalse)
			_, ok = model.FactorCGPA.Category()
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestClone(t *testing.T) {
	convey.Convey("Given a profile and a job posting", t, func() {
		maxBacklogs := 1
		p := model.CandidateProfile{SkillLevels: map[string]model.SkillLevel{"sql": model.Advanced}}
		j := model.JobPosting{MaxBacklogs: &maxBacklogs, RequiredSkills: []string{"sql"}}

		convey.Convey("When the clones are mutated", func() {
			pc := p.Clone()
			jc := j.Clone()
			pc.SkillLevels["sql"] = model.Beginner
			*jc.MaxBacklogs = 5
			jc.RequiredSkills[0] = "go"

			convey.Convey("Then the originals are untouched", func() {
				convey.So(p.SkillLevels["sql"], convey.ShouldEqual, model.Advanced)
				convey.So(*j.MaxBacklogs, convey.ShouldEqual, 1)
				convey.So(j.RequiredSkills[0], convey.ShouldEqual, "sql")
			})
		})
	})
}

package probability_test

import (
	"testing"

	"github.com/okian/matchday/internal/domain/probability"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGoal(t *testing.T) {
	Convey("Given goal inputs", t, func() {
		Convey("Balanced sides with no goalkeeper give the base rate", func() {
			So(probability.Goal(50, 50, 0), ShouldEqual, 10)
		})

		Convey("The goalkeeper bonus reduces the chance", func() {
			So(probability.Goal(50, 50, 100), ShouldAlmostEqual, 7, 1e-9)
		})

		Convey("Extremes are clamped", func() {
			So(probability.Goal(100, 0, 0), ShouldEqual, 50)
			So(probability.Goal(0, 100, 100), ShouldEqual, 1)
		})

		Convey("Every input on the 0..100 grid stays in [1,50]", func() {
			for att := 0.0; att <= 100; att += 5 {
				for def := 0.0; def <= 100; def += 5 {
					for gk := 0.0; gk <= 100; gk += 10 {
						So(probability.Goal(att, def, gk), ShouldBeBetweenOrEqual, 1, 50)
					}
				}
			}
		})
	})
}

func TestSave(t *testing.T) {
	Convey("Given save inputs", t, func() {
		So(probability.Save(50, 50), ShouldEqual, 30)
		So(probability.Save(60, 50), ShouldAlmostEqual, 34, 1e-9)
		So(probability.Save(100, 0), ShouldEqual, 70)
		So(probability.Save(0, 100), ShouldEqual, 10)

		Convey("Every input on the 0..100 grid stays in [10,80]", func() {
			for gk := 0.0; gk <= 100; gk++ {
				for att := 0.0; att <= 100; att++ {
					So(probability.Save(gk, att), ShouldBeBetweenOrEqual, 10, 80)
				}
			}
		})
	})
}

func TestEffectiveGoalChance(t *testing.T) {
	Convey("Given goal and save chances", t, func() {
		So(probability.EffectiveGoalChance(20, 30), ShouldAlmostEqual, 14, 1e-9)
		So(probability.EffectiveGoalChance(1, 80), ShouldEqual, 0.5)
		So(probability.Scores(10, 9.99), ShouldBeTrue)
		So(probability.Scores(10, 10), ShouldBeFalse)
	})
}

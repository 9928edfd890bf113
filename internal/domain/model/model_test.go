package model_test

import (
	"encoding/json"
	"testing"

	model "github.com/okian/matchday/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestEventKind(t *testing.T) {
	convey.Convey("Given event kinds", t, func() {
		convey.Convey("When encoding to JSON", func() {
			b, err := json.Marshal(model.MatchEvent{Minute: 12, Kind: model.EventRedCard, Actor: "Ana", Side: 2})
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldContainSubstring, `"kind":"red-card"`)

			convey.Convey("Then decoding restores the kind", func() {
				var ev model.MatchEvent
				convey.So(json.Unmarshal(b, &ev), convey.ShouldBeNil)
				convey.So(ev.Kind, convey.ShouldEqual, model.EventRedCard)
			})
		})

		convey.Convey("When parsing an unknown name", func() {
			_, err := model.ParseEventKind("offside")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("When printing a known and an unknown kind", func() {
			convey.So(model.EventThrowIn.String(), convey.ShouldEqual, "throw-in")
			convey.So(model.EventKind(42).String(), convey.ShouldEqual, "EventKind(42)")
		})
	})
}

func TestModeAndOutcome(t *testing.T) {
	convey.Convey("Given modes", t, func() {
		m, err := model.ParseMode("ranked")
		convey.So(err, convey.ShouldBeNil)
		convey.So(m.Rated(), convey.ShouldBeTrue)
		convey.So(model.ModeBot.Rated(), convey.ShouldBeFalse)
		convey.So(model.ModeFriendly.Rated(), convey.ShouldBeFalse)

		_, err = model.ParseMode("cup")
		convey.So(err, convey.ShouldNotBeNil)
	})

	convey.Convey("Given a bot outcome", t, func() {
		o := &model.MatchOutcome{
			Side1Goals: 2, Side2Goals: 2,
			Side1: model.SideSnapshot{ParticipantID: "u1"},
		}
		convey.So(o.Draw(), convey.ShouldBeTrue)
		convey.So(o.Goals(), convey.ShouldEqual, 4)
		convey.So(o.Participants(), convey.ShouldResemble, []string{"u1"})
	})

	convey.Convey("Given an outcome with events and starters", t, func() {
		o := &model.MatchOutcome{
			ID:     "m1",
			Events: []model.MatchEvent{{Minute: 10, Kind: model.EventGoal, Side: 1}},
			Side1: model.SideSnapshot{
				Starters: []model.RosterEntry{{Name: "A", Overall: 80}},
				Strength: model.TeamStrength{Sectors: map[model.Sector]model.SectorStrength{}},
			},
		}

		convey.Convey("Clone shares no slices with the original", func() {
			cp := o.Clone()
			cp.Events[0].Minute = 90
			cp.Side1.Starters[0].Name = "B"
			convey.So(o.Events[0].Minute, convey.ShouldEqual, 10)
			convey.So(o.Side1.Starters[0].Name, convey.ShouldEqual, "A")
			convey.So(cp.ID, convey.ShouldEqual, "m1")
		})

		convey.Convey("Clone of nil is nil", func() {
			var none *model.MatchOutcome
			convey.So(none.Clone(), convey.ShouldBeNil)
		})
	})
}

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/matchday/internal/adapters/repository"
	"github.com/okian/matchday/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func eleven(overall int) []model.RosterEntry {
	out := make([]model.RosterEntry, 0, 11)
	positions := []string{"GK", "RB", "CB", "CB", "LB", "RM", "CM", "CM", "LM", "ST", "ST"}
	for i, p := range positions {
		out = append(out, model.RosterEntry{Name: fmt.Sprintf("Player %d", i+1), PositionShort: p, Overall: overall})
	}
	return out
}

// storeContract runs the behaviour every Store must share.
func storeContract(newStore func() repository.Store) {
	ctx := context.Background()
	s := newStore()
	Reset(func() { _ = s.Close() })

	Convey("Users start with the default skill", func() {
		ok, err := s.UserExists(ctx, "u1")
		So(err, ShouldBeNil)
		So(ok, ShouldBeFalse)

		So(s.EnsureUser(ctx, "u1"), ShouldBeNil)
		So(s.EnsureUser(ctx, "u1"), ShouldBeNil)
		ok, _ = s.UserExists(ctx, "u1")
		So(ok, ShouldBeTrue)

		skill, err := s.ManagerSkill(ctx, "u1")
		So(err, ShouldBeNil)
		So(skill, ShouldEqual, repository.DefaultManagerSkill)

		skill, err = s.ManagerSkill(ctx, "ghost")
		So(err, ShouldBeNil)
		So(skill, ShouldEqual, repository.DefaultManagerSkill)

		So(errors.Is(s.EnsureUser(ctx, ""), repository.ErrInvalidInput), ShouldBeTrue)
	})

	Convey("Skill moves by one and stays within 0..100", func() {
		So(s.EnsureUser(ctx, "u1"), ShouldBeNil)
		v, err := s.AdjustManagerSkill(ctx, "u1", true)
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 51)
		v, _ = s.AdjustManagerSkill(ctx, "u1", false)
		v, _ = s.AdjustManagerSkill(ctx, "u1", false)
		So(v, ShouldEqual, 49)

		for i := 0; i < 60; i++ {
			v, _ = s.AdjustManagerSkill(ctx, "u1", true)
		}
		So(v, ShouldEqual, 100)
		for i := 0; i < 120; i++ {
			v, _ = s.AdjustManagerSkill(ctx, "u1", false)
		}
		So(v, ShouldEqual, 0)

		_, err = s.AdjustManagerSkill(ctx, "ghost", true)
		So(errors.Is(err, repository.ErrUserNotFound), ShouldBeTrue)
	})

	Convey("Concurrent adjustments are not lost", func() {
		So(s.EnsureUser(ctx, "u1"), ShouldBeNil)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = s.AdjustManagerSkill(ctx, "u1", true)
			}()
		}
		wg.Wait()
		v, _ := s.ManagerSkill(ctx, "u1")
		So(v, ShouldEqual, 70)
	})

	Convey("Clubs are upserted and create their owner", func() {
		_, ok, err := s.Club(ctx, "u1")
		So(err, ShouldBeNil)
		So(ok, ShouldBeFalse)

		club := model.Club{OwnerID: "u1", Name: "Alpha FC", Code: "ALP", Crest: "lion", Formation: "4-3-3"}
		So(s.UpsertClub(ctx, club), ShouldBeNil)
		got, ok, err := s.Club(ctx, "u1")
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		So(got, ShouldResemble, club)

		exists, _ := s.UserExists(ctx, "u1")
		So(exists, ShouldBeTrue)

		club.Name = "Alpha United"
		So(s.UpsertClub(ctx, club), ShouldBeNil)
		got, _, _ = s.Club(ctx, "u1")
		So(got.Name, ShouldEqual, "Alpha United")

		So(errors.Is(s.UpsertClub(ctx, model.Club{OwnerID: "u2"}), repository.ErrInvalidInput), ShouldBeTrue)
	})

	Convey("Lineups are written best effort and read in slot order", func() {
		_, err := s.SetLineup(ctx, "u1", eleven(70))
		So(errors.Is(err, repository.ErrClubNotFound), ShouldBeTrue)

		So(s.UpsertClub(ctx, model.Club{OwnerID: "u1", Name: "Alpha"}), ShouldBeNil)
		rows := eleven(70)
		rows[3].Overall = 150
		n, err := s.SetLineup(ctx, "u1", rows)
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 10)

		got, err := s.StartingEleven(ctx, "u1")
		So(err, ShouldBeNil)
		So(len(got), ShouldEqual, 10)
		So(got[0].PositionShort, ShouldEqual, "GK")
		So(got[3].Name, ShouldEqual, "Player 5")

		n, _ = s.SetLineup(ctx, "u1", eleven(80))
		So(n, ShouldEqual, 11)
		got, _ = s.StartingEleven(ctx, "u1")
		So(len(got), ShouldEqual, 11)
		So(got[10].Overall, ShouldEqual, 80)

		none, err := s.StartingEleven(ctx, "ghost")
		So(err, ShouldBeNil)
		So(none, ShouldBeEmpty)
	})

	Convey("Outcomes round-trip", func() {
		out := &model.MatchOutcome{
			ID:         "m1",
			Mode:       model.ModeRanked,
			Side1Goals: 2,
			Side2Goals: 1,
			WinnerID:   "u1",
			WinnerSide: model.WinnerSide1,
			Events:     []model.MatchEvent{{Minute: 12, Kind: model.EventGoal, Actor: "Player 10", Side: 1}},
			Side1:      model.SideSnapshot{ParticipantID: "u1"},
			Side2:      model.SideSnapshot{ParticipantID: "u2"},
			CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		}
		So(s.SaveOutcome(ctx, out), ShouldBeNil)
		got, err := s.Outcome(ctx, "m1")
		So(err, ShouldBeNil)
		So(got.ID, ShouldEqual, "m1")
		So(got.Mode, ShouldEqual, model.ModeRanked)
		So(got.Side1Goals, ShouldEqual, 2)
		So(got.WinnerID, ShouldEqual, "u1")
		So(got.Events, ShouldResemble, out.Events)
		So(got.CreatedAt.Equal(out.CreatedAt), ShouldBeTrue)

		_, err = s.Outcome(ctx, "nope")
		So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		So(errors.Is(s.SaveOutcome(ctx, &model.MatchOutcome{}), repository.ErrInvalidInput), ShouldBeTrue)
	})

	Convey("Outcomes are written once and never edited", func() {
		out := &model.MatchOutcome{
			ID:         "m2",
			Mode:       model.ModeFriendly,
			Side1Goals: 1,
			Events:     []model.MatchEvent{{Minute: 30, Kind: model.EventGoal, Actor: "Player 9", Side: 1}},
			Side1:      model.SideSnapshot{ParticipantID: "u1"},
			Side2:      model.SideSnapshot{ParticipantID: "u2"},
			CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		}
		So(s.SaveOutcome(ctx, out), ShouldBeNil)

		out.Events[0].Minute = 89
		again := *out
		again.Side1Goals = 5
		So(errors.Is(s.SaveOutcome(ctx, &again), repository.ErrOutcomeExists), ShouldBeTrue)

		got, err := s.Outcome(ctx, "m2")
		So(err, ShouldBeNil)
		So(got.Side1Goals, ShouldEqual, 1)
		So(got.Events[0].Minute, ShouldEqual, 30)

		got.Events[0].Minute = 1
		reread, err := s.Outcome(ctx, "m2")
		So(err, ShouldBeNil)
		So(reread.Events[0].Minute, ShouldEqual, 30)
	})

	Convey("Opponents are found within the window among club owners", func() {
		for _, id := range []string{"a", "b", "c"} {
			So(s.UpsertClub(ctx, model.Club{OwnerID: id, Name: id}), ShouldBeNil)
		}
		So(s.EnsureUser(ctx, "noclub"), ShouldBeNil)
		for i := 0; i < 10; i++ {
			_, _ = s.AdjustManagerSkill(ctx, "c", true)
		}

		id, ok, err := s.FindOpponentBySkill(ctx, "a", 50, 5)
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		So(id, ShouldEqual, "b")

		id, ok, _ = s.FindOpponentBySkill(ctx, "a", 60, 0)
		So(ok, ShouldBeTrue)
		So(id, ShouldEqual, "c")

		_, ok, _ = s.FindOpponentBySkill(ctx, "a", 90, 5)
		So(ok, ShouldBeFalse)
	})

	Convey("TopManagers orders by skill then id", func() {
		for _, id := range []string{"b", "a", "c"} {
			So(s.EnsureUser(ctx, id), ShouldBeNil)
		}
		_, _ = s.AdjustManagerSkill(ctx, "c", true)

		top, err := s.TopManagers(ctx, 2)
		So(err, ShouldBeNil)
		So(top, ShouldResemble, []model.ManagerRating{
			{ParticipantID: "c", Skill: 51},
			{ParticipantID: "a", Skill: 50},
		})

		_, err = s.TopManagers(ctx, 0)
		So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
	})
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/matchday/internal/domain/formation"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/logger"
)

func execute(stdin string, args ...string) (string, error) {
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunBatch(t *testing.T) {
	convey.Convey("Given an 80-rated eleven", t, func() {
		ctx := context.Background()
		o := batchOptions{matches: 1000, workers: 4, queueSize: 64, overall: 80, opponentOverall: 70, mode: "bot", seed: 7}

		convey.Convey("Against a 70-rated bot it wins on average and keeps its skill", func() {
			sum, err := runBatch(ctx, o, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(sum.Matches, convey.ShouldEqual, 1000)
			convey.So(sum.Failed, convey.ShouldEqual, 0)
			convey.So(sum.Wins+sum.Draws+sum.Losses, convey.ShouldEqual, 1000)
			convey.So(sum.MeanGoalDiff, convey.ShouldBeGreaterThan, 0)
			convey.So(sum.HomeSkill, convey.ShouldEqual, 50)
		})

		convey.Convey("Friendlies against a stored eleven never change skill", func() {
			o.matches = 50
			o.mode = "friendly"
			sum, err := runBatch(ctx, o, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(sum.Failed, convey.ShouldEqual, 0)
			convey.So(sum.HomeSkill, convey.ShouldEqual, 50)
		})

		convey.Convey("Ranked matches move skill by one per decided match", func() {
			o.matches = 30
			o.mode = "ranked"
			sum, err := runBatch(ctx, o, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			convey.So(sum.HomeSkill, convey.ShouldBeBetweenOrEqual, 50-sum.Losses, 50+sum.Wins)
		})

		convey.Convey("Invalid options are rejected", func() {
			bad := o
			bad.mode = "cup"
			_, err := runBatch(ctx, bad, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)

			bad = o
			bad.matches = 0
			_, err = runBatch(ctx, bad, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)

			bad = o
			bad.overall = 150
			_, err = runBatch(ctx, bad, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestBatchCommand(t *testing.T) {
	convey.Convey("batch --json prints a decodable summary", t, func() {
		out, err := execute("", "batch", "--matches", "20", "--workers", "2", "--seed", "3", "--json")
		convey.So(err, convey.ShouldBeNil)
		var sum summary
		convey.So(json.Unmarshal([]byte(out), &sum), convey.ShouldBeNil)
		convey.So(sum.Matches, convey.ShouldEqual, 20)
	})

	convey.Convey("batch prints a one-line summary by default", t, func() {
		out, err := execute("", "batch", "-n", "5", "--seed", "3")
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldStartWith, "matches=5 ")
	})
}

func TestStrengthCommand(t *testing.T) {
	convey.Convey("Given a lineup on stdin", t, func() {
		rows := make([]model.RosterEntry, 0, 11)
		for i, sl := range formation.Slots(formation.Default) {
			rows = append(rows, model.RosterEntry{Name: fmt.Sprintf("P%d", i), PositionShort: sl.Position, Overall: 80})
		}
		raw, err := json.Marshal(rows)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("A bare array is rated", func() {
			out, err := execute(string(raw), "strength")
			convey.So(err, convey.ShouldBeNil)
			var ts model.TeamStrength
			convey.So(json.Unmarshal([]byte(out), &ts), convey.ShouldBeNil)
			convey.So(ts.Overall, convey.ShouldBeBetweenOrEqual, 1, 100)
		})

		convey.Convey("A wrapped object is rated", func() {
			out, err := execute(`{"starters":`+string(raw)+`}`, "strength", "-")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, `"overall"`)
		})

		convey.Convey("A short roster fails", func() {
			_, err := execute(`[{"name":"A","position":"ST","overall":80}]`, "strength")
			convey.So(err, convey.ShouldNotBeNil)
		})

		convey.Convey("Garbage fails", func() {
			_, err := execute(`not json`, "strength")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestTokenCommand(t *testing.T) {
	convey.Convey("token signs a JWT with the given secret", t, func() {
		out, err := execute("", "token", "alice", "--secret", "s3cret")
		convey.So(err, convey.ShouldBeNil)
		convey.So(strings.Count(strings.TrimSpace(out), "."), convey.ShouldEqual, 2)
	})

	convey.Convey("token needs a user id", t, func() {
		_, err := execute("", "token", "--secret", "s3cret")
		convey.So(err, convey.ShouldNotBeNil)
	})
}

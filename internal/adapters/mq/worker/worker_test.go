package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/matchday/internal/adapters/mq/queue"
	"github.com/okian/matchday/internal/adapters/mq/worker"
	"github.com/okian/matchday/internal/adapters/repository"
	"github.com/okian/matchday/internal/domain/formation"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/simulation"
	logging "github.com/okian/matchday/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockSimulator struct {
	calls atomic.Int32
	fail  string
	delay time.Duration
}

func (m *mockSimulator) Simulate(ctx context.Context, requesterID, _ string, mode model.Mode) (*model.MatchOutcome, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if requesterID == m.fail {
		return nil, errors.New("boom")
	}
	return &model.MatchOutcome{ID: "m-" + requesterID, Mode: mode, Side1Goals: 1}, nil
}

type collector struct {
	mu      sync.Mutex
	results []worker.Result
}

func (c *collector) sink(_ context.Context, r worker.Result) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
}

func TestPoolDrain(t *testing.T) {
	convey.Convey("Given a pool over a queue of jobs", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(200))
		sim := &mockSimulator{fail: "u7"}
		col := &collector{}

		for i := 0; i < 100; i++ {
			_, err := q.Enqueue(ctx, queue.Job{RequesterID: fmt.Sprintf("u%d", i), Mode: model.ModeBot})
			convey.So(err, convey.ShouldBeNil)
		}

		p := worker.NewPool(4, q, sim, col.sink, worker.WithLogger(logging.Nop()))
		convey.So(p.Size(), convey.ShouldEqual, 4)
		p.Start(ctx)

		convey.Convey("Drain processes every buffered job exactly once", func() {
			convey.So(p.Drain(ctx), convey.ShouldBeNil)
			convey.So(sim.calls.Load(), convey.ShouldEqual, 100)
			convey.So(len(col.results), convey.ShouldEqual, 100)

			failed := 0
			ids := map[string]bool{}
			for _, r := range col.results {
				ids[r.Job.ID] = true
				if r.Err != nil {
					failed++
					convey.So(r.Job.RequesterID, convey.ShouldEqual, "u7")
					convey.So(r.Outcome, convey.ShouldBeNil)
				}
			}
			convey.So(failed, convey.ShouldEqual, 1)
			convey.So(len(ids), convey.ShouldEqual, 100)
		})
	})
}

func TestPoolShutdown(t *testing.T) {
	convey.Convey("Shutdown stops workers without draining", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(50))
		sim := &mockSimulator{delay: 20 * time.Millisecond}
		for i := 0; i < 50; i++ {
			_, _ = q.Enqueue(ctx, queue.Job{RequesterID: "u", Mode: model.ModeBot})
		}

		p := worker.NewPool(2, q, sim, nil, worker.WithLogger(logging.Nop()))
		p.Start(ctx)
		time.Sleep(30 * time.Millisecond)

		convey.So(p.Shutdown(ctx), convey.ShouldBeNil)
		p.Wait()
		convey.So(sim.calls.Load(), convey.ShouldBeLessThan, 50)
	})
}

func TestPoolStrongerSideWins(t *testing.T) {
	convey.Convey("Given an 80-rated eleven against a 70-rated bot", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(repository.WithLogger(logging.Nop()))
		convey.So(store.UpsertClub(ctx, model.Club{OwnerID: "strong", Name: "Strong FC", Formation: formation.Default}), convey.ShouldBeNil)

		starters := make([]model.RosterEntry, 0, 11)
		for i, sl := range formation.Slots(formation.Default) {
			starters = append(starters, model.RosterEntry{Name: fmt.Sprintf("P%d", i), PositionShort: sl.Position, Overall: 80})
		}
		n, err := store.SetLineup(ctx, "strong", starters)
		convey.So(err, convey.ShouldBeNil)
		convey.So(n, convey.ShouldEqual, 11)

		gen := simulation.New(store,
			simulation.WithSeed(7),
			simulation.WithBotStrength(70, 70),
			simulation.WithLogger(logging.Nop()),
		)

		const runs = 1000
		q := queue.NewInMemoryQueue(queue.WithCapacity(runs))
		for i := 0; i < runs; i++ {
			_, err := q.Enqueue(ctx, queue.Job{RequesterID: "strong", Mode: model.ModeBot})
			convey.So(err, convey.ShouldBeNil)
		}

		var diff, played atomic.Int64
		sink := func(_ context.Context, r worker.Result) {
			if r.Err != nil {
				return
			}
			played.Add(1)
			diff.Add(int64(r.Outcome.Side1Goals - r.Outcome.Side2Goals))
		}
		p := worker.NewPool(8, q, gen, sink, worker.WithLogger(logging.Nop()))
		p.Start(ctx)
		convey.So(p.Drain(ctx), convey.ShouldBeNil)

		convey.So(played.Load(), convey.ShouldEqual, runs)
		convey.So(float64(diff.Load())/runs, convey.ShouldBeGreaterThan, 0)

		skill, _ := store.ManagerSkill(ctx, "strong")
		convey.So(skill, convey.ShouldEqual, repository.DefaultManagerSkill)
	})
}

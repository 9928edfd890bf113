package live_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/matchday/internal/domain/live"
	"github.com/okian/matchday/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegister(t *testing.T) {
	Convey("Given a coordinator", t, func() {
		ctx := context.Background()
		c := live.New(live.WithLogger(logger.Nop()))

		So(errors.Is(c.Register(ctx, "m1", "a", "a"), live.ErrInvalidParticipants), ShouldBeTrue)
		So(errors.Is(c.Register(ctx, "m1", "", "b"), live.ErrInvalidParticipants), ShouldBeTrue)
		So(errors.Is(c.Register(ctx, "", "a", "b"), live.ErrInvalidParticipants), ShouldBeTrue)
		So(c.Len(), ShouldEqual, 0)

		So(c.Register(ctx, "m1", "a", "b"), ShouldBeNil)
		So(c.Len(), ShouldEqual, 1)

		Convey("A fresh session is running with a full quota", func() {
			st, err := c.Status(ctx, "m1", "b")
			So(err, ShouldBeNil)
			So(st, ShouldResemble, live.Status{Paused: false, PausesRemaining: 3})
		})

		Convey("Unknown matches and outsiders are rejected", func() {
			_, err := c.Status(ctx, "nope", "a")
			So(errors.Is(err, live.ErrSessionNotFound), ShouldBeTrue)
			_, err = c.Status(ctx, "m1", "mallory")
			So(errors.Is(err, live.ErrUnauthorizedParticipant), ShouldBeTrue)
			_, err = c.Pause(ctx, "m1", "mallory")
			So(errors.Is(err, live.ErrUnauthorizedParticipant), ShouldBeTrue)
			_, err = c.SignalReady(ctx, "m1", "mallory")
			So(errors.Is(err, live.ErrUnauthorizedParticipant), ShouldBeTrue)

			st, _ := c.Status(ctx, "m1", "a")
			So(st.Paused, ShouldBeFalse)
		})

		Convey("Remove deletes the session and is idempotent", func() {
			c.Remove(ctx, "m1")
			c.Remove(ctx, "m1")
			So(c.Len(), ShouldEqual, 0)
			So(errors.Is(c.MarkHalftime(ctx, "m1"), live.ErrSessionNotFound), ShouldBeTrue)
		})
	})
}

func TestPauseResume(t *testing.T) {
	Convey("Given a registered match", t, func() {
		ctx := context.Background()
		c := live.New(live.WithLogger(logger.Nop()))
		So(c.Register(ctx, "m1", "a", "b"), ShouldBeNil)

		Convey("Three pauses succeed and the fourth fails without toggling", func() {
			for i := 0; i < 3; i++ {
				r, err := c.Pause(ctx, "m1", "a")
				So(err, ShouldBeNil)
				So(r, ShouldResemble, live.PauseResult{Success: true, Paused: true, PausesRemaining: 2 - i})
				r, err = c.Resume(ctx, "m1", "a")
				So(err, ShouldBeNil)
				So(r.Success, ShouldBeTrue)
				So(r.Paused, ShouldBeFalse)
			}
			r, err := c.Pause(ctx, "m1", "a")
			So(err, ShouldBeNil)
			So(r, ShouldResemble, live.PauseResult{Success: false, Paused: false, PausesRemaining: 0})

			st, _ := c.Status(ctx, "m1", "a")
			So(st.Paused, ShouldBeFalse)

			Convey("The other participant keeps their own quota", func() {
				r, err := c.Pause(ctx, "m1", "b")
				So(err, ShouldBeNil)
				So(r.Success, ShouldBeTrue)
				So(r.PausesRemaining, ShouldEqual, 2)
			})
		})

		Convey("Only the pauser may resume", func() {
			_, err := c.Pause(ctx, "m1", "a")
			So(err, ShouldBeNil)

			r, err := c.Resume(ctx, "m1", "b")
			So(err, ShouldBeNil)
			So(r.Success, ShouldBeFalse)
			So(r.Paused, ShouldBeTrue)

			st, _ := c.Status(ctx, "m1", "b")
			So(st.PausedBy, ShouldEqual, "a")
			So(st.PausesRemaining, ShouldEqual, 3)

			r, err = c.Resume(ctx, "m1", "a")
			So(err, ShouldBeNil)
			So(r.Success, ShouldBeTrue)
		})

		Convey("Either participant may resume when nobody paused", func() {
			r, err := c.Resume(ctx, "m1", "b")
			So(err, ShouldBeNil)
			So(r.Success, ShouldBeTrue)
		})

		Convey("A zero quota rejects every pause", func() {
			c0 := live.New(live.WithMaxPauses(0), live.WithLogger(logger.Nop()))
			So(c0.Register(ctx, "m2", "a", "b"), ShouldBeNil)
			r, err := c0.Pause(ctx, "m2", "a")
			So(err, ShouldBeNil)
			So(r.Success, ShouldBeFalse)
		})

		Convey("Concurrent pauses never exceed the quota", func() {
			var ok atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if r, err := c.Pause(ctx, "m1", "a"); err == nil && r.Success {
						ok.Add(1)
					}
				}()
			}
			wg.Wait()
			So(ok.Load(), ShouldEqual, 3)
		})
	})
}

func TestHalftimeBarrier(t *testing.T) {
	Convey("Given a match at half-time", t, func() {
		ctx := context.Background()
		c := live.New(live.WithLogger(logger.Nop()))
		So(c.Register(ctx, "m1", "a", "b"), ShouldBeNil)
		So(c.MarkHalftime(ctx, "m1"), ShouldBeNil)

		st, _ := c.Status(ctx, "m1", "a")
		So(st.Halftime, ShouldBeTrue)

		Convey("One ready signal keeps half-time", func() {
			r, err := c.SignalReady(ctx, "m1", "a")
			So(err, ShouldBeNil)
			So(r, ShouldResemble, live.HalftimeResult{Success: true, Halftime: true})

			Convey("Repeating it does not release the barrier", func() {
				r, _ := c.SignalReady(ctx, "m1", "a")
				So(r.Halftime, ShouldBeTrue)
			})

			Convey("The second signal releases it", func() {
				r, err := c.SignalReady(ctx, "m1", "b")
				So(err, ShouldBeNil)
				So(r, ShouldResemble, live.HalftimeResult{Success: true, Halftime: false})
			})
		})

		Convey("The order of the signals does not matter", func() {
			r, _ := c.SignalReady(ctx, "m1", "b")
			So(r.Halftime, ShouldBeTrue)
			r, _ = c.SignalReady(ctx, "m1", "a")
			So(r.Halftime, ShouldBeFalse)

			Convey("Flags are cleared so the next half-time needs both again", func() {
				So(c.MarkHalftime(ctx, "m1"), ShouldBeNil)
				r, _ := c.SignalReady(ctx, "m1", "a")
				So(r.Halftime, ShouldBeTrue)
			})
		})

		Convey("Marking half-time again resets earlier readiness", func() {
			_, _ = c.SignalReady(ctx, "m1", "a")
			So(c.MarkHalftime(ctx, "m1"), ShouldBeNil)
			r, _ := c.SignalReady(ctx, "m1", "b")
			So(r.Halftime, ShouldBeTrue)
		})

		Convey("Concurrent signals from both sides always release the barrier", func() {
			for i := 0; i < 100; i++ {
				So(c.MarkHalftime(ctx, "m1"), ShouldBeNil)
				var wg sync.WaitGroup
				for _, p := range []string{"a", "b"} {
					wg.Add(1)
					go func(id string) {
						defer wg.Done()
						_, _ = c.SignalReady(ctx, "m1", id)
					}(p)
				}
				wg.Wait()
				st, _ := c.Status(ctx, "m1", "a")
				So(st.Halftime, ShouldBeFalse)
			}
		})
	})
}

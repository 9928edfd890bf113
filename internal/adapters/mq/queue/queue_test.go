package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/matchday/internal/adapters/mq/queue"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	convey.Convey("Given a queue with capacity 2", t, func() {
		ctx := context.Background()
		stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		q := queue.NewInMemoryQueue(queue.WithCapacity(2), queue.WithClock(func() time.Time { return stamp }))

		convey.Convey("Enqueue assigns ids and stamps jobs", func() {
			id, err := q.Enqueue(ctx, queue.Job{RequesterID: "u1", Mode: model.ModeBot})
			convey.So(err, convey.ShouldBeNil)
			convey.So(id, convey.ShouldNotBeEmpty)

			id2, err := q.Enqueue(ctx, queue.Job{ID: "fixed", RequesterID: "u2", Mode: model.ModeBot})
			convey.So(err, convey.ShouldBeNil)
			convey.So(id2, convey.ShouldEqual, "fixed")
			convey.So(q.Len(), convey.ShouldEqual, 2)

			j := <-q.Dequeue(ctx)
			convey.So(j.ID, convey.ShouldEqual, id)
			convey.So(j.EnqueuedAt, convey.ShouldEqual, stamp)
		})

		convey.Convey("A full queue rejects without blocking", func() {
			for i := 0; i < 2; i++ {
				_, err := q.Enqueue(ctx, queue.Job{RequesterID: "u1"})
				convey.So(err, convey.ShouldBeNil)
			}
			_, err := q.Enqueue(ctx, queue.Job{RequesterID: "u1"})
			convey.So(errors.Is(err, queue.ErrFull), convey.ShouldBeTrue)
		})

		convey.Convey("Close drains buffered jobs then closes the channel", func() {
			_, _ = q.Enqueue(ctx, queue.Job{RequesterID: "u1"})
			convey.So(q.Close(), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)
			convey.So(q.IsClosed(), convey.ShouldBeTrue)

			_, err := q.Enqueue(ctx, queue.Job{RequesterID: "u2"})
			convey.So(errors.Is(err, queue.ErrClosed), convey.ShouldBeTrue)

			n := 0
			for range q.Dequeue(ctx) {
				n++
			}
			convey.So(n, convey.ShouldEqual, 1)
		})
	})
}

func TestInMemoryQueueConcurrent(t *testing.T) {
	convey.Convey("Concurrent producers and consumers see every job once", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))

		const producers, perProducer = 8, 50
		var consumed sync.Map
		var cwg sync.WaitGroup
		for i := 0; i < 4; i++ {
			cwg.Add(1)
			go func() {
				defer cwg.Done()
				for j := range q.Dequeue(ctx) {
					_, dup := consumed.LoadOrStore(j.ID, true)
					if dup {
						t.Errorf("job %s delivered twice", j.ID)
					}
				}
			}()
		}

		var pwg sync.WaitGroup
		for i := 0; i < producers; i++ {
			pwg.Add(1)
			go func() {
				defer pwg.Done()
				for k := 0; k < perProducer; k++ {
					for {
						if _, err := q.Enqueue(ctx, queue.Job{RequesterID: "u"}); err == nil {
							break
						}
						time.Sleep(time.Millisecond)
					}
				}
			}()
		}
		pwg.Wait()
		convey.So(q.Close(), convey.ShouldBeNil)
		cwg.Wait()

		total := 0
		consumed.Range(func(_, _ any) bool { total++; return true })
		convey.So(total, convey.ShouldEqual, producers*perProducer)
	})
}

package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-market-sync/internal/models"
)

type countingJob struct {
	calls    int32
	err      error
	deadline bool
}

func (j *countingJob) IngestDaily(ctx context.Context) ([]models.Posting, error) {
	atomic.AddInt32(&j.calls, 1)
	_, j.deadline = ctx.Deadline()
	return []models.Posting{}, j.err
}

func TestScheduler(t *testing.T) {
	Convey("Given a scheduler", t, func() {
		job := &countingJob{}

		Convey("When run once by hand", func() {
			s := New("@every 1h", job, time.Minute, zap.NewNop())
			s.RunOnce(context.Background())

			So(atomic.LoadInt32(&job.calls), ShouldEqual, 1)
			So(job.deadline, ShouldBeTrue)
		})

		Convey("When the job fails", func() {
			job.err = fmt.Errorf("upstream down")
			s := New("@every 1h", job, 0, zap.NewNop())

			So(func() { s.RunOnce(context.Background()) }, ShouldNotPanic)
			So(job.deadline, ShouldBeFalse)
		})

		Convey("When started on a one second schedule", func() {
			s := New("@every 1s", job, time.Second, zap.NewNop())
			So(s.Start(context.Background()), ShouldBeNil)

			deadline := time.Now().Add(3 * time.Second)
			for atomic.LoadInt32(&job.calls) == 0 && time.Now().Before(deadline) {
				time.Sleep(50 * time.Millisecond)
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			s.Stop(ctx)

			So(atomic.LoadInt32(&job.calls), ShouldBeGreaterThanOrEqualTo, 1)
		})

		Convey("When the schedule is malformed", func() {
			s := New("every now and then", job, time.Second, zap.NewNop())
			So(s.Start(context.Background()), ShouldNotBeNil)
		})
	})
}

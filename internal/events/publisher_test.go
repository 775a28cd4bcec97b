package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-market-sync/internal/errors"
)

func TestNoop(t *testing.T) {
	Convey("Given the no-op publisher", t, func() {
		var p Publisher = Noop{}
		So(p.PublishIngested(context.Background(), IngestionEvent{Count: 3}), ShouldBeNil)
		p.Close()
	})
}

func TestNewNATSPublisher(t *testing.T) {
	Convey("Given no NATS server", t, func() {
		_, err := NewNATSPublisher("nats://127.0.0.1:1", "jobs.postings.ingested", 200*time.Millisecond, zap.NewNop())
		So(errors.Is(err, errors.ErrTypeUnavailable), ShouldBeTrue)
	})
}

func TestIngestionEventJSON(t *testing.T) {
	Convey("Given a daily event", t, func() {
		raw, err := json.Marshal(IngestionEvent{BatchID: "b1", Source: "daily", Table: "job_postings", Count: 2})
		So(err, ShouldBeNil)

		Convey("Then the date range is omitted", func() {
			So(string(raw), ShouldNotContainSubstring, "start_date")
			So(string(raw), ShouldContainSubstring, `"source":"daily"`)
		})
	})
}

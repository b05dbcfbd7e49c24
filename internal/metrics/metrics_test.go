package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRecorder(t *testing.T) {
	Convey("Given a recorder on a fresh registry", t, func() {
		reg := prometheus.NewRegistry()
		rec := NewRecorder(reg)

		Convey("When events are recorded", func() {
			rec.ObserveUpstream("matches", "ok", 120*time.Millisecond)
			rec.ObserveUpstream("matches", "error", time.Second)
			rec.RefreshDecision(true)
			rec.RefreshDecision(false)
			rec.RefreshDecision(false)
			rec.DraftProcessed(true)
			rec.DraftProcessed(false)
			rec.PlayerCreated()
			rec.SharePosted(errors.New("boom"))

			Convey("Then the counters reflect them", func() {
				So(testutil.ToFloat64(rec.upstreamRequests.WithLabelValues("matches", "ok")), ShouldEqual, 1)
				So(testutil.ToFloat64(rec.upstreamRequests.WithLabelValues("matches", "error")), ShouldEqual, 1)
				So(testutil.ToFloat64(rec.refreshDecisions.WithLabelValues("false")), ShouldEqual, 2)
				So(testutil.ToFloat64(rec.draftsProcessed.WithLabelValues("submitted")), ShouldEqual, 1)
				So(testutil.ToFloat64(rec.draftsProcessed.WithLabelValues("failed")), ShouldEqual, 1)
				So(testutil.ToFloat64(rec.playersCreated), ShouldEqual, 1)
				So(testutil.ToFloat64(rec.sharesPosted.WithLabelValues("error")), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a nil recorder", t, func() {
		var rec *Recorder

		Convey("Then recording is a no-op", func() {
			So(func() {
				rec.ObserveUpstream("matches", "ok", time.Millisecond)
				rec.RefreshDecision(true)
				rec.DraftProcessed(false)
				rec.PlayerCreated()
				rec.SharePosted(nil)
			}, ShouldNotPanic)
		})
	})

	Convey("Given the default registry constructor", t, func() {
		reg := NewRegistry()
		NewRecorder(reg)

		families, err := reg.Gather()
		So(err, ShouldBeNil)
		So(len(families), ShouldBeGreaterThan, 0)
	})
}

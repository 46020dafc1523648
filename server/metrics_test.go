package server

import (
	"testing"
	"time"

	"github.com/tracktitans/railstation/simulation"
	. "github.com/smartystreets/goconvey/convey"
)

func resetMetrics() {
	metrics.mu.Lock()
	metrics.despawns = nil
	metrics.denials = nil
	metrics.stuckCount = 0
	metrics.snapshots = nil
	metrics.mu.Unlock()
}

func TestUpdateMetrics(t *testing.T) {
	Convey("Given a clean metrics state", t, func() {
		resetMetrics()

		Convey("A trainDespawned event records a despawn", func() {
			updateMetrics(&simulation.Event{Name: simulation.TrainDespawnedEvent})
			So(len(metrics.despawns), ShouldEqual, 1)
		})

		Convey("A trainDenied event records a denial", func() {
			updateMetrics(&simulation.Event{Name: simulation.TrainDeniedEvent})
			So(len(metrics.denials), ShouldEqual, 1)
			So(metrics.denials[0].denied, ShouldBeTrue)
		})

		Convey("trainStuck increments stuckCount and trainReplanned decrements it", func() {
			updateMetrics(&simulation.Event{Name: simulation.TrainStuckEvent})
			updateMetrics(&simulation.Event{Name: simulation.TrainStuckEvent})
			So(metrics.stuckCount, ShouldEqual, 2)
			updateMetrics(&simulation.Event{Name: simulation.TrainReplannedEvent})
			So(metrics.stuckCount, ShouldEqual, 1)
		})

		Convey("stuckCount never goes negative", func() {
			updateMetrics(&simulation.Event{Name: simulation.TrainReplannedEvent})
			So(metrics.stuckCount, ShouldEqual, 0)
		})
	})
}

func TestTakeSnapshotAndAggregate(t *testing.T) {
	Convey("Given a metrics state with a denied and a clean decision", t, func() {
		resetMetrics()
		updateMetrics(&simulation.Event{Name: simulation.TrainDeniedEvent})
		updateMetrics(&simulation.Event{Name: simulation.TickCompletedEvent})

		Convey("takeSnapshot computes a 50% denial rate", func() {
			takeSnapshot()
			So(len(metrics.snapshots), ShouldEqual, 1)
			So(metrics.snapshots[0].denialRate, ShouldEqual, 50.0)
			So(metrics.snapshots[0].performance, ShouldEqual, 50.0)
		})

		Convey("aggregateKPIs over a generous window reflects that snapshot", func() {
			takeSnapshot()
			agg, _ := aggregateKPIs(time.Hour)
			So(agg.denialRate, ShouldEqual, 50.0)
		})
	})

	Convey("Given no snapshots at all", t, func() {
		resetMetrics()

		Convey("aggregateKPIs returns a zeroed snapshot without panicking", func() {
			agg, trend := aggregateKPIs(time.Hour)
			So(agg.throughput, ShouldEqual, 0)
			So(trend.throughput, ShouldEqual, 0)
		})
	})
}

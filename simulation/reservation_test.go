package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestReservationTable(t *testing.T) {
	Convey("Given a reservation table over a 2-block, 4-section line", t, func() {
		topo := buildLineTopology()
		res := NewReservationTable(topo)

		Convey("TryReserve succeeds on a free section and claims its block", func() {
			So(res.TryReserve(1, 1), ShouldBeTrue)
			owner, held := res.Peek(1)
			So(held, ShouldBeTrue)
			So(owner, ShouldEqual, TrainID(1))

			blockOwner, held := res.PeekBlock("B1")
			So(held, ShouldBeTrue)
			So(blockOwner, ShouldEqual, TrainID(1))
		})

		Convey("A second train cannot reserve a section another train holds", func() {
			So(res.TryReserve(1, 1), ShouldBeTrue)
			So(res.TryReserve(2, 1), ShouldBeFalse)
		})

		Convey("A second train cannot enter a block another train already holds", func() {
			So(res.TryReserve(1, 1), ShouldBeTrue)
			So(res.TryReserve(2, 2), ShouldBeFalse)
		})

		Convey("The same train can extend its hold across sections of one block", func() {
			So(res.TryReserve(1, 1), ShouldBeTrue)
			So(res.TryReserve(1, 2), ShouldBeTrue)
		})

		Convey("Release frees the section and, once the train holds nothing else, the block", func() {
			So(res.TryReserve(1, 1), ShouldBeTrue)
			res.Release(1, 1)
			So(res.IsSectionFree(1), ShouldBeTrue)
			_, held := res.PeekBlock("B1")
			So(held, ShouldBeFalse)

			So(res.TryReserve(2, 1), ShouldBeTrue)
		})

		Convey("ReleaseAll clears every section a train holds", func() {
			So(res.TryReserve(1, 1), ShouldBeTrue)
			So(res.TryReserve(1, 2), ShouldBeTrue)
			res.ReleaseAll(1)
			So(res.IsSectionFree(1), ShouldBeTrue)
			So(res.IsSectionFree(2), ShouldBeTrue)
		})

		Convey("CanEventuallyLeave is false when every reachable block is held by another train", func() {
			So(res.TryReserve(1, 1), ShouldBeTrue)
			So(res.TryReserve(1, 2), ShouldBeTrue)
			So(res.TryReserve(2, 3), ShouldBeTrue)
			So(res.TryReserve(2, 4), ShouldBeTrue)
			So(res.CanEventuallyLeave(1, "B1", "", 1), ShouldBeFalse)
		})

		Convey("CanEventuallyLeave is true when a neighboring block is free", func() {
			So(res.TryReserve(1, 1), ShouldBeTrue)
			So(res.TryReserve(1, 2), ShouldBeTrue)
			So(res.CanEventuallyLeave(1, "B1", "", 1), ShouldBeTrue)
		})
	})
}

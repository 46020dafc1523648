package server

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTrainTypeByID(t *testing.T) {
	Convey("Given the static train type catalog", t, func() {
		Convey("A known id resolves to its catalog entry", func() {
			tt, ok := trainTypeByID(2)
			So(ok, ShouldBeTrue)
			So(tt.Name, ShouldEqual, "Express EMU")
			So(tt.NumWagons, ShouldEqual, 8)
		})

		Convey("An unknown id is rejected", func() {
			_, ok := trainTypeByID(999)
			So(ok, ShouldBeFalse)
		})
	})
}

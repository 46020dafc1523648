package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRouterFindRoute(t *testing.T) {
	Convey("Given a router over a simple forward line", t, func() {
		topo := buildLineTopology()
		router := NewRouter(topo, 50)

		Convey("A reachable goal returns the direct section sequence", func() {
			path, err := router.FindRoute(1, 1, "", Forward, 4)
			So(err, ShouldBeNil)
			So(path, ShouldResemble, []SectionID{1, 2, 3, 4})
		})

		Convey("Starting at the goal returns a single-section path", func() {
			path, err := router.FindRoute(1, 3, "", Forward, 3)
			So(err, ShouldBeNil)
			So(path, ShouldResemble, []SectionID{3})
		})

		Convey("An unreachable goal returns NoRouteFoundError", func() {
			topo.addSection(Section{ID: 5, Length: 1})
			_, err := router.FindRoute(1, 1, "", Forward, 5)
			So(err, ShouldNotBeNil)
			_, ok := err.(*NoRouteFoundError)
			So(ok, ShouldBeTrue)
		})

		Convey("A reversing move costs the reverse penalty", func() {
			topo.addConnection(Connection{From: 3, To: 1, Active: true})
			path, err := router.FindRoute(1, 3, "", Forward, 1)
			So(err, ShouldBeNil)
			// Direct reverse edge (3->1) costs 1+penalty; going forward then
			// never reaching 1 isn't possible here, so the direct edge wins.
			So(path, ShouldResemble, []SectionID{3, 1})
		})
	})
}

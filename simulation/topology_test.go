package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func buildLineTopology() *Topology {
	t := NewTopology()
	for i := SectionID(1); i <= 4; i++ {
		t.addSection(Section{ID: i, Length: 1})
	}
	t.addConnection(Connection{From: 1, To: 2, Active: true})
	t.addConnection(Connection{From: 2, To: 3, Active: true})
	t.addConnection(Connection{From: 3, To: 4, Active: true})
	t.addBlock(Block{ID: "B1", Sections: []SectionID{1, 2}})
	t.addBlock(Block{ID: "B2", Sections: []SectionID{3, 4}})
	t.markSpawn(1)
	t.markDespawn(4)
	return t
}

func TestTopology(t *testing.T) {
	Convey("Given a simple 4-section line topology", t, func() {
		topo := buildLineTopology()

		Convey("Neighbors reflects active connections only", func() {
			neighbors := topo.Neighbors(1, "")
			So(len(neighbors), ShouldEqual, 1)
			So(neighbors[0].To, ShouldEqual, SectionID(2))

			So(topo.SetConnectionActive(1, 2, false), ShouldBeNil)
			So(len(topo.Neighbors(1, "")), ShouldEqual, 0)
		})

		Convey("SetConnectionActive on an unknown connection is rejected", func() {
			err := topo.SetConnectionActive(1, 99, false)
			So(err, ShouldNotBeNil)
		})

		Convey("Neighbors excludes a connection matching the previous block", func() {
			topo.addConnection(Connection{From: 2, To: 1, Active: true, ExcludePreviousBlock: "B2"})
			allowed := topo.Neighbors(2, "B1")
			found := false
			for _, c := range allowed {
				if c.To == 1 {
					found = true
				}
			}
			So(found, ShouldBeTrue)

			blocked := topo.Neighbors(2, "B2")
			for _, c := range blocked {
				So(c.To, ShouldNotEqual, SectionID(1))
			}
		})

		Convey("BlockOf and SectionsOf agree with each other", func() {
			b, ok := topo.BlockOf(2)
			So(ok, ShouldBeTrue)
			So(b, ShouldEqual, BlockID("B1"))
			So(topo.SectionsOf(b), ShouldResemble, []SectionID{1, 2})
		})

		Convey("Spawn and despawn sections are reported correctly", func() {
			So(topo.IsSpawn(1), ShouldBeTrue)
			So(topo.IsSpawn(2), ShouldBeFalse)
			So(topo.IsDespawn(4), ShouldBeTrue)
		})

		Convey("Predecessors finds the sections that feed into one", func() {
			preds := topo.Predecessors(2)
			So(preds, ShouldResemble, []SectionID{1})
		})

		Convey("Validate passes for a well-formed topology", func() {
			So(topo.Validate(), ShouldBeNil)
		})
	})
}

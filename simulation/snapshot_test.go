package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildSnapshot(t *testing.T) {
	Convey("Given a simulation with one spawned train", t, func() {
		topo := buildLineTopology()
		sim := NewSimulation(topo, testOptions())
		_, err := sim.spawnTrain(SpawnCommand{
			TrainID: 1, TrainCode: "EXP1",
			Type:         TrainType{Speed: 1, NumWagons: 1},
			EntrySection: 1,
			NumWagons:    1,
		})
		So(err, ShouldBeNil)

		Convey("buildSnapshot reports the train, its wagon, and the connection set", func() {
			snap := sim.buildSnapshot()
			So(len(snap.Trains), ShouldEqual, 1)
			So(snap.Trains[0].ID, ShouldEqual, TrainID(1))
			So(snap.Trains[0].Code, ShouldEqual, "EXP1")
			So(snap.Trains[0].Status, ShouldEqual, Moving.String())

			So(len(snap.Wagons), ShouldEqual, 1)
			So(snap.Wagons[0].TrainID, ShouldEqual, TrainID(1))
			So(snap.Wagons[0].Index, ShouldEqual, 0)

			So(len(snap.Connections), ShouldEqual, 3)
		})
	})
}

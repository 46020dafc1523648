package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func testOptions() Options {
	o := DefaultOptions()
	o.TickRate = 1
	o.SpeedMultiplier = 1
	o.BlockGraceTicks = 100
	o.BoundedLookaheadSteps = 4
	return o
}

func TestSpawnAndTraverseAndDespawn(t *testing.T) {
	Convey("Given a single-wagon train spawned on a 4-section line", t, func() {
		topo := buildLineTopology()
		sim := NewSimulation(topo, testOptions())

		train, err := sim.spawnTrain(SpawnCommand{
			TrainID:      1,
			TrainCode:    "T1",
			Type:         TrainType{ID: 1, Name: "Test", Speed: 1, NumWagons: 1},
			EntrySection: 1,
			NumWagons:    1,
		})
		So(err, ShouldBeNil)
		So(train.Status, ShouldEqual, Moving)
		So(train.Plan.Sections, ShouldResemble, []SectionID{1, 2, 3, 4})

		Convey("Ticking the scheduler advances it section by section until despawn", func() {
			for i := 0; i < 3; i++ {
				sim.tick()
				So(sim.trains[1].Status, ShouldNotEqual, Stuck)
			}
			So(sim.trains[1].Wagons[0].Section, ShouldEqual, SectionID(4))

			// One further tick lets the head wagon cross past the despawn
			// boundary and the train despawn entirely.
			sim.tick()
			_, stillPresent := sim.trains[1]
			So(stillPresent, ShouldBeFalse)
		})
	})
}

func TestSpawnRejectsDuplicateTrainID(t *testing.T) {
	Convey("Given a train already spawned", t, func() {
		topo := buildLineTopology()
		sim := NewSimulation(topo, testOptions())
		_, err := sim.spawnTrain(SpawnCommand{
			TrainID: 1, Type: TrainType{Speed: 1, NumWagons: 1}, EntrySection: 1, NumWagons: 1,
		})
		So(err, ShouldBeNil)

		Convey("Spawning the same train id again is rejected", func() {
			_, err := sim.spawnTrain(SpawnCommand{
				TrainID: 1, Type: TrainType{Speed: 1, NumWagons: 1}, EntrySection: 1, NumWagons: 1,
			})
			So(err, ShouldNotBeNil)
			rejectErr, ok := err.(*SpawnRejectedError)
			So(ok, ShouldBeTrue)
			So(rejectErr.Reason, ShouldEqual, DuplicateTrainId)
		})
	})
}

func TestSetConnectionActiveRejectsWhenOccupied(t *testing.T) {
	Convey("Given a train occupying section 1", t, func() {
		topo := buildLineTopology()
		sim := NewSimulation(topo, testOptions())
		_, err := sim.spawnTrain(SpawnCommand{
			TrainID: 1, Type: TrainType{Speed: 1, NumWagons: 1}, EntrySection: 1, NumWagons: 1,
		})
		So(err, ShouldBeNil)

		Convey("Toggling the connection out of section 1 is rejected as occupied", func() {
			err := sim.setConnectionActive(SetConnectionActiveCommand{From: 1, To: 2, Active: false})
			So(err, ShouldNotBeNil)
			rejectErr, ok := err.(*SwitchRejectedError)
			So(ok, ShouldBeTrue)
			So(rejectErr.Reason, ShouldEqual, SwitchOccupied)
		})
	})
}

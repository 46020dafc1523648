package simulation

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEventBus(t *testing.T) {
	Convey("Given a bus with two subscribers", t, func() {
		var bus eventBus
		var gotA, gotB []*Event
		bus.Subscribe(func(e *Event) { gotA = append(gotA, e) })
		bus.Subscribe(func(e *Event) { gotB = append(gotB, e) })

		Convey("emit delivers the event to every subscriber in order", func() {
			bus.emit(&Event{Name: TrainSpawnedEvent})
			bus.emit(&Event{Name: TrainDespawnedEvent})

			So(len(gotA), ShouldEqual, 2)
			So(gotA[0].Name, ShouldEqual, TrainSpawnedEvent)
			So(gotA[1].Name, ShouldEqual, TrainDespawnedEvent)
			So(len(gotB), ShouldEqual, 2)
		})
	})

	Convey("Given a simulation with a subscriber wired in", t, func() {
		topo := buildLineTopology()
		sim := NewSimulation(topo, testOptions())
		var names []EventName
		sim.Subscribe(func(e *Event) { names = append(names, e.Name) })

		Convey("Spawning a train emits trainSpawned", func() {
			_, err := sim.spawnTrain(SpawnCommand{
				TrainID: 1, Type: TrainType{Speed: 1, NumWagons: 1}, EntrySection: 1, NumWagons: 1,
			})
			So(err, ShouldBeNil)
			So(names, ShouldContain, TrainSpawnedEvent)
		})
	})
}

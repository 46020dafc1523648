package server

import (
	"testing"

	"github.com/tracktitans/railstation/simulation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAuditState(t *testing.T) {
	Convey("Given a fresh audit ring buffer of capacity 3", t, func() {
		a := &auditState{capacity: 3, subscribers: make(map[chan AuditEntry]bool)}

		Convey("append assigns increasing ids and a timestamp", func() {
			a.append(AuditEntry{Event: "A"})
			a.append(AuditEntry{Event: "B"})
			So(a.entries[0].ID, ShouldEqual, "1")
			So(a.entries[1].ID, ShouldEqual, "2")
			So(a.entries[0].Timestamp, ShouldNotEqual, "")
		})

		Convey("append drops the oldest entry once capacity is exceeded", func() {
			a.append(AuditEntry{Event: "A"})
			a.append(AuditEntry{Event: "B"})
			a.append(AuditEntry{Event: "C"})
			a.append(AuditEntry{Event: "D"})
			So(len(a.entries), ShouldEqual, 3)
			So(a.entries[0].Event, ShouldEqual, "B")
			So(a.entries[2].Event, ShouldEqual, "D")
		})

		Convey("getSince returns only entries newer than the given id", func() {
			a.append(AuditEntry{Event: "A"})
			a.append(AuditEntry{Event: "B"})
			a.append(AuditEntry{Event: "C"})
			since := a.getSince(1, 10)
			So(len(since), ShouldEqual, 2)
			So(since[0].Event, ShouldEqual, "B")
		})

		Convey("subscribe then unsubscribe removes the channel without blocking append", func() {
			ch := a.subscribe()
			a.append(AuditEntry{Event: "A"})
			received := <-ch
			So(received.Event, ShouldEqual, "A")
			a.unsubscribe(ch)
			So(a.subscribers[ch], ShouldBeFalse)
		})
	})
}

func TestRecordAuditFromEvent(t *testing.T) {
	Convey("Given the package audit log", t, func() {
		audits.entries = nil
		audits.nextID = 0

		Convey("A trainSpawned event becomes a TRAIN_SPAWNED entry", func() {
			recordAuditFromEvent(&simulation.Event{
				Name:   simulation.TrainSpawnedEvent,
				Object: &simulation.Train{ID: 7, Code: "T7"},
			})
			So(len(audits.entries), ShouldEqual, 1)
			So(audits.entries[0].Event, ShouldEqual, "TRAIN_SPAWNED")
			So(audits.entries[0].Object["id"], ShouldEqual, 7)
		})

		Convey("A chatty tickCompleted event is ignored", func() {
			recordAuditFromEvent(&simulation.Event{Name: simulation.TickCompletedEvent})
			So(len(audits.entries), ShouldEqual, 0)
		})

		Convey("A nil event is ignored", func() {
			recordAuditFromEvent(nil)
			So(len(audits.entries), ShouldEqual, 0)
		})
	})
}

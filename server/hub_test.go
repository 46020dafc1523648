package server

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHubRegisterUnregister(t *testing.T) {
	Convey("Given a fresh hub", t, func() {
		h := &Hub{objects: make(map[string]hubObject), connections: make(map[*connection]bool)}
		c := &connection{pushChan: make(chan Response, 4)}

		Convey("register adds the connection", func() {
			h.register(c)
			So(h.connections[c], ShouldBeTrue)
		})

		Convey("unregister removes it and closes the push channel", func() {
			h.register(c)
			h.unregister(c)
			So(h.connections[c], ShouldBeFalse)
			_, open := <-c.pushChan
			So(open, ShouldBeFalse)
		})
	})
}

func TestHubBroadcastDropsOldestWhenFull(t *testing.T) {
	Convey("Given a connection with a push channel of capacity 1 already full", t, func() {
		h := &Hub{objects: make(map[string]hubObject), connections: make(map[*connection]bool)}
		c := &connection{pushChan: make(chan Response, 1)}
		h.register(c)
		c.pushChan <- Response{ID: "stale"}

		Convey("broadcast drops the stale message and delivers the new one", func() {
			h.broadcast(Response{ID: "fresh"})
			got := <-c.pushChan
			So(got.ID, ShouldEqual, "fresh")
		})
	})
}

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/tracktitans/railstation/simulation"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestSim() *simulation.Simulation {
	topo := buildServerTestTopology()
	s := simulation.NewSimulation(topo, simulation.DefaultOptions())
	return s
}

func buildServerTestTopology() *simulation.Topology {
	desc := simulation.Description{
		Sections: []simulation.Section{
			{ID: 1, Length: 1}, {ID: 2, Length: 1},
		},
		Connections: []simulation.Connection{
			{From: 1, To: 2, Active: true},
		},
		Blocks: []simulation.Block{
			{ID: "B1", Sections: []simulation.SectionID{1, 2}},
		},
		Spawns:   []simulation.SectionID{1},
		Despawns: []simulation.SectionID{2},
	}
	topo, err := simulation.Load(desc)
	if err != nil {
		panic(err)
	}
	return topo
}

func TestServeTrainsBySection(t *testing.T) {
	Convey("Given a simulation with a train spawned on section 1", t, func() {
		sim = newTestSim()
		reply := make(chan simulation.CommandResult, 1)
		sim.Enqueue(simulation.SpawnCommand{
			TrainID: 1, TrainCode: "T1", Type: simulation.TrainType{Speed: 1, NumWagons: 1},
			EntrySection: 1, NumWagons: 1, Reply: reply,
		})
		sim.Start()
		<-reply
		sim.Shutdown()

		r := mux.NewRouter()
		installHTTPAPI(r)

		Convey("GET /api/sections/1/trains reports it as an occupant", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/sections/1/trains", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)

			var body map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			trains, ok := body["trains"].([]interface{})
			So(ok, ShouldBeTrue)
			So(len(trains), ShouldEqual, 1)
		})

		Convey("GET /api/sections/{badId}/trains rejects a non-numeric id", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/sections/not-a-number/trains", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestServeTrainBatch(t *testing.T) {
	Convey("Given a simulation and a well-formed CSV batch", t, func() {
		sim = newTestSim()
		r := mux.NewRouter()
		installHTTPAPI(r)

		csv := "train_id,train_code,train_type_id,current_section_id,num_wagons,desired_stop_id\n" +
			"5,LOC5,1,1,0,\n"

		Convey("POST /api/trains/batch accepts the row and enqueues a spawn", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/trains/batch", strings.NewReader(csv))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)

			var body map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body["accepted"], ShouldEqual, float64(1))
		})
	})
}

func TestServeSystemOverviewRequiresSimulation(t *testing.T) {
	Convey("Given no simulation initialized", t, func() {
		sim = nil
		r := mux.NewRouter()
		installHTTPAPI(r)

		Convey("GET /api/system/overview reports 503", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/system/overview", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

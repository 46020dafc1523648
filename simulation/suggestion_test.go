package simulation

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSuggestReplanDue(t *testing.T) {
	Convey("Given a train past half its grace ticks but not yet replanned", t, func() {
		topo := buildLineTopology()
		sim := NewSimulation(topo, testOptions())
		sim.trains[1] = &Train{
			ID: 1, Code: "T1", Status: Moving,
			Plan:        &RoutePlan{Sections: []SectionID{1, 2, 3, 4}, Cursor: 1},
			DeniedTicks: sim.Options.BlockGraceTicks/2 + 1,
		}

		Convey("it surfaces a REPLAN_DUE suggestion", func() {
			items := sim.suggestReplanDue()
			So(len(items), ShouldEqual, 1)
			So(items[0].Kind, ShouldEqual, SuggestionReplanDue)
			So(items[0].Actions[0].Object, ShouldEqual, "train")
			So(items[0].Actions[0].Action, ShouldEqual, "replan")
		})

		Convey("a train still under the halfway mark is not flagged", func() {
			sim.trains[1].DeniedTicks = 1
			So(sim.suggestReplanDue(), ShouldBeEmpty)
		})

		Convey("a train already past the full grace limit is not flagged (already replanning)", func() {
			sim.trains[1].DeniedTicks = sim.Options.BlockGraceTicks + 1
			So(sim.suggestReplanDue(), ShouldBeEmpty)
		})
	})
}

func TestSuggestStuck(t *testing.T) {
	Convey("Given a stuck train", t, func() {
		topo := buildLineTopology()
		sim := NewSimulation(topo, testOptions())
		sim.trains[1] = &Train{ID: 1, Code: "T1", Status: Stuck}

		Convey("it surfaces a TRAIN_STUCK suggestion with top score", func() {
			items := sim.suggestStuck()
			So(len(items), ShouldEqual, 1)
			So(items[0].Kind, ShouldEqual, SuggestionTrainStuck)
			So(items[0].Score, ShouldEqual, float64(1000))
		})

		Convey("a moving train is not flagged", func() {
			sim.trains[1].Status = Moving
			So(sim.suggestStuck(), ShouldBeEmpty)
		})
	})
}

func TestSuggestConverging(t *testing.T) {
	Convey("Given two moving trains targeting the same goal section", t, func() {
		topo := buildLineTopology()
		sim := NewSimulation(topo, testOptions())
		sim.trains[1] = &Train{
			ID: 1, Status: Moving,
			Plan: &RoutePlan{Sections: []SectionID{1, 4}, Cursor: 1},
		}
		sim.trains[2] = &Train{
			ID: 2, Status: Moving,
			Plan: &RoutePlan{Sections: []SectionID{2, 4}, Cursor: 1},
		}

		Convey("it surfaces one CONVERGING_TRAINS suggestion naming both trains", func() {
			items := sim.suggestConverging()
			So(len(items), ShouldEqual, 1)
			So(items[0].Kind, ShouldEqual, SuggestionConvergingTrains)
			ids := items[0].Actions[0].Params["trainIds"].([]int)
			So(len(ids), ShouldEqual, 2)
		})

		Convey("a single train heading to a goal is not flagged", func() {
			delete(sim.trains, 2)
			So(sim.suggestConverging(), ShouldBeEmpty)
		})
	})
}

func TestSuggestDenialStreaks(t *testing.T) {
	Convey("Given a train with at least 3 consecutive denied ticks", t, func() {
		topo := buildLineTopology()
		sim := NewSimulation(topo, testOptions())
		sim.trains[1] = &Train{ID: 1, Code: "T1", Status: Moving, DeniedTicks: 3}

		Convey("it surfaces a DENIAL_STREAK suggestion", func() {
			items := sim.suggestDenialStreaks()
			So(len(items), ShouldEqual, 1)
			So(items[0].Kind, ShouldEqual, SuggestionDenialStreak)
		})

		Convey("fewer than 3 denied ticks is not flagged", func() {
			sim.trains[1].DeniedTicks = 2
			So(sim.suggestDenialStreaks(), ShouldBeEmpty)
		})
	})
}

func TestRecomputeAndRejectSuggestion(t *testing.T) {
	Convey("Given a simulation with a stuck train", t, func() {
		topo := buildLineTopology()
		opts := testOptions()
		opts.SuggestionsIntervalSeconds = 0
		sim := NewSimulation(topo, opts)
		sim.trains[1] = &Train{ID: 1, Code: "T1", Status: Stuck}

		Convey("RecomputeSuggestions populates Suggestions with the stuck-train item", func() {
			sim.RecomputeSuggestions()
			So(sim.Suggestions, ShouldNotBeNil)
			So(len(sim.Suggestions.Items), ShouldEqual, 1)
			So(sim.Suggestions.Items[0].Kind, ShouldEqual, SuggestionTrainStuck)
		})

		Convey("RejectSuggestion silences that id until the cooldown expires", func() {
			sim.RecomputeSuggestions()
			id := sim.Suggestions.Items[0].ID
			sim.RejectSuggestion(id, time.Hour)
			sim.RecomputeSuggestions()
			So(sim.Suggestions.Items, ShouldBeEmpty)
		})

		Convey("SuggestMaxItems caps the number of surfaced suggestions", func() {
			sim.trains[2] = &Train{ID: 2, Code: "T2", Status: Stuck}
			sim.Options.SuggestMaxItems = 1
			sim.RecomputeSuggestions()
			So(len(sim.Suggestions.Items), ShouldEqual, 1)
		})
	})
}

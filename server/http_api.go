package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/tracktitans/railstation/simulation"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/sections/{sectionId}/trains
func serveTrainsBySection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusServiceUnavailable)
		return
	}
	sectionID, err := strconv.Atoi(mux.Vars(r)["sectionId"])
	if err != nil {
		http.Error(w, "Bad section id", http.StatusBadRequest)
		return
	}
	section := simulation.SectionID(sectionID)

	snap := sim.LatestSnapshotForMetrics()
	occupants := []simulation.TrainSnapshot{}
	trainsByID := make(map[simulation.TrainID]simulation.TrainSnapshot, len(snap.Trains))
	for _, t := range snap.Trains {
		trainsByID[t.ID] = t
	}
	seen := make(map[simulation.TrainID]bool)
	for _, wg := range snap.Wagons {
		if wg.Section != section || seen[wg.TrainID] {
			continue
		}
		seen[wg.TrainID] = true
		if t, ok := trainsByID[wg.TrainID]; ok {
			occupants = append(occupants, t)
		}
	}
	writeJSON(w, map[string]interface{}{
		"sectionId": sectionID,
		"trains":    occupants,
	})
}

// POST /api/trains/{trainId}/replan
func serveTrainReplan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusServiceUnavailable)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["trainId"])
	if err != nil {
		http.Error(w, "Bad train id", http.StatusBadRequest)
		return
	}
	// Replanning is an engine-internal decision (spec.md §4.3); this
	// endpoint only surfaces whether the train is currently known, since
	// there is no external "force replan" command in the tick protocol.
	snap := sim.LatestSnapshotForMetrics()
	for _, t := range snap.Trains {
		if int(t.ID) == id {
			writeJSON(w, map[string]interface{}{"id": id, "status": t.Status})
			return
		}
	}
	http.Error(w, "TRAIN_NOT_FOUND", http.StatusNotFound)
}

// GET /api/system/overview
func serveSystemOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusServiceUnavailable)
		return
	}
	snap := sim.LatestSnapshotForMetrics()
	total := sim.TotalSections()
	occupiedSections := make(map[simulation.SectionID]bool)
	for _, wg := range snap.Wagons {
		occupiedSections[wg.Section] = true
	}
	util := 0.0
	if total > 0 {
		util = float64(len(occupiedSections)) * 100.0 / float64(total)
	}

	activeCount := 0
	for _, t := range snap.Trains {
		if t.Status == simulation.Moving.String() || t.Status == simulation.Dwelling.String() {
			activeCount++
		}
	}

	connectionsActive := 0
	for _, c := range snap.Connections {
		if c.Active {
			connectionsActive++
		}
	}

	resp := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"system": map[string]interface{}{
			"title":       sim.Options.Title,
			"description": sim.Options.Description,
			"version":     sim.Options.Version,
			"tickIndex":   snap.TickIndex,
			"simTime":     snap.SimTimeSeconds,
			"running":     sim.IsStarted(),
		},
		"totals": map[string]interface{}{
			"sections":          total,
			"connections":       len(snap.Connections),
			"connectionsActive": connectionsActive,
			"trains":            map[string]int{"total": len(snap.Trains), "active": activeCount},
		},
		"occupancy": map[string]interface{}{
			"sectionsOccupied": len(occupiedSections),
			"sectionsTotal":    total,
			"utilization":      util,
		},
		"trains":      snap.Trains,
		"wagons":      snap.Wagons,
		"connections": snap.Connections,
	}
	writeJSON(w, resp)
}

// POST /api/trains/batch uploads a CSV bulk-spawn file (spec.md §6).
func serveTrainBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusServiceUnavailable)
		return
	}
	rows, err := simulation.ParseCSVBatch(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	accepted := 0
	rejected := []map[string]interface{}{}
	for _, row := range rows {
		tt, ok := trainTypeByID(row.TrainTypeID)
		if !ok {
			rejected = append(rejected, map[string]interface{}{"trainId": int(row.TrainID), "reason": "unknown train_type_id"})
			continue
		}
		numWagons := row.NumWagons
		if numWagons <= 0 {
			numWagons = tt.NumWagons
		}
		res := make(chan simulation.CommandResult, 1)
		sim.Enqueue(simulation.SpawnCommand{
			TrainID:       row.TrainID,
			TrainCode:     row.TrainCode,
			Type:          tt,
			EntrySection:  row.EntrySection,
			NumWagons:     numWagons,
			DesiredStopID: row.DesiredStop,
			Reply:         res,
		})
		accepted++
	}
	writeJSON(w, map[string]interface{}{"accepted": accepted, "rejected": rejected})
}

// installHTTPAPI registers the REST surface (CSV batch spawn, per-section
// occupancy, per-train replan, system overview, simulation control, plus the
// analytics/hints/audit supplements) on r. Single spawns and connection toggles are hub actions
// ("train"/"spawn", "topology"/"setConnectionActive"), not REST routes.
func installHTTPAPI(r *mux.Router) {
	r.HandleFunc("/api/sections/{sectionId}/trains", serveTrainsBySection).Methods(http.MethodGet)
	r.HandleFunc("/api/trains/batch", serveTrainBatch).Methods(http.MethodPost)
	r.HandleFunc("/api/trains/{trainId}/replan", serveTrainReplan).Methods(http.MethodPost)
	r.HandleFunc("/api/system/overview", serveSystemOverview).Methods(http.MethodGet)
	r.HandleFunc("/api/analytics/kpis", serveKPI).Methods(http.MethodGet)
	r.HandleFunc("/api/analytics/historical", serveKPIHistorical).Methods(http.MethodGet)
	r.HandleFunc("/api/simulation/restart", serveSimulationRestart).Methods(http.MethodPost)
	r.HandleFunc("/api/simulation/pause", serveSimulationPause).Methods(http.MethodPost)
	r.HandleFunc("/api/simulation/resume", serveSimulationResume).Methods(http.MethodPost)
	r.HandleFunc("/api/ai/hints", serveAIHints).Methods(http.MethodGet)
	r.HandleFunc("/api/ai/hints/{hintId}/respond", serveAIHintRespond).Methods(http.MethodPost)
	r.HandleFunc("/api/audit/logs", serveAuditLogs).Methods(http.MethodGet)
	r.HandleFunc("/api/audit/stream", serveAuditStream).Methods(http.MethodGet)
}

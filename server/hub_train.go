package server

import (
	"encoding/json"
	"fmt"

	"github.com/tracktitans/railstation/simulation"
)

type trainObject struct{}

// dispatch processes requests made on the "train" object: spawning a single
// train (spec.md §6). CSV batches go through POST /api/trains/batch.
func (t *trainObject) dispatch(h *Hub, req Request, conn *connection) {
	ch := conn.pushChan
	logger.Debug("Request for train received", "submodule", "hub", "object", req.Object, "action", req.Action)
	if sim == nil {
		ch <- NewErrorResponse(req.ID, fmt.Errorf("simulation not initialized"))
		return
	}
	switch req.Action {
	case "spawn":
		var p struct {
			TrainID       int    `json:"trainId"`
			TrainCode     string `json:"trainCode"`
			TrainTypeID   int    `json:"trainTypeId"`
			EntrySection  int    `json:"entrySection"`
			NumWagons     int    `json:"numWagons"`
			DesiredStopID string `json:"desiredStopId"`
			PriorityIndex int    `json:"priorityIndex"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			ch <- NewErrorResponse(req.ID, fmt.Errorf("unparsable request: %s (%s)", err, req.Params))
			return
		}
		tt, ok := trainTypeByID(p.TrainTypeID)
		if !ok {
			ch <- NewErrorResponse(req.ID, fmt.Errorf("unknown train_type_id %d", p.TrainTypeID))
			return
		}
		numWagons := p.NumWagons
		if numWagons <= 0 {
			numWagons = tt.NumWagons
		}
		res := make(chan simulation.CommandResult, 1)
		sim.Enqueue(simulation.SpawnCommand{
			TrainID:       simulation.TrainID(p.TrainID),
			TrainCode:     p.TrainCode,
			Type:          tt,
			EntrySection:  simulation.SectionID(p.EntrySection),
			NumWagons:     numWagons,
			DesiredStopID: simulation.StopID(p.DesiredStopID),
			PriorityIndex: p.PriorityIndex,
			Reply:         res,
		})
		ch <- NewOkResponse(req.ID, "Spawn requested")
	default:
		ch <- NewErrorResponse(req.ID, fmt.Errorf("unknown action %s/%s", req.Object, req.Action))
		logger.Debug("Request for unknown action received", "submodule", "hub", "object", req.Object, "action", req.Action)
	}
}

var _ hubObject = new(trainObject)

func init() {
	hub.objects["train"] = new(trainObject)
}

// Copyright (C) 2008-2018 by Nicolas Piganeau and the TS2 TEAM
// (See AUTHORS file)
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the
// Free Software Foundation, Inc.,
// 59 Temple Place - Suite 330, Boston, MA  02111-1307, USA.

package server

import (
	"encoding/json"
	"fmt"

	"github.com/tracktitans/railstation/simulation"
)

type simulationObject struct{}

// dispatch processes requests made on the "simulation" object: lifecycle
// control (start/pause/resume/restart/clearAll) and introspection
// (isStarted/snapshot).
func (s *simulationObject) dispatch(h *Hub, req Request, conn *connection) {
	ch := conn.pushChan
	logger.Debug("Request for simulation received", "submodule", "hub", "object", req.Object, "action", req.Action)
	switch req.Action {
	case "start":
		sim.Start()
		ch <- NewOkResponse(req.ID, "Simulation started successfully")
	case "pause":
		sim.Pause()
		ch <- NewOkResponse(req.ID, "Simulation paused successfully")
	case "resume":
		sim.Resume()
		ch <- NewOkResponse(req.ID, "Simulation resumed successfully")
	case "restart":
		if sim == nil {
			ch <- NewErrorResponse(req.ID, fmt.Errorf("simulation not initialized"))
			return
		}
		autoStart := false
		if req.Params != nil {
			var params map[string]interface{}
			if err := json.Unmarshal(req.Params, &params); err == nil {
				if v, ok := params["autoStart"].(bool); ok {
					autoStart = v
				}
			}
		}
		restartSimulation(autoStart)
		ch <- NewOkResponse(req.ID, "Simulation restarted successfully")
	case "isStarted":
		j, err := json.Marshal(sim.IsStarted())
		if err != nil {
			ch <- NewErrorResponse(req.ID, fmt.Errorf("internal error: %s", err))
			return
		}
		ch <- NewResponse(req.ID, j)
	case "snapshot":
		data, err := json.Marshal(sim.LatestSnapshotForMetrics())
		if err != nil {
			ch <- NewErrorResponse(req.ID, fmt.Errorf("internal error: %s", err))
			return
		}
		ch <- NewResponse(req.ID, data)
	case "clearAll":
		res := make(chan simulation.CommandResult, 1)
		sim.Enqueue(simulation.ClearAllCommand{Reply: res})
		ch <- NewOkResponse(req.ID, "Clear requested")
	default:
		ch <- NewErrorResponse(req.ID, fmt.Errorf("unknown action %s/%s", req.Object, req.Action))
		logger.Debug("Request for unknown action received", "submodule", "hub", "object", req.Object, "action", req.Action)
	}
}

var _ hubObject = new(simulationObject)

func init() {
	hub.objects["simulation"] = new(simulationObject)
}

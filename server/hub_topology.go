package server

import (
	"encoding/json"
	"fmt"

	"github.com/tracktitans/railstation/simulation"
)

type topologyObject struct{}

// dispatch processes requests made on the "topology" object: toggling a
// connection's active flag (spec.md §6, the operator's only topology
// mutation at runtime).
func (t *topologyObject) dispatch(h *Hub, req Request, conn *connection) {
	ch := conn.pushChan
	logger.Debug("Request for topology received", "submodule", "hub", "object", req.Object, "action", req.Action)
	if sim == nil {
		ch <- NewErrorResponse(req.ID, fmt.Errorf("simulation not initialized"))
		return
	}
	switch req.Action {
	case "setConnectionActive":
		var p struct {
			From   int  `json:"from"`
			To     int  `json:"to"`
			Active bool `json:"active"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil {
			ch <- NewErrorResponse(req.ID, fmt.Errorf("unparsable request: %s (%s)", err, req.Params))
			return
		}
		res := make(chan simulation.CommandResult, 1)
		sim.Enqueue(simulation.SetConnectionActiveCommand{
			From:   simulation.SectionID(p.From),
			To:     simulation.SectionID(p.To),
			Active: p.Active,
			Reply:  res,
		})
		ch <- NewOkResponse(req.ID, "Connection toggle requested")
	default:
		ch <- NewErrorResponse(req.ID, fmt.Errorf("unknown action %s/%s", req.Object, req.Action))
		logger.Debug("Request for unknown action received", "submodule", "hub", "object", req.Object, "action", req.Action)
	}
}

var _ hubObject = new(topologyObject)

func init() {
	hub.objects["topology"] = new(topologyObject)
}

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
	"time"

	"github.com/tracktitans/railstation/simulation"
)

type suggestionsObject struct{}

// dispatch processes requests made on the "suggestions" object. Suggestions
// are advisory only, so there is no "accept" action: an operator acts on one
// through the regular "train"/"topology" requests, not by round-tripping
// through this object. The object/action labels a suggestion carries (e.g.
// "train"/"replan") are descriptive and are not dispatched by any hub object.
func (s *suggestionsObject) dispatch(h *Hub, req Request, conn *connection) {
	ch := conn.pushChan
	logger.Debug("Request for suggestions received", "submodule", "hub", "object", req.Object, "action", req.Action)
	if sim == nil {
		ch <- NewErrorResponse(req.ID, fmt.Errorf("simulation not initialized"))
		return
	}
	switch req.Action {
	case "list":
		report := sim.Suggestions
		if report == nil {
			report = &simulation.SuggestionReport{Items: []simulation.Suggestion{}}
		}
		data, err := json.Marshal(report)
		if err != nil {
			ch <- NewErrorResponse(req.ID, fmt.Errorf("internal error: %s", err))
			return
		}
		ch <- NewResponse(req.ID, data)
	case "recompute":
		sim.RecomputeSuggestions()
		ch <- NewOkResponse(req.ID, "Suggestions recomputed")
	case "reject":
		var p struct {
			ID              string  `json:"id"`
			CooldownSeconds float64 `json:"cooldownSeconds"`
		}
		if req.Params != nil {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				ch <- NewErrorResponse(req.ID, fmt.Errorf("unparsable request: %s (%s)", err, req.Params))
				return
			}
		}
		if p.ID == "" {
			ch <- NewErrorResponse(req.ID, fmt.Errorf("missing id"))
			return
		}
		cooldown := 5 * time.Minute
		if p.CooldownSeconds > 0 {
			cooldown = time.Duration(p.CooldownSeconds * float64(time.Second))
		}
		sim.RejectSuggestion(p.ID, cooldown)
		ch <- NewOkResponse(req.ID, "Suggestion rejected")
	default:
		ch <- NewErrorResponse(req.ID, fmt.Errorf("unknown action %s/%s", req.Object, req.Action))
		logger.Debug("Request for unknown action received", "submodule", "hub", "object", req.Object, "action", req.Action)
	}
}

var _ hubObject = new(suggestionsObject)

func init() {
	hub.objects["suggestions"] = new(suggestionsObject)
}

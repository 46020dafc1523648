package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

// GET /api/analytics/kpis
func serveKPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rangeParam := r.URL.Query().Get("timeRange")
	var dur time.Duration
	switch rangeParam {
	case "1h":
		dur = time.Hour
	case "6h":
		dur = 6 * time.Hour
	case "1d":
		dur = 24 * time.Hour
	case "1w":
		dur = 7 * 24 * time.Hour
	default:
		dur = time.Hour
	}
	agg, trend := aggregateKPIs(dur)
	resp := map[string]interface{}{
		"timeRange": rangeParam,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"kpis": map[string]interface{}{
			"throughput":  agg.throughput,
			"denialRate":  agg.denialRate,
			"stuckCount":  agg.stuckCount,
			"utilization": agg.utilization,
			"performance": agg.performance,
		},
		"trends": map[string]interface{}{
			"throughput":  map[string]interface{}{"change": trend.throughput, "direction": trendDirectionInt(trend.throughput)},
			"denialRate":  map[string]interface{}{"change": trend.denialRate, "direction": trendDirection(-trend.denialRate)},
			"stuckCount":  map[string]interface{}{"change": trend.stuckCount, "direction": trendDirectionInt(-trend.stuckCount)},
			"utilization": map[string]interface{}{"change": trend.utilization, "direction": trendDirection(trend.utilization)},
			"performance": map[string]interface{}{"change": trend.performance, "direction": trendDirection(trend.performance)},
		},
	}
	writeJSON(w, resp)
}

func trendDirection(v float64) string {
	if v >= 0 {
		return "UP"
	}
	return "DOWN"
}

func trendDirectionInt(v int) string {
	if v >= 0 {
		return "UP"
	}
	return "DOWN"
}

// GET /api/analytics/historical
func serveKPIHistorical(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	metric := r.URL.Query().Get("metric")
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "minutely"
	}
	metrics.mu.RLock()
	snaps := append([]kpiSnapshot{}, metrics.snapshots...)
	metrics.mu.RUnlock()
	series := make([]map[string]interface{}, 0, len(snaps))
	for _, s := range snaps {
		v := 0.0
		switch metric {
		case "throughput":
			v = float64(s.throughput)
		case "denialRate":
			v = s.denialRate
		case "stuckCount":
			v = float64(s.stuckCount)
		case "utilization":
			v = s.utilization
		default:
			v = s.performance
		}
		series = append(series, map[string]interface{}{"t": s.ts.Format(time.RFC3339), "v": v})
	}
	writeJSON(w, map[string]interface{}{"metric": metric, "period": period, "series": series})
}

// GET /api/ai/hints surfaces the advisory suggestion report (spec.md's
// suggestion-engine supplement) in a flatter shape for a dashboard widget.
func serveAIHints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusServiceUnavailable)
		return
	}
	if r.URL.Query().Get("recompute") == "1" || sim.Suggestions == nil {
		sim.RecomputeSuggestions()
	}
	type hint struct {
		ID              string                 `json:"id"`
		Kind            string                 `json:"kind"`
		Priority        string                 `json:"priority"`
		Message         string                 `json:"message"`
		Reasoning       string                 `json:"reasoning"`
		SuggestedAction map[string]interface{} `json:"suggestedAction,omitempty"`
	}
	hints := []hint{}
	if sim.Suggestions != nil {
		for _, s := range sim.Suggestions.Items {
			prio := "MEDIUM"
			switch {
			case s.Score >= 100:
				prio = "HIGH"
			case s.Score < 5:
				prio = "LOW"
			}
			var sa map[string]interface{}
			if len(s.Actions) > 0 {
				sa = map[string]interface{}{
					"object": s.Actions[0].Object,
					"action": s.Actions[0].Action,
					"params": s.Actions[0].Params,
				}
			}
			hints = append(hints, hint{
				ID:              s.ID,
				Kind:            string(s.Kind),
				Priority:        prio,
				Message:         s.Title,
				Reasoning:       s.Reason,
				SuggestedAction: sa,
			})
		}
	}
	writeJSON(w, map[string]interface{}{"hints": hints, "generatedAt": sim.Suggestions.GeneratedAt})
}

// POST /api/ai/hints/{hintId}/respond dismisses a hint for a cooldown
// window; there is no "accept" response since suggestions never trigger an
// action on their own (see hub_suggestions.go).
func serveAIHintRespond(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusServiceUnavailable)
		return
	}
	hid := mux.Vars(r)["hintId"]
	var body struct {
		DismissMinutes int `json:"dismissMinutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if body.DismissMinutes <= 0 {
		body.DismissMinutes = 5
	}
	sim.RejectSuggestion(hid, time.Duration(body.DismissMinutes)*time.Minute)
	sim.RecomputeSuggestions()
	writeJSON(w, map[string]interface{}{"status": "OK"})
}

// POST /api/simulation/restart replaces the simulation with a fresh one
// built from the topology and options captured at process start (spec.md's
// restart-to-initial-state supplement; see restartSimulation in http.go for
// what carries over).
func serveSimulationRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusServiceUnavailable)
		return
	}
	autoStart := r.URL.Query().Get("autoStart") == "1"
	restartSimulation(autoStart)
	writeJSON(w, map[string]interface{}{"status": "OK"})
}

// POST /api/simulation/pause suspends tick steps 2-7 (spec.md §6
// PauseSimulation{}).
func serveSimulationPause(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusServiceUnavailable)
		return
	}
	sim.Pause()
	writeJSON(w, map[string]interface{}{"status": "OK"})
}

// POST /api/simulation/resume lifts a prior pause (spec.md §6
// ResumeSimulation{}); it is the REST counterpart of the hub's
// "simulation"/"resume" action (spec.md line 218's pause/resume round-trip
// property).
func serveSimulationResume(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusServiceUnavailable)
		return
	}
	sim.Resume()
	writeJSON(w, map[string]interface{}{"status": "OK"})
}

// GET /api/audit/logs?sinceId=123&limit=200
func serveAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	var sinceID int64
	if sp := q.Get("sinceId"); sp != "" {
		var err error
		sinceID, err = strconv.ParseInt(sp, 10, 64)
		if err != nil {
			http.Error(w, "Bad sinceId", http.StatusBadRequest)
			return
		}
	}
	limit := 200
	if lp := q.Get("limit"); lp != "" {
		if l, err := strconv.Atoi(lp); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}
	writeJSON(w, map[string]interface{}{"items": audits.getSince(sinceID, limit)})
}

// GET /api/audit/stream (Server-Sent Events)
func serveAuditStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	ch := audits.subscribe()
	defer audits.unsubscribe(ch)
	_, _ = w.Write([]byte(":ok\n\n"))
	flusher.Flush()
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()
	enc := json.NewEncoder(w)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write([]byte("event: audit\ndata: "))
			_ = enc.Encode(e)
			_, _ = w.Write([]byte("\n"))
			flusher.Flush()
		case <-r.Context().Done():
			return
		case <-ticker.C:
			_, _ = w.Write([]byte(":hb\n\n"))
			flusher.Flush()
		}
	}
}

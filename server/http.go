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
	"fmt"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/tracktitans/railstation/simulation"
	log "gopkg.in/inconshreveable/log15.v2"
)

const (
	DefaultAddr       string = "0.0.0.0"
	DefaultPort       string = "22222"
	MaxHubStartupTime        = 3 * time.Second
)

var (
	sim    *simulation.Simulation
	logger log.Logger

	// initialTopology and initialOptions are captured at Run() time so
	// restartSimulation can rebuild a fresh Simulation instead of trying to
	// JSON-round-trip the live one, which holds mutexes and channels that
	// don't survive marshaling.
	initialTopology *simulation.Topology
	initialOptions  simulation.Options
)

// InitializeLogger creates the logger for the server module.
func InitializeLogger(parentLogger log.Logger) {
	logger = parentLogger.New("module", "server")
}

// Run starts a http web server and websocket hub for the given simulation,
// on the given address and port.
func Run(s *simulation.Simulation, topo *simulation.Topology, addr, port string) {
	logger.Info("Starting server")
	sim = s
	initialTopology = topo
	initialOptions = s.Options

	s.Subscribe(recordAuditFromEvent)
	s.Subscribe(updateMetrics)
	go broadcastSnapshots(s)

	startMetricsTicker()
	hubUp := make(chan bool)
	timer := time.After(MaxHubStartupTime)
	go hub.run(hubUp)
	select {
	case <-hubUp:
		HttpdStart(addr, port)
		os.Exit(1)
	case <-timer:
		log.Crit("Hub did not start")
		os.Exit(1)
	}
}

// broadcastSnapshots forwards every tick's Snapshot to all connected
// WebSocket clients as an unsolicited push (empty Response.ID), the way the
// teacher pushes train position updates.
func broadcastSnapshots(s *simulation.Simulation) {
	for snap := range s.SubscribeSnapshots() {
		hub.broadcast(Response{Data: snap})
	}
}

// restartSimulation replaces the running Simulation with a fresh one built
// from the topology and options captured at startup, rather than
// JSON-unmarshaling the live Simulation (see initialTopology/initialOptions
// above). The fresh Simulation shares the same *Topology, so connection
// active flags toggled at runtime keep their current values across a
// restart; trains, reservations and counters start empty. If autoStart is
// true the new simulation's tick loop is started immediately.
func restartSimulation(autoStart bool) {
	if sim != nil {
		sim.Shutdown()
	}
	fresh := simulation.NewSimulation(initialTopology, initialOptions)
	fresh.Subscribe(recordAuditFromEvent)
	fresh.Subscribe(updateMetrics)
	sim = fresh
	go broadcastSnapshots(fresh)
	if autoStart {
		fresh.Start()
	}
}

// HttpdStart starts the server which serves on the following routes:
//
//	/ - Serves a HTTP home page with the server status and information
//	    about the loaded simulation.
//
//	/ws - WebSocket endpoint for all clients and managers.
func HttpdStart(addr, port string) {
	homeTemplData, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		logger.Crit("Unable to read index.html from embedded assets", "error", err)
		return
	}
	homeTempl = template.Must(template.New("").Parse(string(homeTemplData)))

	r := mux.NewRouter()
	r.HandleFunc("/", serveHome).Methods(http.MethodGet)
	r.HandleFunc("/ws", serveWs)
	r.HandleFunc("/api/suggestions", serveSuggestions).Methods(http.MethodGet)
	installHTTPAPI(r)

	serverAddress := fmt.Sprintf("%s:%s", addr, port)
	logger.Info("Starting HTTP", "submodule", "http", "address", serverAddress)
	err = http.ListenAndServe(serverAddress, r)
	logger.Crit("HTTP crashed", "submodule", "http", "error", err)
}

var homeTempl *template.Template

// serveHome serves the html home page with integrated JS WebSocket client.
func serveHome(w http.ResponseWriter, r *http.Request) {
	logger.Debug("New HTTP connection", "submodule", "http", "remote", r.RemoteAddr)
	if r.URL.Path != "/" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Title       string
		Description string
		Host        string
	}{
		sim.Options.Title,
		sim.Options.Description,
		"ws://" + r.Host + "/ws",
	}
	homeTempl.Execute(w, data)
}

// serveSuggestions returns the current suggestions as JSON.
func serveSuggestions(w http.ResponseWriter, r *http.Request) {
	logger.Debug("New HTTP suggestions request", "submodule", "http", "remote", r.RemoteAddr)
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sim == nil {
		http.Error(w, "Simulation not initialized", http.StatusServiceUnavailable)
		return
	}
	if r.URL.Query().Get("recompute") == "1" {
		sim.RecomputeSuggestions()
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	report := sim.Suggestions
	if report == nil {
		_, _ = w.Write([]byte(`{"items":[],"generatedAt":"0001-01-01T00:00:00Z"}`))
		return
	}
	writeJSON(w, report)
}

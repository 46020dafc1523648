// Command railstation-server runs the station simulation engine behind the
// WebSocket hub and REST API defined in the server package.
package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/tracktitans/railstation/server"
	"github.com/tracktitans/railstation/simulation"
	log "gopkg.in/inconshreveable/log15.v2"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML/JSON config file (addr, port, topologyFile, tickRate, speedMultiplier)")
	addr := flag.String("addr", "", "listen address, overrides config file")
	port := flag.String("port", "", "listen port, overrides config file")
	topologyFile := flag.String("topology", "", "path to a topology description JSON file, overrides config file")
	autoStart := flag.Bool("start", true, "start the tick loop immediately")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	lvl := log.LvlInfo
	if *debug {
		lvl = log.LvlDebug
	}
	levelHandler := server.NewLevelHandler(lvl, log.StreamHandler(os.Stdout, log.LogfmtFormat()))
	root := log.New()
	root.SetHandler(levelHandler)
	simulation.InitializeLogger(root)
	server.InitializeLogger(root)

	cfg, err := server.LoadConfig(*configFile)
	if err != nil {
		root.Crit("Unable to load config", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *topologyFile != "" {
		cfg.TopologyFile = *topologyFile
	}
	if !*debug {
		levelHandler.SetLevel(server.ParseLevel(cfg.LogLevel))
	}

	if cfg.TopologyFile == "" {
		root.Crit("No topology file given; pass -topology or set topologyFile in the config")
		os.Exit(1)
	}
	f, err := os.Open(cfg.TopologyFile)
	if err != nil {
		root.Crit("Unable to open topology file", "error", err, "path", cfg.TopologyFile)
		os.Exit(1)
	}
	defer f.Close()

	var desc simulation.Description
	if err := json.NewDecoder(f).Decode(&desc); err != nil {
		root.Crit("Unable to parse topology file", "error", err, "path", cfg.TopologyFile)
		os.Exit(1)
	}
	topo, err := simulation.Load(desc)
	if err != nil {
		root.Crit("Invalid topology", "error", err)
		os.Exit(1)
	}

	opts := simulation.DefaultOptions()
	opts.TickRate = cfg.TickRate
	opts.SpeedMultiplier = cfg.SpeedMultiplier
	opts.SuggestionsEnabled = cfg.SuggestionsEnabled

	sim := simulation.NewSimulation(topo, opts)
	if *autoStart {
		sim.Start()
	}

	if err := server.WatchConfig(*configFile, func(next server.ServerConfig) {
		if !*debug {
			levelHandler.SetLevel(server.ParseLevel(next.LogLevel))
		}
		sim.Options.SuggestionsEnabled = next.SuggestionsEnabled
		root.Info("Reloaded config", "logLevel", next.LogLevel, "suggestionsEnabled", next.SuggestionsEnabled)
	}); err != nil {
		root.Warn("Unable to watch config for hot-reload", "error", err)
	}

	server.Run(sim, topo, cfg.Addr, cfg.Port)
}

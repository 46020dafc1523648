package server

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ServerConfig is the process-level configuration: listen address, the
// topology file to load, and engine tuning overrides. Loaded with its own
// viper instance rather than the package-level viper singleton, the way
// tabular's FromYaml avoids viper's global state when a process may need
// more than one independent config (spec.md's ambient config concern).
type ServerConfig struct {
	Addr               string  `mapstructure:"addr"`
	Port               string  `mapstructure:"port"`
	TopologyFile       string  `mapstructure:"topologyFile"`
	TickRate           float64 `mapstructure:"tickRate"`
	SpeedMultiplier    float64 `mapstructure:"speedMultiplier"`
	LogLevel           string  `mapstructure:"logLevel"`
	SuggestionsEnabled bool    `mapstructure:"suggestionsEnabled"`
}

// DefaultServerConfig returns the out-of-the-box configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:               DefaultAddr,
		Port:               DefaultPort,
		TickRate:           10,
		SpeedMultiplier:    1.0,
		LogLevel:           "info",
		SuggestionsEnabled: true,
	}
}

func newConfigViper(path string, defaults ServerConfig) *viper.Viper {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.AddConfigPath(filepath.Dir(path))
	vp.SetDefault("addr", defaults.Addr)
	vp.SetDefault("port", defaults.Port)
	vp.SetDefault("tickRate", defaults.TickRate)
	vp.SetDefault("speedMultiplier", defaults.SpeedMultiplier)
	vp.SetDefault("logLevel", defaults.LogLevel)
	vp.SetDefault("suggestionsEnabled", defaults.SuggestionsEnabled)
	return vp
}

// LoadConfig reads a YAML/JSON/TOML config file (auto-detected by viper's
// extension sniffing) at path, falling back to DefaultServerConfig for any
// field the file leaves unset.
func LoadConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path == "" {
		return cfg, nil
	}
	vp := newConfigViper(path, cfg)
	if err := vp.ReadInConfig(); err != nil {
		return cfg, err
	}
	if err := vp.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// WatchConfig re-reads path on every write (via viper's fsnotify-backed
// WatchConfig/OnConfigChange) and hands the freshly parsed ServerConfig to
// onChange. Only logLevel and suggestionsEnabled are meant to be adjusted
// this way at runtime; addr/port/topologyFile/tickRate/speedMultiplier
// changes in the file are picked up too but have no live effect, since
// rebinding the listener or reloading the topology requires restarting the
// process (restartSimulation in http.go reuses the topology and options
// captured at startup). A no-op if path is empty.
func WatchConfig(path string, onChange func(ServerConfig)) error {
	if path == "" {
		return nil
	}
	cfg := DefaultServerConfig()
	vp := newConfigViper(path, cfg)
	if err := vp.ReadInConfig(); err != nil {
		return err
	}
	vp.WatchConfig()
	vp.OnConfigChange(func(_ fsnotify.Event) {
		next := DefaultServerConfig()
		if err := vp.Unmarshal(&next); err != nil {
			logger.Warn("Ignoring unparseable config reload", "error", err, "path", path)
			return
		}
		onChange(next)
	})
	return nil
}

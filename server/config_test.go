package server

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadConfig(t *testing.T) {
	Convey("Given no config path", t, func() {
		Convey("LoadConfig returns the defaults", func() {
			cfg, err := LoadConfig("")
			So(err, ShouldBeNil)
			So(cfg, ShouldResemble, DefaultServerConfig())
		})
	})

	Convey("Given a YAML config file overriding some fields", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		contents := "addr: 127.0.0.1\nport: \"9090\"\ntopologyFile: topo.json\ntickRate: 5\n"
		So(os.WriteFile(path, []byte(contents), 0644), ShouldBeNil)

		Convey("LoadConfig applies the overrides and keeps defaults for the rest", func() {
			cfg, err := LoadConfig(path)
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, "127.0.0.1")
			So(cfg.Port, ShouldEqual, "9090")
			So(cfg.TopologyFile, ShouldEqual, "topo.json")
			So(cfg.TickRate, ShouldEqual, float64(5))
			So(cfg.SpeedMultiplier, ShouldEqual, DefaultServerConfig().SpeedMultiplier)
		})
	})

	Convey("Given a nonexistent config path", t, func() {
		Convey("LoadConfig returns an error", func() {
			_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}

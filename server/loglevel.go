package server

import (
	"sync/atomic"

	log "gopkg.in/inconshreveable/log15.v2"
)

// LevelHandler wraps a log15.Handler behind an atomically swappable minimum
// level, so WatchConfig's fsnotify callback can raise or lower verbosity
// without restarting the process.
type LevelHandler struct {
	lvl atomic.Int32
	h   log.Handler
}

// NewLevelHandler returns a LevelHandler starting at initial, logging
// through h.
func NewLevelHandler(initial log.Lvl, h log.Handler) *LevelHandler {
	lh := &LevelHandler{h: h}
	lh.lvl.Store(int32(initial))
	return lh
}

// SetLevel changes the minimum level records must meet to pass through.
func (lh *LevelHandler) SetLevel(lvl log.Lvl) { lh.lvl.Store(int32(lvl)) }

// Log implements log15.Handler.
func (lh *LevelHandler) Log(r *log.Record) error {
	if r.Lvl > log.Lvl(lh.lvl.Load()) {
		return nil
	}
	return lh.h.Log(r)
}

// ParseLevel falls back to log.LvlInfo for an empty or unrecognized string,
// rather than erroring, since a bad logLevel in a hot-reloaded config file
// shouldn't take down logging.
func ParseLevel(s string) log.Lvl {
	lvl, err := log.LvlFromString(s)
	if err != nil {
		return log.LvlInfo
	}
	return lvl
}

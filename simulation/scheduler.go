package simulation

import (
	"sync"
	"time"

	log "gopkg.in/inconshreveable/log15.v2"
)

// logger is the package-level log15 logger, wired up by InitializeLogger the
// way the teacher's server package wires its own.
var logger = log.New("module", "simulation")

// InitializeLogger rebinds the package logger under parentLogger, for a host
// process that wants every subsystem's logs under one root logger.
func InitializeLogger(parentLogger log.Logger) {
	logger = parentLogger.New("module", "simulation")
}

// commandQueueCapacity bounds the inbound command channel (spec.md §5:
// "a bounded command queue").
const commandQueueCapacity = 256

// snapshotQueueCapacity is kept at 1 per subscriber: a new snapshot simply
// replaces any undelivered one (spec.md §5 "drop stalest pending snapshot
// per subscriber").
const snapshotQueueCapacity = 1

// Simulation is the Scheduler plus every piece of state it exclusively owns:
// the topology, reservation table, router, live trains, and tick/time
// counters (spec.md §9: "one owned state bundle, no module-level mutable
// state"). All mutation happens on the single goroutine running Tick; other
// goroutines only enqueue Commands or read published Snapshots.
type Simulation struct {
	Options Options

	topo   *Topology
	res    *ReservationTable
	router *Router
	signaler *Signaler
	bus    eventBus

	trains map[TrainID]*Train

	tickIndex int64
	simTime   float64

	commands chan Command

	mu       sync.Mutex
	started  bool
	paused   bool
	stopCh   chan struct{}
	stopped  chan struct{}

	subsMu sync.Mutex
	subs   []chan Snapshot

	Suggestions  *SuggestionReport
	suggestState *suggestionEngineState

	snapMu         sync.RWMutex
	latestSnapshot Snapshot
}

// LatestSnapshotForMetrics returns the most recently emitted snapshot,
// safe to call from any goroutine. Intended for low-frequency polling (e.g.
// a metrics ticker); high-frequency consumers should use
// SubscribeSnapshots instead.
func (s *Simulation) LatestSnapshotForMetrics() Snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.latestSnapshot
}

// TotalSections reports the topology's section count, for utilization KPIs.
func (s *Simulation) TotalSections() int {
	return len(s.topo.AllSections())
}

// NewSimulation builds a Simulation over topo with opts, ready to accept
// commands and run. Ownership of topo passes to the Simulation.
func NewSimulation(topo *Topology, opts Options) *Simulation {
	res := NewReservationTable(topo)
	return &Simulation{
		Options:  opts,
		topo:     topo,
		res:      res,
		router:   NewRouter(topo, opts.ReversePenalty),
		signaler: NewSignaler(topo, res, opts),
		trains:   make(map[TrainID]*Train),
		commands: make(chan Command, commandQueueCapacity),
		stopped:  make(chan struct{}),
	}
}

// Subscribe registers a sink for engine Events (audit log, metrics).
func (s *Simulation) Subscribe(sink EventSink) { s.bus.Subscribe(sink) }

// SubscribeSnapshots returns a channel receiving one Snapshot per tick, with
// drop-oldest backpressure if the subscriber falls behind.
func (s *Simulation) SubscribeSnapshots() <-chan Snapshot {
	ch := make(chan Snapshot, snapshotQueueCapacity)
	s.subsMu.Lock()
	s.subs = append(s.subs, ch)
	s.subsMu.Unlock()
	return ch
}

func (s *Simulation) publish(snap Snapshot) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Enqueue submits a command for the next tick boundary (spec.md §5: "a
// bounded command queue"). Blocks only if the queue is full, which signals a
// misbehaving caller flooding the engine.
func (s *Simulation) Enqueue(cmd Command) {
	s.commands <- cmd
}

// IsStarted reports whether the tick loop goroutine is running.
func (s *Simulation) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Start launches the tick loop at Options.TickRate, scaled by
// Options.SpeedMultiplier (spec.md §4.7).
func (s *Simulation) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.paused = false
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	go s.run()
}

// Pause requests tick steps 2-7 be skipped (spec.md §6 PauseSimulation{});
// step 1 keeps draining commands so Resume/Shutdown are never stranded.
// Routed through the command queue like every other inbound control
// request, rather than mutating s.paused directly, so a Pause enqueued
// before a Resume is never applied out of order (spec.md §5: FIFO command
// ordering) and takes effect at step 1 of the tick that drains it.
func (s *Simulation) Pause() {
	s.Enqueue(PauseSimulationCommand{})
}

// Resume lifts a prior Pause (spec.md §6 ResumeSimulation{}), taking effect
// the same way Pause does.
func (s *Simulation) Resume() {
	s.Enqueue(ResumeSimulationCommand{})
}

// Shutdown requests the tick loop complete its current tick, emit a final
// snapshot, and stop (spec.md §5 "Cancellation").
func (s *Simulation) Shutdown() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()
	<-s.stopped
}

func (s *Simulation) run() {
	ticker := time.NewTicker(s.Options.TickDuration())
	defer ticker.Stop()
	defer close(s.stopped)
	for {
		select {
		case <-s.stopCh:
			s.drainCommands()
			s.tick()
			s.mu.Lock()
			s.started = false
			s.mu.Unlock()
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick runs the seven ordered steps of spec.md §4.7 once.
func (s *Simulation) tick() {
	s.drainCommands()

	s.mu.Lock()
	paused := s.paused
	s.mu.Unlock()
	if paused {
		return
	}

	dt := s.Options.SimSecondsPerTick()
	ordered := s.orderedTrains()

	for _, t := range ordered {
		s.advanceDwell(t, dt)
		s.maybeReplan(t)
	}

	admitted := s.signaler.Evaluate(ordered, dt)

	for _, t := range ordered {
		if t.Status != Moving {
			continue
		}
		s.stepTrain(t, dt, admitted[t.ID])
	}

	for _, t := range ordered {
		s.exitHeadWagon(t)
		if s.despawnIfDone(t) {
			delete(s.trains, t.ID)
		}
	}

	s.tickIndex++
	s.simTime += dt
	snap := s.buildSnapshot()
	s.snapMu.Lock()
	s.latestSnapshot = snap
	s.snapMu.Unlock()
	s.bus.emit(&Event{Name: TickCompletedEvent, Object: &snap})
	s.publish(snap)

	if s.Options.SuggestionsEnabled {
		s.RecomputeSuggestions()
	}
}

// stepTrain runs Kinematics for one train: advance offsets tail-first,
// compute pending transitions from a pre-tick snapshot, and commit them
// head-first (see kinematics.go for why the commit order differs from the
// offset-advance order).
func (s *Simulation) stepTrain(t *Train, dt float64, headAdmitted bool) {
	snapshot := make([]SectionID, len(t.Wagons))
	for i, w := range t.Wagons {
		snapshot[i] = w.Section
	}

	advanceOffsets(t, s.topo, dt)

	// A denial clamp only makes sense when the head actually has a next
	// section to be denied entry to. Once the plan is exhausted (the head
	// sits at its final, despawn, section) there is nothing to deny: the
	// offset is left free to keep growing past 1.0 so exitHeadWagon can
	// detect the wagon has crossed fully past the boundary.
	if _, hasNext := t.Plan.Head(); hasNext {
		if !headAdmitted && t.HeadWagon() != nil && t.HeadWagon().Offset >= 1.0 {
			t.HeadWagon().Offset = 1.0 - s.Options.AdmissionEpsilon
			t.DeniedTicks++
			s.bus.emit(&Event{Name: TrainDeniedEvent, Object: t})
		}
	}

	transitions := computeTransitions(t, snapshot)
	for _, tr := range transitions {
		if tr.index == 0 && !headAdmitted {
			continue
		}
		// A follower waits at its boundary while the wagon ahead still sits
		// in the section it would enter (one wagon per section).
		if tr.index > 0 && t.Wagons[tr.index-1].Section == tr.to {
			t.Wagons[tr.index].Offset = 1
			continue
		}
		if !commitTransition(s.res, t.ID, &t.Wagons[tr.index], tr.to, tr.carryOffset) {
			continue
		}
		if tr.index == 0 {
			t.DeniedTicks = 0
			cameFrom := tr.from
			if newBlock, ok := s.topo.BlockOf(tr.to); ok {
				if oldBlock, hadOld := s.topo.BlockOf(tr.from); !hadOld || oldBlock != newBlock {
					t.PreviousBlock = oldBlock
				}
			}
			t.Direction = edgeSign(tr.from, tr.to)
			t.Plan.Advance()
			s.checkArrival(t, cameFrom)
		}
	}
}

// orderedTrains returns active trains sorted by priority_index descending,
// train id ascending (spec.md §4.7 step 2).
func (s *Simulation) orderedTrains() []*Train {
	out := make([]*Train, 0, len(s.trains))
	for _, t := range s.trains {
		if t.Status == Despawned {
			continue
		}
		out = append(out, t)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && less(out[j], out[j-1]); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func less(a, b *Train) bool {
	if a.PriorityIndex != b.PriorityIndex {
		return a.PriorityIndex > b.PriorityIndex
	}
	return a.ID < b.ID
}

// drainCommands applies every command currently queued, in FIFO order
// (spec.md §5: "Command A enqueued before command B is visible to the tick
// in the same order").
func (s *Simulation) drainCommands() {
	for {
		select {
		case cmd := <-s.commands:
			s.applyCommand(cmd)
		default:
			return
		}
	}
}

func (s *Simulation) applyCommand(cmd Command) {
	switch c := cmd.(type) {
	case SpawnCommand:
		_, err := s.spawnTrain(c)
		if err != nil {
			s.bus.emit(&Event{Name: SpawnRejectedEvent, Object: err})
			reply(c.Reply, rejected(err))
			return
		}
		reply(c.Reply, ok())
	case SetConnectionActiveCommand:
		if err := s.setConnectionActive(c); err != nil {
			s.bus.emit(&Event{Name: SwitchRejectedEvent, Object: err})
			reply(c.Reply, rejected(err))
			return
		}
		reply(c.Reply, ok())
	case ClearAllCommand:
		s.clearAll()
		reply(c.Reply, ok())
	case PauseSimulationCommand:
		s.mu.Lock()
		s.paused = true
		s.mu.Unlock()
		reply(c.Reply, ok())
	case ResumeSimulationCommand:
		s.mu.Lock()
		s.paused = false
		s.mu.Unlock()
		reply(c.Reply, ok())
	case ShutdownCommand:
		reply(c.Reply, ok())
	}
}

// setConnectionActive toggles a connection, rejecting with SwitchOccupied if
// a wagon currently sits on either endpoint section (spec.md §7).
func (s *Simulation) setConnectionActive(c SetConnectionActiveCommand) error {
	if !s.res.IsSectionFree(c.From) || !s.res.IsSectionFree(c.To) {
		return &SwitchRejectedError{From: c.From, To: c.To, Reason: SwitchOccupied}
	}
	if err := s.topo.SetConnectionActive(c.From, c.To, c.Active); err != nil {
		return err
	}
	s.bus.emit(&Event{Name: ConnectionToggledEvent, Object: &c})
	for _, t := range s.trains {
		s.retryStuck(t)
	}
	return nil
}

// clearAll removes every train and resets the Reservation Table (spec.md
// §6, §8 round-trip property).
func (s *Simulation) clearAll() {
	for id := range s.trains {
		s.res.ReleaseAll(id)
	}
	s.trains = make(map[TrainID]*Train)
}

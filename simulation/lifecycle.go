package simulation

// spawnTrain validates and admits a new train at its configured entry
// section, laying out its trailing wagons on the predecessor sections of
// the entry point so the whole consist occupies distinct, adjacent sections
// from the first tick (spec.md §4.6).
func (s *Simulation) spawnTrain(req SpawnCommand) (*Train, error) {
	if _, exists := s.trains[req.TrainID]; exists {
		return nil, &SpawnRejectedError{Train: req.TrainID, Reason: DuplicateTrainId}
	}
	if req.NumWagons < 1 || req.NumWagons > 15 {
		return nil, &SpawnRejectedError{Train: req.TrainID, Reason: InvalidWagonCount}
	}
	if !s.topo.IsSpawn(req.EntrySection) {
		return nil, &SpawnRejectedError{Train: req.TrainID, Reason: UnknownEntrySection}
	}
	var desiredStop StopID
	if req.DesiredStopID != "" {
		if _, ok := s.topo.StopByID(req.DesiredStopID); !ok {
			return nil, &SpawnRejectedError{Train: req.TrainID, Reason: UnknownStop}
		}
		desiredStop = req.DesiredStopID
	}

	sections, err := layoutTrailingSections(s.topo, req.EntrySection, req.NumWagons)
	if err != nil {
		return nil, &SpawnRejectedError{Train: req.TrainID, Reason: InvalidWagonCount}
	}
	entryBlock, hasBlock := s.topo.BlockOf(req.EntrySection)
	if !s.res.IsSectionFree(req.EntrySection) {
		return nil, &SpawnRejectedError{Train: req.TrainID, Reason: EntryOccupied}
	}
	if hasBlock && !s.res.IsBlockFreeFor(entryBlock, req.TrainID) {
		return nil, &SpawnRejectedError{Train: req.TrainID, Reason: EntryBlockHeld}
	}
	for _, sec := range sections[1:] {
		if !s.res.IsSectionFree(sec) {
			return nil, &SpawnRejectedError{Train: req.TrainID, Reason: EntryOccupied}
		}
	}

	wagons := make([]Wagon, req.NumWagons)
	for i, sec := range sections {
		wagons[i] = Wagon{Section: sec, Offset: 0}
	}
	for _, sec := range sections {
		s.res.TryReserve(req.TrainID, sec)
	}

	t := &Train{
		ID:            req.TrainID,
		Code:          req.TrainCode,
		Type:          req.Type,
		Wagons:        wagons,
		Status:        Scheduled,
		Direction:     Forward,
		PriorityIndex: req.PriorityIndex,
		DesiredStop:   desiredStop,
	}

	goal := s.pickGoal(t)
	plan, err := s.router.FindRoute(t.ID, req.EntrySection, t.PreviousBlock, t.Direction, goal)
	if err != nil {
		t.Status = Stuck
		s.trains[t.ID] = t
		s.bus.emit(&Event{Name: TrainStuckEvent, Object: t})
		return t, nil
	}
	t.Plan = &RoutePlan{Sections: plan, Cursor: 1}
	t.Status = Moving
	s.trains[t.ID] = t
	s.bus.emit(&Event{Name: TrainSpawnedEvent, Object: t})
	return t, nil
}

// layoutTrailingSections walks predecessors backward from entry to find
// numWagons-1 sections behind it for the train's initial tail.
func layoutTrailingSections(topo *Topology, entry SectionID, numWagons int) ([]SectionID, error) {
	out := make([]SectionID, 0, numWagons)
	out = append(out, entry)
	cur := entry
	for i := 1; i < numWagons; i++ {
		preds := topo.Predecessors(cur)
		if len(preds) == 0 {
			return nil, &InvariantViolationError{Which: "no predecessor section for spawn layout"}
		}
		cur = preds[0]
		out = append(out, cur)
	}
	return out, nil
}

// pickGoal resolves the section a train's route should currently target:
// its desired stop if one remains unserved, otherwise the nearest despawn
// section (spec.md §4.6).
func (s *Simulation) pickGoal(t *Train) SectionID {
	if t.DesiredStop != "" {
		if stop, ok := s.topo.StopByID(t.DesiredStop); ok && !t.HasDwelledAt[stop.Section] {
			return stop.Section
		}
	}
	return s.nearestDespawn(t)
}

// nearestDespawn returns a despawn section for the train to head toward.
// Either despawn section is reachable from either spawn point depending on
// the chosen route (spec.md §5.1 of SPEC_FULL.md); the one with the shortest
// route from the head wins, unreachable ones are skipped, and the
// lowest-numbered despawn section is returned when none is reachable.
func (s *Simulation) nearestDespawn(t *Train) SectionID {
	despawns := sortedSectionIDs(s.topo.DespawnSections())
	best := despawns[0]
	head := t.HeadWagon()
	if head == nil {
		return best
	}
	bestLen := -1
	for _, d := range despawns {
		path, err := s.router.FindRoute(t.ID, head.Section, t.PreviousBlock, t.Direction, d)
		if err == nil && (bestLen < 0 || len(path) < bestLen) {
			best, bestLen = d, len(path)
		}
	}
	return best
}

// advanceDwell counts down a train's dwell timer, returning it to Moving
// with a new goal once it expires (spec.md §4.4, §4.6).
func (s *Simulation) advanceDwell(t *Train, dt float64) {
	if t.Status != Dwelling {
		return
	}
	t.DwellRemaining -= dt
	if t.DwellRemaining > 0 {
		return
	}
	t.markDwelled(t.HeadWagon().Section)
	goal := s.pickGoal(t)
	head := t.HeadWagon()
	plan, err := s.router.FindRoute(t.ID, head.Section, t.PreviousBlock, t.Direction, goal)
	if err != nil {
		t.Status = Stuck
		s.bus.emit(&Event{Name: TrainStuckEvent, Object: t})
		return
	}
	t.Plan = &RoutePlan{Sections: plan, Cursor: 1}
	t.Status = Moving
	t.DeniedTicks = 0
	s.bus.emit(&Event{Name: TrainDwellEndedEvent, Object: t})
}

// checkArrival detects whether the head has just reached its route's goal
// section from the mandated approach direction, triggering a dwell (spec.md
// §4.6). Called after Kinematics has committed the head's transition. An
// arrival from the wrong side marks the stop as passed, so the train's next
// goal is a despawn section.
func (s *Simulation) checkArrival(t *Train, cameFrom SectionID) {
	if t.Status != Moving || t.DesiredStop == "" {
		return
	}
	head := t.HeadWagon()
	stop, ok := s.topo.StopByID(t.DesiredStop)
	if !ok || stop.Section != head.Section || t.HasDwelledAt[stop.Section] {
		return
	}
	if !approachMatches(stop.Approach, cameFrom, head.Section) {
		t.markDwelled(stop.Section)
		return
	}
	t.Status = Dwelling
	t.DwellRemaining = s.Options.DwellSeconds
	s.bus.emit(&Event{Name: TrainDwellStartedEvent, Object: t})
}

// maybeReplan triggers a fresh route search when the train has been denied
// admission for longer than BlockGraceTicks, or has exhausted its plan
// without reaching its goal (spec.md §4.3).
func (s *Simulation) maybeReplan(t *Train) {
	if t.Status != Moving || t.Plan == nil {
		return
	}
	needsReplan := t.DeniedTicks > s.Options.BlockGraceTicks || t.Plan.Done()
	if !needsReplan {
		return
	}
	head := t.HeadWagon()
	goal := s.pickGoal(t)
	if t.Plan.Done() && head.Section == goal {
		return
	}
	plan, err := s.router.FindRoute(t.ID, head.Section, t.PreviousBlock, t.Direction, goal)
	if err != nil {
		t.Status = Stuck
		s.bus.emit(&Event{Name: TrainStuckEvent, Object: t})
		return
	}
	t.Plan = &RoutePlan{Sections: plan, Cursor: 1}
	t.DeniedTicks = 0
	s.bus.emit(&Event{Name: TrainReplannedEvent, Object: t})
}

// retryStuck attempts to route a Stuck train again, called after any
// connection toggle (spec.md §4.5 state machine: Stuck -> Moving on graph
// change).
func (s *Simulation) retryStuck(t *Train) {
	if t.Status != Stuck {
		return
	}
	head := t.HeadWagon()
	goal := s.pickGoal(t)
	plan, err := s.router.FindRoute(t.ID, head.Section, t.PreviousBlock, t.Direction, goal)
	if err != nil {
		return
	}
	t.Plan = &RoutePlan{Sections: plan, Cursor: 1}
	t.Status = Moving
	t.DeniedTicks = 0
	s.bus.emit(&Event{Name: TrainReplannedEvent, Object: t})
}

// exitHeadWagon removes the lead wagon once it has fully crossed past a
// despawn section with no further plan step: spec.md §4.6 "despawn releases
// sections from the tail as wagons cross the exit boundary". Because the
// head's route plan is exhausted at the despawn section, Kinematics leaves
// its position_offset free to keep growing past 1.0 instead of committing a
// (nonexistent) next-section transition; once it reaches a full section's
// worth past the boundary the wagon is considered to have left the layout.
func (s *Simulation) exitHeadWagon(t *Train) {
	if t.Status != Moving || t.Plan == nil || !t.Plan.Done() {
		return
	}
	head := t.HeadWagon()
	if head == nil || !s.topo.IsDespawn(head.Section) || head.Offset < 1.0 {
		return
	}
	s.res.Release(t.ID, head.Section)
	t.Wagons = t.Wagons[1:]
}

// despawnIfDone removes a train entirely once every wagon has exited the
// layout (spec.md §4.6).
func (s *Simulation) despawnIfDone(t *Train) bool {
	if t.Status == Despawned {
		return false
	}
	if len(t.Wagons) > 0 {
		return false
	}
	t.Status = Despawned
	s.bus.emit(&Event{Name: TrainDespawnedEvent, Object: t})
	return true
}

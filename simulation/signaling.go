package simulation

import "sort"

// admissionDecision is the outcome of evaluating one train's head against
// the current Reservation Table and Topology for this tick (spec.md §4.5).
type admissionDecision struct {
	train   *Train
	sNext   SectionID
	bNext   BlockID
	sameBlk bool
	ok      bool
}

// Signaler evaluates per-tick admission for every train whose head is close
// enough to its section boundary to cross this tick, and arbitrates
// simultaneous claims by priority (spec.md §4.5).
type Signaler struct {
	topo *Topology
	res  *ReservationTable
	opts Options
}

// NewSignaler builds a Signaler bound to topo, res and opts.
func NewSignaler(topo *Topology, res *ReservationTable, opts Options) *Signaler {
	return &Signaler{topo: topo, res: res, opts: opts}
}

// willCross reports whether a wagon at offset o advancing this tick would
// reach or exceed the section boundary, i.e. is within ADMISSION_EPSILON of
// crossing (spec.md §4.5).
func (s *Signaler) willCross(offset, dt float64, speed float64, length float64) bool {
	if length <= 0 {
		length = 1
	}
	projected := offset + speed*dt/length
	return projected >= 1.0-s.opts.AdmissionEpsilon
}

// Evaluate runs the admission pass for trains sorted by priority_index
// descending then train id ascending (spec.md §4.7 step 2), returning the
// set of trains admitted to cross into their next section this tick. Denied
// trains have their DeniedTicks incremented by the caller
// (Simulation.stepTrain).
func (s *Signaler) Evaluate(trains []*Train, dt float64) map[TrainID]bool {
	ordered := make([]*Train, len(trains))
	copy(ordered, trains)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].PriorityIndex != ordered[j].PriorityIndex {
			return ordered[i].PriorityIndex > ordered[j].PriorityIndex
		}
		return ordered[i].ID < ordered[j].ID
	})

	admitted := make(map[TrainID]bool, len(ordered))
	claimedSections := make(map[SectionID]TrainID)
	claimedBlocks := make(map[BlockID]TrainID)

	for _, t := range ordered {
		if t.Status != Moving || t.Plan == nil {
			continue
		}
		head := t.HeadWagon()
		if head == nil {
			continue
		}
		length := s.topo.SectionLength(head.Section)
		if !s.willCross(head.Offset, dt, t.Type.Speed, length) {
			continue
		}
		sNext, ok := t.Plan.Head()
		if !ok {
			continue
		}
		if !s.admissible(t, head.Section, sNext, claimedSections, claimedBlocks) {
			continue
		}
		admitted[t.ID] = true
		claimedSections[sNext] = t.ID
		if b, ok := s.topo.BlockOf(sNext); ok {
			claimedBlocks[b] = t.ID
		}
	}
	return admitted
}

// admissible implements spec.md §4.5 rule 3 plus the priority arbitration of
// rule 4 against trains already admitted earlier in this same pass (which,
// by construction, are the higher-or-equal priority ones).
func (s *Signaler) admissible(t *Train, from, to SectionID, claimedSections map[SectionID]TrainID, claimedBlocks map[BlockID]TrainID) bool {
	conn := s.topo.RawConnection(from, to)
	if conn == nil || !conn.allows(t.PreviousBlock) {
		return false
	}
	if owner, claimed := claimedSections[to]; claimed && owner != t.ID {
		return false
	}
	if !s.res.IsSectionFree(to) {
		if owner, _ := s.res.Peek(to); owner != t.ID {
			return false
		}
	}

	currentBlock, _ := s.topo.BlockOf(from)
	nextBlock, hasNextBlock := s.topo.BlockOf(to)
	if hasNextBlock && nextBlock != currentBlock {
		if owner, claimed := claimedBlocks[nextBlock]; claimed && owner != t.ID {
			return false
		}
		if !s.res.IsBlockFreeFor(nextBlock, t.ID) {
			return false
		}
		if !s.res.CanEventuallyLeave(t.ID, nextBlock, currentBlock, s.opts.BoundedLookaheadSteps) {
			return false
		}
	}

	if stop, ok := s.topo.StopAt(to); ok {
		if !approachMatches(stop.Approach, from, to) {
			// Wrong-side approach is not a routing failure; the train may
			// still enter, it simply will not dwell (spec.md §4.6).
			_ = stop
		}
	}

	return true
}

// approachMatches reports whether moving from 'from' into 'to' satisfies
// to's mandated approach direction.
func approachMatches(a Approach, from, to SectionID) bool {
	switch a {
	case ApproachFromLower:
		return from < to
	case ApproachFromHigher:
		return from > to
	default:
		return true
	}
}

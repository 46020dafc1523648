package simulation

// ReservationTable is the authoritative occupancy index over sections and
// the derived occupancy over blocks (spec.md §4.2). All operations execute
// within the serial tick; no cross-thread contention is possible, so no
// locking is used here (the Scheduler owns exclusive access, spec.md §5).
type ReservationTable struct {
	topo *Topology

	sectionOwner map[SectionID]TrainID
	// blockHolders counts, per block, how many sections each train
	// currently holds in it. Rebuilt from sectionOwner on every release to
	// avoid drift (spec.md §4.2).
	blockHolders map[BlockID]map[TrainID]int
}

// NewReservationTable creates an empty table bound to topo.
func NewReservationTable(topo *Topology) *ReservationTable {
	return &ReservationTable{
		topo:         topo,
		sectionOwner: make(map[SectionID]TrainID),
		blockHolders: make(map[BlockID]map[TrainID]int),
	}
}

// Peek returns the train occupying section, if any.
func (r *ReservationTable) Peek(section SectionID) (TrainID, bool) {
	t, ok := r.sectionOwner[section]
	return t, ok
}

// PeekBlock returns the train currently holding block, if any single train
// holds it (spec.md §3 invariant 2 guarantees at most one).
func (r *ReservationTable) PeekBlock(block BlockID) (TrainID, bool) {
	holders := r.blockHolders[block]
	for tid, n := range holders {
		if n > 0 {
			return tid, true
		}
	}
	return NoTrain, false
}

// IsSectionFree reports whether no train currently holds section.
func (r *ReservationTable) IsSectionFree(section SectionID) bool {
	_, held := r.sectionOwner[section]
	return !held
}

// IsBlockFreeFor reports whether block is free, or already held entirely by
// train (spec.md §4.2 try_reserve contract).
func (r *ReservationTable) IsBlockFreeFor(block BlockID, train TrainID) bool {
	holder, held := r.PeekBlock(block)
	return !held || holder == train
}

// TryReserve succeeds only if section is free AND the block containing it
// is free or already held by train (spec.md §4.2). On success the section
// (and, transitively, the block) is marked held by train.
func (r *ReservationTable) TryReserve(train TrainID, section SectionID) bool {
	if owner, held := r.sectionOwner[section]; held && owner != train {
		return false
	}
	block, hasBlock := r.topo.BlockOf(section)
	if hasBlock && !r.IsBlockFreeFor(block, train) {
		return false
	}
	r.sectionOwner[section] = train
	if hasBlock {
		if r.blockHolders[block] == nil {
			r.blockHolders[block] = make(map[TrainID]int)
		}
		r.blockHolders[block][train]++
	}
	return true
}

// Release releases train's hold on section; if that was train's last
// presence in the section's block, the block is released too. The
// block-presence counters are then rebuilt from the section map to avoid
// drift (spec.md §4.2).
func (r *ReservationTable) Release(train TrainID, section SectionID) {
	if owner, held := r.sectionOwner[section]; !held || owner != train {
		return
	}
	delete(r.sectionOwner, section)
	r.rebuildBlockCounters()
}

// rebuildBlockCounters recomputes blockHolders from sectionOwner, which is
// the single source of truth. This is the "rebuild on release" behavior
// spec.md §4.2 mandates to avoid counter drift.
func (r *ReservationTable) rebuildBlockCounters() {
	fresh := make(map[BlockID]map[TrainID]int)
	for section, train := range r.sectionOwner {
		block, ok := r.topo.BlockOf(section)
		if !ok {
			continue
		}
		if fresh[block] == nil {
			fresh[block] = make(map[TrainID]int)
		}
		fresh[block][train]++
	}
	r.blockHolders = fresh
}

// ReleaseAll releases every section currently held by train. Used on
// despawn and on ClearAll.
func (r *ReservationTable) ReleaseAll(train TrainID) {
	for section, owner := range r.sectionOwner {
		if owner == train {
			delete(r.sectionOwner, section)
		}
	}
	r.rebuildBlockCounters()
}

// CanEventuallyLeave implements the bounded-lookahead exit check from
// spec.md §4.2/§4.5: a train may enter block b only if b contains a despawn
// section, or at least one edge leaving b, under the current active
// configuration, leads to a section with no block, to a block free for
// train, or to a held block from which the same check succeeds within depth
// steps. Edges that stay inside b are not exits. This prevents admitting a
// train into a dead-end-to-it block.
func (r *ReservationTable) CanEventuallyLeave(train TrainID, block BlockID, previousBlock BlockID, depth int) bool {
	if depth <= 0 {
		depth = 1
	}
	visited := map[BlockID]bool{block: true}
	return r.canLeaveFrom(train, block, previousBlock, depth, visited)
}

func (r *ReservationTable) canLeaveFrom(train TrainID, block BlockID, previousBlock BlockID, depth int, visited map[BlockID]bool) bool {
	sections := r.topo.SectionsOf(block)
	for _, s := range sections {
		if r.topo.IsDespawn(s) {
			return true
		}
		for _, c := range r.topo.Neighbors(s, previousBlock) {
			nextBlock, hasBlock := r.topo.BlockOf(c.To)
			if !hasBlock {
				return true
			}
			if nextBlock == block {
				continue
			}
			if r.IsBlockFreeFor(nextBlock, train) {
				return true
			}
			if depth > 1 && !visited[nextBlock] {
				visited[nextBlock] = true
				if r.canLeaveFrom(train, nextBlock, block, depth-1, visited) {
					return true
				}
			}
		}
	}
	return false
}

package simulation

// advanceOffsets moves every wagon's continuous within-section offset
// forward by speed*dt (spec.md §4.4). The order in which wagons are visited
// does not matter for this step since each wagon's offset only depends on
// its own prior value, but we walk tail-first (highest index first) to
// mirror the order spec.md §4.4 describes for wagon processing.
func advanceOffsets(t *Train, topo *Topology, dt float64) {
	speed := t.Type.Speed
	for i := len(t.Wagons) - 1; i >= 0; i-- {
		w := &t.Wagons[i]
		length := topo.SectionLength(w.Section)
		if length <= 0 {
			length = 1
		}
		w.Offset += speed * dt / length
	}
}

// pendingTransition describes a wagon that has crossed its section boundary
// and is ready to move into the next section of the train's path.
type pendingTransition struct {
	index   int
	from    SectionID
	to      SectionID
	carryOffset float64
}

// computeTransitions determines, from a pre-tick snapshot of wagon sections,
// which wagons have crossed into the next section of their path. Per
// spec.md §4.4 a non-head wagon's next section is the section its immediate
// head-ward neighbor (index i-1) occupied before this tick's movement — so
// the snapshot (not the post-advance live state) is what every follower
// wagon's transition target is computed against.
//
// Head-first commit vs. spec.md's tail-first wording: spec.md describes
// wagon processing as proceeding tail-to-head, but committing transitions in
// that literal order would have a follower wagon try to claim a section its
// head-ward neighbor has not yet vacated in the same tick (since the
// follower's target section is wherever the neighbor WAS, not where it is
// going). We resolve this by using a single pre-tick snapshot for all
// target-section computation (order-independent, matches spec.md's stated
// rule exactly) and then committing the actual reservation release/claim
// head-first (index 0 upward) so a wagon's old section is always released
// before the section's next occupant claims it. See DESIGN.md.
func computeTransitions(t *Train, snapshot []SectionID) []pendingTransition {
	var out []pendingTransition
	for i := range t.Wagons {
		w := &t.Wagons[i]
		if w.Offset < 1 {
			continue
		}
		var target SectionID
		if i == 0 {
			next, ok := t.Plan.Head()
			if !ok {
				continue
			}
			target = next
		} else {
			target = snapshot[i-1]
			if target == w.Section {
				continue
			}
		}
		out = append(out, pendingTransition{index: i, from: w.Section, to: target, carryOffset: w.Offset - 1})
	}
	return out
}

// commitTransition applies one wagon's move to its computed target section,
// releasing the old section and reserving the new one. Returns false if the
// new section could not be reserved (caller stops the wagon at its boundary
// for this tick and it will be retried next tick by Signaling/admission).
func commitTransition(res *ReservationTable, train TrainID, w *Wagon, to SectionID, carryOffset float64) bool {
	if !res.TryReserve(train, to) {
		w.Offset = 1
		return false
	}
	res.Release(train, w.Section)
	w.Section = to
	w.Offset = carryOffset
	return true
}

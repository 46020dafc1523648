package simulation

// TrainType describes a class of rolling stock: how many wagons it spawns
// with and how fast it moves, analogous to the teacher's train-type catalog
// (spec.md §3).
type TrainType struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Speed      float64 `json:"speed"`
	NumWagons  int     `json:"numWagons"`
	WagonGap   float64 `json:"wagonGap"`
}

// Wagon is one unit of a train's consist. Offset is the fraction of Section
// already travelled, used only as a kinematic/rendering hint within that
// section (spec.md §5.3 — never used for multi-wagon-per-section packing: at
// most one wagon occupies a section at a time, across trains via the
// reservation table and within a train via Simulation.stepTrain).
type Wagon struct {
	Section SectionID `json:"section"`
	Offset  float64   `json:"offset"`
}

// RoutePlan is the sequence of sections a train intends to traverse to reach
// its current goal (desired stop or despawn section), computed by the Router
// and replanned on demand (spec.md §4.3).
type RoutePlan struct {
	Sections []SectionID `json:"sections"`
	// Cursor indexes the next section in Sections the train's head has not
	// yet entered. Plans start at Cursor 1, since the head already occupies
	// Sections[0].
	Cursor int `json:"cursor"`
}

// Head returns the route's current target section, i.e. the next section
// the lead wagon should try to enter.
func (p *RoutePlan) Head() (SectionID, bool) {
	if p.Cursor < 0 || p.Cursor >= len(p.Sections) {
		return 0, false
	}
	return p.Sections[p.Cursor], true
}

// Advance moves the cursor forward one step once the head wagon has
// committed to the next section.
func (p *RoutePlan) Advance() {
	if p.Cursor < len(p.Sections) {
		p.Cursor++
	}
}

// Done reports whether the route has been fully consumed.
func (p *RoutePlan) Done() bool {
	return p.Cursor >= len(p.Sections)
}

// Goal returns the final section of the plan: the train's desired stop
// section or a despawn section.
func (p *RoutePlan) Goal() (SectionID, bool) {
	if len(p.Sections) == 0 {
		return 0, false
	}
	return p.Sections[len(p.Sections)-1], true
}

// Train is the engine's live per-train state: identity, consist, current
// lifecycle status, route, and the bookkeeping needed for replanning and
// stuck-detection (spec.md §3, §4.3-§4.6).
type Train struct {
	ID      TrainID `json:"id"`
	Code    string  `json:"code"`
	Type    TrainType `json:"type"`
	Wagons  []Wagon `json:"wagons"`
	Status  Status  `json:"status"`
	Direction Direction `json:"direction"`

	// PriorityIndex arbitrates simultaneous admission claims: higher wins,
	// ties broken by lower TrainID (spec.md §4.5).
	PriorityIndex int `json:"priorityIndex"`

	// PreviousBlock is the block the head wagon last fully vacated; it is
	// the turn-exclusion context for both routing and admission (spec.md
	// §4.1).
	PreviousBlock BlockID `json:"previousBlock"`

	// DesiredStop is the stop id this train is travelling toward.
	DesiredStop StopID `json:"desiredStop"`

	Plan *RoutePlan `json:"plan"`

	// DeniedTicks counts consecutive ticks in which the head wagon's
	// requested admission was refused; exceeding BlockGraceTicks triggers a
	// replan attempt (spec.md §4.3, §4.5).
	DeniedTicks int `json:"deniedTicks"`

	// DwellRemaining counts down simulated seconds while Status is
	// Dwelling (spec.md §4.4).
	DwellRemaining float64 `json:"dwellRemaining"`

	// HasDwelledAt remembers stop sections already serviced on this leg, or
	// reached from the wrong side, so a train passing the same stop section
	// twice (e.g. after a reverse) does not dwell twice for the same visit
	// and no longer targets a missed stop.
	HasDwelledAt map[SectionID]bool `json:"-"`
}

// HeadWagon returns the lead wagon (index 0 in Wagons, spec.md §3 "wagons
// ordered head to tail").
func (t *Train) HeadWagon() *Wagon {
	if len(t.Wagons) == 0 {
		return nil
	}
	return &t.Wagons[0]
}

// TailWagon returns the last wagon.
func (t *Train) TailWagon() *Wagon {
	if len(t.Wagons) == 0 {
		return nil
	}
	return &t.Wagons[len(t.Wagons)-1]
}

// OccupiedSections returns the distinct sections currently occupied by any
// wagon of the train, head to tail.
func (t *Train) OccupiedSections() []SectionID {
	out := make([]SectionID, 0, len(t.Wagons))
	seen := make(map[SectionID]bool, len(t.Wagons))
	for _, w := range t.Wagons {
		if !seen[w.Section] {
			seen[w.Section] = true
			out = append(out, w.Section)
		}
	}
	return out
}

// markDwelled records that the train has already serviced the stop at
// section on its current leg.
func (t *Train) markDwelled(section SectionID) {
	if t.HasDwelledAt == nil {
		t.HasDwelledAt = make(map[SectionID]bool)
	}
	t.HasDwelledAt[section] = true
}

package simulation

import "fmt"

// Section is the atomic occupancy unit of the track graph (spec.md §3).
type Section struct {
	ID       SectionID `json:"id"`
	Geometry Geometry  `json:"geometry"`
	// Length is the section's length in arbitrary length units; kinematics
	// divides speed*dt by it. Defaults to 1 when omitted by the loader.
	Length float64 `json:"length"`
}

// Connection is a directed edge between two sections (spec.md §3). The
// ExcludePreviousBlock, when non-empty, forbids traversal when the train's
// immediately previous block equals it, encoding a V-turn restriction.
type Connection struct {
	From                SectionID `json:"from"`
	To                  SectionID `json:"to"`
	Active              bool      `json:"active"`
	ExcludePreviousBlock BlockID  `json:"excludePreviousBlock,omitempty"`
}

func (c Connection) allows(previousBlock BlockID) bool {
	if !c.Active {
		return false
	}
	if c.ExcludePreviousBlock != "" && c.ExcludePreviousBlock == previousBlock {
		return false
	}
	return true
}

// Block is a named group of sections forming the reservation unit above
// sections (spec.md §3).
type Block struct {
	ID       BlockID     `json:"id"`
	Sections []SectionID `json:"sections"`
}

// Stop associates a section with a mandatory approach direction (spec.md
// §3).
type Stop struct {
	ID       StopID    `json:"id"`
	Section  SectionID `json:"section"`
	Approach Approach  `json:"approach"`
}

// Topology is the immutable (save for connection Active flags) directed
// graph of the station: sections, connections, block membership, and stop
// placements (spec.md §4.1). It is loaded once at startup and never
// replaces its maps afterward.
type Topology struct {
	sections map[SectionID]Section
	// adjacency maps a section to its outgoing connections, in the order
	// they were loaded (stable ordering aids router tie-break determinism).
	adjacency map[SectionID][]*Connection

	blockOfSection map[SectionID]BlockID
	sectionsOfBlock map[BlockID][]SectionID

	stops map[SectionID]Stop

	spawn    map[SectionID]bool
	despawn  map[SectionID]bool
}

// NewTopology builds an empty topology; use Load (loader.go) to build one
// from a declarative description in normal operation.
func NewTopology() *Topology {
	return &Topology{
		sections:        make(map[SectionID]Section),
		adjacency:       make(map[SectionID][]*Connection),
		blockOfSection:  make(map[SectionID]BlockID),
		sectionsOfBlock: make(map[BlockID][]SectionID),
		stops:           make(map[SectionID]Stop),
		spawn:           make(map[SectionID]bool),
		despawn:         make(map[SectionID]bool),
	}
}

func (t *Topology) addSection(s Section) {
	if s.Length <= 0 {
		s.Length = 1
	}
	t.sections[s.ID] = s
}

func (t *Topology) addConnection(c Connection) {
	cc := c
	t.adjacency[c.From] = append(t.adjacency[c.From], &cc)
}

func (t *Topology) addBlock(b Block) {
	t.sectionsOfBlock[b.ID] = append([]SectionID{}, b.Sections...)
	for _, s := range b.Sections {
		t.blockOfSection[s] = b.ID
	}
}

func (t *Topology) addStop(s Stop) {
	t.stops[s.Section] = s
}

func (t *Topology) markSpawn(s SectionID)   { t.spawn[s] = true }
func (t *Topology) markDespawn(s SectionID) { t.despawn[s] = true }

// Section returns the section record for id.
func (t *Topology) Section(id SectionID) (Section, bool) {
	s, ok := t.sections[id]
	return s, ok
}

// SectionLength returns the section's length, defaulting to 1.
func (t *Topology) SectionLength(id SectionID) float64 {
	if s, ok := t.sections[id]; ok {
		return s.Length
	}
	return 1
}

// Neighbors returns the outgoing connections from section usable by a train
// whose immediately previous block was previousBlock: filtered by
// active=true and by exclude_previous_block != previousBlock (spec.md
// §4.1).
func (t *Topology) Neighbors(section SectionID, previousBlock BlockID) []*Connection {
	all := t.adjacency[section]
	out := make([]*Connection, 0, len(all))
	for _, c := range all {
		if c.allows(previousBlock) {
			out = append(out, c)
		}
	}
	return out
}

// Predecessors returns the sections with an active connection leading into
// section, used by spawn to lay out a new train's trailing wagons behind
// its entry section before a route has been planned.
func (t *Topology) Predecessors(section SectionID) []SectionID {
	var out []SectionID
	for _, id := range sortedSectionIDs(t.AllSections()) {
		for _, c := range t.adjacency[id] {
			if c.To == section && c.Active {
				out = append(out, id)
			}
		}
	}
	return out
}

// RawConnection returns the Connection object for a given (from,to) pair,
// regardless of its current active/exclusion state, or nil.
func (t *Topology) RawConnection(from, to SectionID) *Connection {
	for _, c := range t.adjacency[from] {
		if c.To == to {
			return c
		}
	}
	return nil
}

// SetConnectionActive toggles a connection's active flag. Per spec.md §4.1
// this is the only runtime mutation the Topology permits; callers (the
// Scheduler, at a tick boundary) are responsible for the SwitchOccupied
// precondition check in §4.5/§7 before calling this.
func (t *Topology) SetConnectionActive(from, to SectionID, active bool) error {
	c := t.RawConnection(from, to)
	if c == nil {
		return &SwitchRejectedError{From: from, To: to, Reason: UnknownConnection}
	}
	c.Active = active
	return nil
}

// BlockOf returns the block containing section, if any.
func (t *Topology) BlockOf(section SectionID) (BlockID, bool) {
	b, ok := t.blockOfSection[section]
	return b, ok
}

// SectionsOf returns the sections belonging to block.
func (t *Topology) SectionsOf(block BlockID) []SectionID {
	return t.sectionsOfBlock[block]
}

// StopAt returns the stop registered at section, if any.
func (t *Topology) StopAt(section SectionID) (Stop, bool) {
	s, ok := t.stops[section]
	return s, ok
}

// StopByID looks up a stop by its name, returning its section too.
func (t *Topology) StopByID(id StopID) (Stop, bool) {
	for _, s := range t.stops {
		if s.ID == id {
			return s, true
		}
	}
	return Stop{}, false
}

// IsSpawn reports whether section is a designated entry point.
func (t *Topology) IsSpawn(section SectionID) bool { return t.spawn[section] }

// IsDespawn reports whether section is a designated exit point.
func (t *Topology) IsDespawn(section SectionID) bool { return t.despawn[section] }

// SpawnSections returns all designated entry sections.
func (t *Topology) SpawnSections() []SectionID {
	out := make([]SectionID, 0, len(t.spawn))
	for s := range t.spawn {
		out = append(out, s)
	}
	return out
}

// DespawnSections returns all designated exit sections.
func (t *Topology) DespawnSections() []SectionID {
	out := make([]SectionID, 0, len(t.despawn))
	for s := range t.despawn {
		out = append(out, s)
	}
	return out
}

// AllSections returns every section id known to the topology.
func (t *Topology) AllSections() []SectionID {
	out := make([]SectionID, 0, len(t.sections))
	for id := range t.sections {
		out = append(out, id)
	}
	return out
}

// AllConnections returns every connection in the topology, in a stable
// iteration order (sorted by From then index), for diagnostics/snapshots.
func (t *Topology) AllConnections() []*Connection {
	ids := t.AllSections()
	out := make([]*Connection, 0)
	for _, id := range sortedSectionIDs(ids) {
		out = append(out, t.adjacency[id]...)
	}
	return out
}

// Validate checks the structural invariants the loader must guarantee
// (spec.md §6): every referenced section exists, every connection's
// endpoints exist, every block has at least one section, and every spawn or
// despawn names a real section.
func (t *Topology) Validate() error {
	for _, conns := range t.adjacency {
		for _, c := range conns {
			if _, ok := t.sections[c.From]; !ok {
				return fmt.Errorf("connection references unknown section %d", c.From)
			}
			if _, ok := t.sections[c.To]; !ok {
				return fmt.Errorf("connection references unknown section %d", c.To)
			}
		}
	}
	for b, secs := range t.sectionsOfBlock {
		if len(secs) == 0 {
			return fmt.Errorf("block %s has no sections", b)
		}
		for _, s := range secs {
			if _, ok := t.sections[s]; !ok {
				return fmt.Errorf("block %s references unknown section %d", b, s)
			}
		}
	}
	for s := range t.stops {
		if _, ok := t.sections[s]; !ok {
			return fmt.Errorf("stop references unknown section %d", s)
		}
	}
	for s := range t.spawn {
		if _, ok := t.sections[s]; !ok {
			return fmt.Errorf("spawn references unknown section %d", s)
		}
	}
	for s := range t.despawn {
		if _, ok := t.sections[s]; !ok {
			return fmt.Errorf("despawn references unknown section %d", s)
		}
	}
	return nil
}

func sortedSectionIDs(ids []SectionID) []SectionID {
	out := append([]SectionID{}, ids...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
